package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	sendTimeout  = 2 * time.Second
	probeTimeout = 300 * time.Millisecond
)

type tcpClient struct{}

func newTcpClient() Client { return &tcpClient{} }

func (c *tcpClient) Send(ctx context.Context, verb string) (bool, string, error) {
	verb = strings.ToUpper(strings.TrimSpace(verb))
	if !ValidVerb(verb) {
		return false, "", fmt.Errorf("unknown command %q", verb)
	}
	timeout := timeoutFrom(ctx, sendTimeout)
	port, err := findResident(ctx, timeout)
	if err != nil || port == 0 {
		return false, "", err
	}
	reply, err := deliver(residentAddr(port), verb, timeout)
	return true, reply, err
}

// ResidentPort returns the port of the running resident, if any answers PING.
func ResidentPort(ctx context.Context) (int, bool) {
	port, err := findResident(ctx, timeoutFrom(ctx, probeTimeout))
	return port, err == nil && port != 0
}

// findResident walks the port range and returns the first port answering
// PING, or 0 when none does.
func findResident(ctx context.Context, timeout time.Duration) (int, error) {
	start, end := getPortRange()
	for port := start; port <= end; port++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		resp, err := exchange(residentAddr(port), pingRequest, timeout)
		if err == nil && resp == pongResponse {
			return port, nil
		}
	}
	return 0, nil
}

func timeoutFrom(ctx context.Context, fallback time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return fallback
}

func residentAddr(port int) string {
	return net.JoinHostPort(residentHost, strconv.Itoa(port))
}

// exchange writes one request line and returns everything the resident
// sends back before closing the connection.
func exchange(addr, request string, timeout time.Duration) (string, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(request); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	body, err := io.ReadAll(conn)
	if err != nil && len(body) == 0 {
		return "", err
	}
	return string(body), nil
}

func deliver(addr, verb string, timeout time.Duration) (string, error) {
	resp, err := exchange(addr, verb+"\n", timeout)
	if err != nil {
		return "", err
	}
	status, body, found := strings.Cut(resp, "\n")
	if !found {
		return "", fmt.Errorf("unexpected response %q", strings.TrimSpace(resp))
	}
	switch status {
	case "SUCCESS":
		return body, nil
	case "ERROR":
		return "", errors.New(body)
	default:
		return "", fmt.Errorf("unexpected response %q", status)
	}
}
