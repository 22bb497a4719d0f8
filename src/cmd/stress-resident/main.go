package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"clipboard-buddy/src/singleinstance"
)

type stressOptions struct {
	n        int
	verb     string
	deadline time.Duration
}

type tally struct {
	ok, absent, failed int32
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-resident",
		Short:         "Send many concurrent commands to a running Clipboard Buddy",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts, singleinstance.NewClient(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().StringVar(&opts.verb, "verb", singleinstance.VerbShow, "command to send: SHOW|CONFIGURE|RELOAD|QUIT")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")

	return cmd
}

func runWithOptions(opts stressOptions, client singleinstance.Client, out io.Writer) error {
	verb := strings.ToUpper(opts.verb)
	if !singleinstance.ValidVerb(verb) {
		return fmt.Errorf("unknown verb %q", opts.verb)
	}

	var wg sync.WaitGroup
	var t tally
	start := time.Now()
	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), opts.deadline)
			defer cancel()
			delegated, _, err := client.Send(ctx, verb)
			switch {
			case err != nil:
				atomic.AddInt32(&t.failed, 1)
			case delegated:
				atomic.AddInt32(&t.ok, 1)
			default:
				atomic.AddInt32(&t.absent, 1)
			}
		}()
	}
	wg.Wait()
	fmt.Fprintf(out, "launched=%d ok=%d absent=%d err=%d elapsed=%s\n", opts.n, t.ok, t.absent, t.failed, time.Since(start))
	return nil
}
