package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"clipboard-buddy/src/actions"
	"clipboard-buddy/src/config"
	"clipboard-buddy/src/history"
	"clipboard-buddy/src/logutil"
	"clipboard-buddy/src/runtimeinit"
	"clipboard-buddy/src/singleinstance"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var ErrEmptyInput = errors.New("input is empty")

type cliOptions struct {
	configPath string
	verbose    bool

	action     string
	filePath   string
	jsonOutput bool
	deadline   time.Duration

	limit int
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"clipbud-cli"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "clipbud-cli",
		Short:         "Run Clipboard Buddy actions from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				log.SetOutput(os.Stderr)
			} else {
				log.SetOutput(io.Discard)
			}
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (default ~/.clipbud/config.yml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")

	cmd.AddCommand(newRunCmd(opts), newHistoryCmd(opts), newSendCmd(opts), newStatusCmd())
	return cmd
}

func newRunCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one action on text from a file or stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			input, err := readInput(opts.filePath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.deadline)
			defer cancel()
			res, err := runAction(ctx, rt.Catalog, recorderFor(rt), opts.action, input)
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), res, opts.jsonOutput)
		},
	}
	cmd.Flags().StringVarP(&opts.action, "action", "a", "", "Action label (case-insensitive)")
	cmd.Flags().StringVar(&opts.filePath, "file", "-", "Path to input text file (use '-' for stdin)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", time.Duration(config.DefaultDeadlineSec)*time.Second, "Completion timeout")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}

func newHistoryCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent completions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ResolvePath(config.LoadOptions{PathOverride: opts.configPath})
			if err != nil {
				return err
			}
			cfg, err := config.LoadFile(path)
			if err != nil {
				return err
			}
			if !cfg.HistoryEnabled() {
				return errors.New("history is disabled in the config")
			}
			store, err := history.Open(cfg.Dir())
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), opts.limit)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), entries, opts.jsonOutput)
		},
	}
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output entries as JSON")
	return cmd
}

func newSendCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "send show|configure|reload|quit",
		Short:     "Send a command to the running Clipboard Buddy",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"show", "configure", "reload", "quit"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			return sendCommand(ctx, singleinstance.NewClient(), args[0], cmd.OutOrStdout())
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether Clipboard Buddy is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
			defer cancel()
			if port, ok := singleinstance.ResidentPort(ctx); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "running on port %d\n", port)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "not running")
			return nil
		},
	}
}

func bootstrap(opts *cliOptions) (*runtimeinit.Runtime, error) {
	return runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{PathOverride: opts.configPath},
		SkipLogging: true,
	})
}

func recorderFor(rt *runtimeinit.Runtime) recorder {
	if rt.History == nil {
		return nil
	}
	return rt.History
}

type recorder interface {
	Record(ctx context.Context, e *history.Entry) error
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"file", "json", "verbose", "config", "action", "limit", "deadline"} {
			single := "-" + name
			switch {
			case arg == single:
				normalized[i] = "-" + single
			case strings.HasPrefix(arg, single+"="):
				normalized[i] = "-" + arg
			}
		}
	}

	return normalized
}

func readInput(filePath string, stdin io.Reader) (string, error) {
	var data []byte
	var err error

	if filePath == "" || filePath == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		info, statErr := os.Stat(filePath)
		if statErr != nil {
			return "", fmt.Errorf("failed to read file %s: %w", filePath, statErr)
		}
		if info.Size() > maxFileSize {
			return "", fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
		}
		data, err = os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("failed to read file %s: %w", filePath, err)
		}
	}

	if len(data) > maxFileSize {
		return "", fmt.Errorf("input exceeds maximum size of %d MB", maxFileSizeMB)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", ErrEmptyInput
	}
	return string(data), nil
}

// ActionResult is the --json output of run.
type ActionResult struct {
	Text      string  `json:"text"`
	Action    string  `json:"action"`
	Provider  string  `json:"provider"`
	Model     string  `json:"model"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
	CharCount int     `json:"character_count"`
}

func runAction(ctx context.Context, catalog *actions.Catalog, rec recorder, label, input string) (ActionResult, error) {
	a, ok := catalog.Find(label)
	if !ok {
		return ActionResult{}, fmt.Errorf("unknown action %q", label)
	}
	log.Printf("Running %s (%s/%s) on %s", a.Label, a.Provider, a.Model, logutil.Sanitize(input))

	start := time.Now()
	text, err := a.Complete(ctx, input)
	elapsed := time.Since(start)

	if rec != nil {
		entry := &history.Entry{
			RequestID:  uuid.NewString(),
			Timestamp:  start,
			Action:     a.Label,
			Provider:   a.Provider,
			Model:      a.Model,
			InputChars: len([]rune(input)),
			Output:     text,
			LatencyMs:  elapsed.Milliseconds(),
			Success:    err == nil,
		}
		if err != nil {
			entry.Error = err.Error()
		}
		if rerr := rec.Record(context.Background(), entry); rerr != nil {
			log.Printf("Failed to record history: %v", rerr)
		}
	}
	if err != nil {
		return ActionResult{}, fmt.Errorf("%s failed: %w", a.Label, err)
	}

	return ActionResult{
		Text:      text,
		Action:    a.Label,
		Provider:  a.Provider,
		Model:     a.Model,
		Timestamp: start.UTC().Format(time.RFC3339),
		Duration:  elapsed.Seconds(),
		CharCount: len([]rune(text)),
	}, nil
}

func outputResult(w io.Writer, res ActionResult, jsonOutput bool) error {
	if jsonOutput {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(res); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		return nil
	}
	_, err := fmt.Fprint(w, res.Text)
	return err
}

type historyRecord struct {
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Success   bool   `json:"success"`
	LatencyMs int64  `json:"latency_ms"`
	Output    string `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
}

func printHistory(w io.Writer, entries []history.Entry, jsonOutput bool) error {
	if jsonOutput {
		records := make([]historyRecord, 0, len(entries))
		for _, e := range entries {
			records = append(records, historyRecord{
				Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
				Action:    e.Action,
				Provider:  e.Provider,
				Model:     e.Model,
				Success:   e.Success,
				LatencyMs: e.LatencyMs,
				Output:    e.Output,
				Error:     e.Error,
			})
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tMODEL\tSTATUS\tLATENCY")
	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "failed: " + e.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s/%s\t%s\t%dms\n",
			e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.Provider, e.Model, status, e.LatencyMs)
	}
	return tw.Flush()
}

func sendCommand(ctx context.Context, client singleinstance.Client, verb string, out io.Writer) error {
	delegated, reply, err := client.Send(ctx, strings.ToUpper(verb))
	if err != nil {
		return err
	}
	if !delegated {
		return errors.New("clipboard buddy is not running")
	}
	fmt.Fprintln(out, strings.TrimSpace(reply))
	return nil
}
