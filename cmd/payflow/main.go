package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/cashflow/payflow/internal/adapter/primary/cli"
	"github.com/cashflow/payflow/internal/app"
	"github.com/cashflow/payflow/internal/config"
	"github.com/cashflow/payflow/internal/core/service"
	"github.com/cashflow/payflow/internal/logger"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// defaultLogLevel keeps info logs out of the interactive output unless
// log.level asks for them.
const defaultLogLevel = "warn"

type options struct {
	configFile    string
	logLevel      string
	noInteractive bool
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "payflow [batch-file.txt]",
		Short:        "payflow - payment lifecycle command interpreter",
		Version:      Version,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("log-level") {
				opts.logLevel = ""
			}
			batchFile := ""
			if len(args) == 1 {
				batchFile = args[0]
			}
			return run(cmd.Context(), opts, batchFile, in, out, errOut)
		},
	}

	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "Config file (default: ./payflow.yaml if present)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", defaultLogLevel, "Log level (debug, info, warn, error); overrides log.level")
	cmd.Flags().BoolVar(&opts.noInteractive, "no-interactive", false, "Exit after the batch file instead of prompting")

	return cmd
}

func run(ctx context.Context, opts options, batchFile string, in io.Reader, out, errOut io.Writer) error {
	cfg, err := config.Load(opts.configFile, config.WithDefault("log.level", defaultLogLevel))
	if err != nil {
		return err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	session := cli.NewSession(a.Dispatcher, out, errOut, cfg.CLI.Prompt, log.Named("cli"))

	if batchFile != "" {
		if !strings.EqualFold(filepath.Ext(batchFile), ".txt") {
			fmt.Fprintln(out, "Invalid file type. Proceeding with interactive mode.")
		} else {
			exited, err := runBatch(ctx, session, batchFile, !opts.noInteractive, out)
			if err != nil {
				fmt.Fprintf(errOut, "Error reading file: %s\n", err)
			}
			if exited {
				return nil
			}
		}
	}
	if opts.noInteractive {
		return nil
	}

	return session.RunInteractive(ctx, in, commandNames())
}

func runBatch(ctx context.Context, session *cli.Session, path string, interactiveNext bool, out io.Writer) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	fmt.Fprintln(out, "Loading dataset from file...")
	exited, err := session.RunBatch(ctx, f)
	if err != nil || exited {
		return exited, err
	}
	if interactiveNext {
		fmt.Fprintln(out, "Finished processing file. Proceeding with interactive mode.")
	} else {
		fmt.Fprintln(out, "Finished processing file.")
	}
	return false, nil
}

func commandNames() []string {
	names := make([]string, len(service.Commands))
	for i, c := range service.Commands {
		names[i] = string(c)
	}
	return names
}
