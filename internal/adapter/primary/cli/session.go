// Package cli is the line-oriented front end: batch files and an
// interactive prompt feeding the command processor one line at a time.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cashflow/payflow/internal/core"
	"github.com/cashflow/payflow/internal/port/input"
	"go.uber.org/zap"
)

const maxLineBytes = 1 << 20

// Session forwards lines to a CommandProcessor and prints each outcome.
// A failing line is reported and never stops the lines after it.
type Session struct {
	proc   input.CommandProcessor
	out    io.Writer
	errOut io.Writer
	prompt string
	logger *zap.Logger
}

// NewSession creates a session writing results to out and failures to errOut.
func NewSession(proc input.CommandProcessor, out, errOut io.Writer, prompt string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		proc:   proc,
		out:    out,
		errOut: errOut,
		prompt: prompt,
		logger: logger,
	}
}

// RunBatch processes every line of r in order. It reports exited == true
// when the batch contained EXIT, in which case the remaining lines are
// skipped.
func (s *Session) RunBatch(ctx context.Context, r io.Reader) (exited bool, err error) {
	scanner := newScanner(r)
	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		lineNo++
		if s.process(ctx, scanner.Text(), lineNo) {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("read batch: %w", err)
	}
	return false, nil
}

// RunInteractive prints the banner and a prompt, then processes lines from
// r until EXIT, end of input or ctx is cancelled.
func (s *Session) RunInteractive(ctx context.Context, r io.Reader, commands []string) error {
	s.banner(commands)

	scanner := newScanner(r)
	s.showPrompt()
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.process(ctx, scanner.Text(), 0) {
			return nil
		}
		s.showPrompt()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	fmt.Fprintln(s.out)
	return nil
}

// process runs one line and reports whether the session should end.
func (s *Session) process(ctx context.Context, line string, lineNo int) bool {
	result, err := s.proc.Execute(ctx, line)
	if err != nil {
		fmt.Fprintf(s.errOut, "Error processing command: %s\n", err)
		s.logger.Info("command rejected",
			zap.Int("line", lineNo),
			zap.String("code", core.ErrorCode(err)),
			zap.Error(err),
		)
		return false
	}
	if result.Blank() {
		return false
	}

	render(s.out, result)
	return result.Exit
}

func (s *Session) banner(commands []string) {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "================================")
	fmt.Fprintln(s.out, "Welcome to the payment processing CLI, start by entering commands followed by appropriate arguments.")
	fmt.Fprintf(s.out, "Available commands: %s\n", strings.Join(commands, ", "))
	fmt.Fprintln(s.out, "Enter command (EXIT to quit):")
}

func (s *Session) showPrompt() {
	if s.prompt == "" {
		return
	}
	fmt.Fprint(s.out, s.prompt)
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return scanner
}
