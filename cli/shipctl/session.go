package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"

	"github.com/shipyard-ci/shipctl/cli"
	"github.com/shipyard-ci/shipctl/sdk/trigger"
)

const (
	_AppID        = "app-id"
	_PipelineID   = "pipeline-id"
	_ApplicationS = "app-ids"
)

func isInt64(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

var (
	appIDArg      = cli.Arg{Name: _AppID, IsValid: isInt64}
	pipelineIDArg = cli.Arg{Name: _PipelineID, IsValid: isInt64}
	appIDsArg     = cli.Arg{Name: _ApplicationS, IsValid: isInt64}
)

// colorNotifier prints the notifications of a session on the terminal.
type colorNotifier struct {
	out io.Writer
}

func (n colorNotifier) Success(_ context.Context, title, msg string) {
	color.New(color.FgGreen, color.Bold).Fprint(n.out, title) // nolint
	fmt.Fprintf(n.out, " %s\n", msg)
}

func (n colorNotifier) Error(_ context.Context, title, msg string) {
	color.New(color.FgRed, color.Bold).Fprint(n.out, title) // nolint
	fmt.Fprintf(n.out, " %s\n", msg)
}

func newSession(ctx context.Context) *trigger.Session {
	return trigger.NewSession(ctx, client,
		trigger.WithNotifier(colorNotifier{out: os.Stderr}),
		trigger.WithBulkConcurrency(cfg.BulkConcurrency),
	)
}

// loadSession returns a session holding the workflows of the applications of v.
func loadSession(ctx context.Context, v cli.Values, key string) (*trigger.Session, error) {
	appIDs, err := v.GetInt64Slice(key)
	if err != nil {
		return nil, err
	}
	s := newSession(ctx)
	if err := s.Load(ctx, appIDs...); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
