package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rockbears/log"
	"github.com/spf13/cobra"

	"github.com/shipyard-ci/shipctl/cli"
	"github.com/shipyard-ci/shipctl/sdk"
)

var workflowCmd = cli.Command{
	Name:    "workflow",
	Aliases: []string{"workflows", "wf"},
	Short:   "Show the workflows of applications",
}

func workflow() *cobra.Command {
	return cli.NewCommand(workflowCmd, nil, []*cobra.Command{
		cli.NewListCommand(workflowListCmd, workflowListRun, nil),
		cli.NewListCommand(workflowStatusCmd, workflowStatusRun, nil),
		cli.NewCommand(workflowWatchCmd, workflowWatchRun, nil),
	})
}

var workflowListCmd = cli.Command{
	Name:         "list",
	Short:        "List the nodes of the workflows of applications",
	VariadicArgs: appIDsArg,
}

func nodeLines(ws []sdk.Workflow) []sdk.NodeStatusLine {
	var lines []sdk.NodeStatusLine
	for _, w := range ws {
		for _, n := range w.Nodes {
			downstreams := make([]string, 0, len(n.Downstreams))
			for _, d := range n.Downstreams {
				downstreams = append(downstreams, d.String())
			}
			lines = append(lines, sdk.NodeStatusLine{
				WorkflowName: w.Name,
				Node:         n.Key.String(),
				Title:        n.Title,
				Status:       n.Status,
				Environment:  n.EnvironmentName,
				Downstreams:  strings.Join(downstreams, " "),
			})
		}
	}
	return lines
}

func workflowListRun(v cli.Values) (cli.ListResult, error) {
	ctx := context.Background()
	s, err := loadSession(ctx, v, _ApplicationS)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return cli.AsListResult(nodeLines(s.Workflows())), nil
}

var workflowStatusCmd = cli.Command{
	Name:         "status",
	Short:        "Show the status of the pipelines of applications",
	VariadicArgs: appIDsArg,
	Flags: []cli.Flag{
		{
			Name:  "in-progress",
			Type:  cli.FlagBool,
			Usage: "Only display the nodes in progress",
		},
	},
}

type statusLine struct {
	WorkflowName string `cli:"workflow"`
	Node         string `cli:"node,key"`
	Title        string `cli:"title"`
	Status       string `cli:"status"`
	InProgress   bool   `cli:"in_progress"`
}

func statusLines(ws []sdk.Workflow, onlyInProgress bool) []statusLine {
	var lines []statusLine
	for _, w := range ws {
		for _, n := range w.Nodes {
			if n.Key.Type == sdk.NodeTypeGit || (onlyInProgress && !n.InProgress()) {
				continue
			}
			lines = append(lines, statusLine{
				WorkflowName: w.Name,
				Node:         n.Key.String(),
				Title:        n.Title,
				Status:       n.Status,
				InProgress:   n.InProgress(),
			})
		}
	}
	return lines
}

func workflowStatusRun(v cli.Values) (cli.ListResult, error) {
	ctx := context.Background()
	s, err := loadSession(ctx, v, _ApplicationS)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return cli.AsListResult(statusLines(s.Workflows(), v.GetBool("in-progress"))), nil
}

var workflowWatchCmd = cli.Command{
	Name:         "watch",
	Short:        "Follow the status of the pipelines of applications until interrupted",
	VariadicArgs: appIDsArg,
	Flags: []cli.Flag{
		{
			Name:  "metrics-addr",
			Usage: "Serve prometheus metrics of the API calls on this address, e.g. :9100",
		},
		{
			Name:  "until-done",
			Type:  cli.FlagBool,
			Usage: "Exit as soon as nothing is in progress",
		},
	},
}

func statusColor(status string) *color.Color {
	switch {
	case sdk.StatusIsInProgress(status):
		return color.New(color.FgCyan)
	case strings.EqualFold(status, sdk.StatusSucceeded), strings.EqualFold(status, sdk.StatusHealthy):
		return color.New(color.FgGreen)
	case strings.EqualFold(status, sdk.StatusFailed), strings.EqualFold(status, sdk.StatusDegraded):
		return color.New(color.FgRed)
	case strings.EqualFold(status, sdk.StatusCancelled), strings.EqualFold(status, sdk.StatusAborted):
		return color.New(color.FgYellow)
	}
	return color.New(color.Reset)
}

func workflowWatchRun(v cli.Values) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr := v.GetString("metrics-addr"); addr != "" {
		srv := &http.Server{Addr: addr, Handler: promhttp.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error(ctx, "metrics server: %v", err)
			}
		}()
		defer srv.Close() // nolint
	}

	s, err := loadSession(ctx, v, _ApplicationS)
	if err != nil {
		return err
	}
	defer s.Close()

	last := map[sdk.NodeKey]string{}
	changes := make(chan bool, 1)
	display := func() {
		for _, w := range s.Workflows() {
			for _, n := range w.Nodes {
				if n.Key.Type == sdk.NodeTypeGit || last[n.Key] == n.Status {
					continue
				}
				last[n.Key] = n.Status
				fmt.Printf("%-20s %-12s %-30s ", w.Name, n.Key, n.Title)
				statusColor(n.Status).Println(n.Status) // nolint
			}
		}
	}
	display()

	s.Poller().OnPoll(func(inProgress bool, err error) {
		sendLatest(changes, inProgress)
	})
	if v.GetBool("until-done") && !s.Poller().InProgress() {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case inProgress := <-changes:
			display()
			if v.GetBool("until-done") && !inProgress {
				return nil
			}
		}
	}
}

// sendLatest replaces the value buffered in ch, if any, by v.
func sendLatest(ch chan bool, v bool) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
