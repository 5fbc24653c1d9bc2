package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shipyard-ci/shipctl/cli"
	"github.com/shipyard-ci/shipctl/sdk"
	"github.com/shipyard-ci/shipctl/sdk/trigger"
)

var bulkCmd = cli.Command{
	Name:  "bulk",
	Short: "Trigger the pipelines of several applications at once",
}

func bulk() *cobra.Command {
	return cli.NewCommand(bulkCmd, nil, []*cobra.Command{
		cli.NewListCommand(bulkCICmd, bulkCIRun, nil),
		cli.NewListCommand(bulkCDCmd, bulkCDRun, nil),
	})
}

var forceFlag = cli.Flag{
	Name:  "force",
	Type:  cli.FlagBool,
	Usage: "Do not ask for confirmation",
}

var bulkCICmd = cli.Command{
	Name:         "ci",
	Short:        "Build every workflow of the applications with its latest commits",
	VariadicArgs: appIDsArg,
	Flags: []cli.Flag{
		forceFlag,
		{
			Name:  "workflow",
			Type:  cli.FlagSlice,
			Usage: "Only trigger the workflows with these names",
		},
	},
}

var bulkCDCmd = cli.Command{
	Name:         "cd",
	Short:        "Deploy every workflow of the applications to an environment",
	VariadicArgs: appIDsArg,
	Flags: []cli.Flag{
		forceFlag,
		stageFlag,
		{
			Name:  "env",
			Usage: "Environment id to deploy to",
			IsValid: func(s string) bool {
				return s == "" || isInt64(s)
			},
		},
		{
			Name:  "workflow",
			Type:  cli.FlagSlice,
			Usage: "Only trigger the workflows with these names",
		},
	},
}

// selectWorkflows marks the workflows of the session for a bulk trigger.
func selectWorkflows(s *trigger.Session, names []string) (int, error) {
	keep := map[string]bool{}
	for _, n := range names {
		keep[n] = true
	}
	var count int
	for _, w := range s.Workflows() {
		selected := len(keep) == 0 || keep[w.Name]
		if err := s.SetSelected(w.ID, selected); err != nil {
			return 0, err
		}
		if selected {
			count++
		}
	}
	return count, nil
}

func confirmBulk(v cli.Values, what string, count int) bool {
	if v.GetBool("force") || v.GetBool("no-interactive") {
		return true
	}
	return cli.AskConfirm(fmt.Sprintf("%s %d workflows?", what, count))
}

func bulkRun(v cli.Values, mode trigger.Mode, what string, run func(ctx context.Context, s *trigger.Session) ([]sdk.ResponseRow, error)) (cli.ListResult, error) {
	ctx := context.Background()
	s, err := loadSession(ctx, v, _ApplicationS)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	count, err := selectWorkflows(s, v.GetStringSlice("workflow"))
	if err != nil {
		return nil, err
	}
	if err := s.Open(mode); err != nil {
		return nil, err
	}
	if !confirmBulk(v, what, count) {
		return nil, cli.NewError("bulk trigger aborted")
	}

	rows, err := run(ctx, s)
	if err != nil {
		return nil, err
	}
	return cli.AsListResult(rows), nil
}

func bulkCIRun(v cli.Values) (cli.ListResult, error) {
	return bulkRun(v, trigger.ModeBulkCI{}, "Build", func(ctx context.Context, s *trigger.Session) ([]sdk.ResponseRow, error) {
		return s.BulkCI(ctx)
	})
}

func bulkCDRun(v cli.Values) (cli.ListResult, error) {
	envID, err := v.GetInt64("env")
	if err != nil {
		return nil, err
	}
	if envID == 0 {
		return nil, cli.NewError("--env is mandatory")
	}
	stage, err := sdk.ParseStage(v.GetString("stage"))
	if err != nil {
		return nil, err
	}
	mode := trigger.ModeBulkCD{EnvironmentID: envID, Stage: stage}
	return bulkRun(v, mode, "Deploy", func(ctx context.Context, s *trigger.Session) ([]sdk.ResponseRow, error) {
		return s.BulkCD(ctx, envID, stage)
	})
}
