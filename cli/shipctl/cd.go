package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/shipyard-ci/shipctl/cli"
	"github.com/shipyard-ci/shipctl/sdk"
	"github.com/shipyard-ci/shipctl/sdk/trigger"
)

var cdCmd = cli.Command{
	Name:    "cd",
	Aliases: []string{"deploy"},
	Short:   "Browse images and trigger deployment pipelines",
}

func cd() *cobra.Command {
	return cli.NewCommand(cdCmd, nil, []*cobra.Command{
		cli.NewListCommand(cdMaterialsCmd, cdMaterialsRun, nil),
		cli.NewCommand(cdTriggerCmd, cdTriggerRun, nil),
	})
}

func isStage(s string) bool {
	_, err := sdk.ParseStage(s)
	return err == nil
}

var (
	stageFlag = cli.Flag{
		Name:    "stage",
		Default: string(sdk.StageDeploy),
		Usage:   "Stage of the pipeline: PRE|DEPLOY|POST",
		IsValid: isStage,
	}
	rollbackFlag = cli.Flag{
		Name:  "rollback",
		Type:  cli.FlagBool,
		Usage: "Use the images previously deployed",
	}
)

var cdMaterialsCmd = cli.Command{
	Name:  "materials",
	Short: "List the images available to a deployment pipeline",
	Args:  []cli.Arg{appIDArg, pipelineIDArg},
	Flags: []cli.Flag{stageFlag, rollbackFlag},
}

// imageLine is an artifact with its position, used by --artifact-index.
type imageLine struct {
	Index        int    `cli:"index"`
	ID           int64  `cli:"id,key"`
	Image        string `cli:"image"`
	DeployedTime string `cli:"deployed_time"`
	Deployed     bool   `cli:"deployed"`
	Latest       bool   `cli:"latest"`
	Selected     bool   `cli:"selected"`
}

func imageLines(list []sdk.Artifact) []imageLine {
	lines := make([]imageLine, 0, len(list))
	for i, a := range list {
		lines = append(lines, imageLine{
			Index:        i,
			ID:           a.ID,
			Image:        a.Image,
			DeployedTime: a.DeployedTime,
			Deployed:     a.Deployed,
			Latest:       a.Latest,
			Selected:     a.Selected,
		})
	}
	return lines
}

func cdNode(ctx context.Context, v cli.Values) (*trigger.Session, sdk.NodeKey, sdk.MaterialKind, error) {
	appID, err := v.GetInt64(_AppID)
	if err != nil {
		return nil, sdk.NodeKey{}, "", err
	}
	pipelineID, err := v.GetInt64(_PipelineID)
	if err != nil {
		return nil, sdk.NodeKey{}, "", err
	}
	stage, err := sdk.ParseStage(v.GetString("stage"))
	if err != nil {
		return nil, sdk.NodeKey{}, "", err
	}
	kind := sdk.MaterialKindInput
	if v.GetBool("rollback") {
		kind = sdk.MaterialKindRollback
	}

	s := newSession(ctx)
	if err := s.Load(ctx, appID); err != nil {
		s.Close()
		return nil, sdk.NodeKey{}, "", err
	}
	k := sdk.NodeKey{Type: stage.NodeType(), ID: pipelineID}
	if err := s.Open(trigger.ModeCD{Node: k, Kind: kind}); err != nil {
		s.Close()
		return nil, sdk.NodeKey{}, "", err
	}
	if err := s.FetchArtifacts(ctx, k, kind); err != nil {
		s.Close()
		return nil, sdk.NodeKey{}, "", err
	}
	return s, k, kind, nil
}

func cdMaterialsRun(v cli.Values) (cli.ListResult, error) {
	ctx := context.Background()
	s, k, kind, err := cdNode(ctx, v)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	n, err := s.Node(k)
	if err != nil {
		return nil, err
	}
	return cli.AsListResult(imageLines(n.Materials(kind))), nil
}

var cdTriggerCmd = cli.Command{
	Name:  "trigger",
	Short: "Deploy an image with a deployment pipeline",
	Long: `Deploy the latest image, or the one at the position given with --artifact-index
in the list displayed by "shipctl cd materials".`,
	Example: "shipctl cd trigger 12 7 --stage PRE --artifact-index 1",
	Args:    []cli.Arg{appIDArg, pipelineIDArg},
	Flags: []cli.Flag{
		stageFlag,
		rollbackFlag,
		{
			Name:    "artifact-index",
			Default: "0",
			Usage:   "Position of the image in the materials list",
			IsValid: func(s string) bool {
				i, err := strconv.Atoi(s)
				return err == nil && i >= 0
			},
		},
		{
			Name:  "open-web-browser",
			Type:  cli.FlagBool,
			Usage: "Open the application page in a browser",
		},
	},
}

func cdTriggerRun(v cli.Values) error {
	ctx := context.Background()
	s, k, kind, err := cdNode(ctx, v)
	if err != nil {
		return err
	}
	defer s.Close()

	index, err := v.GetInt64("artifact-index")
	if err != nil {
		return err
	}
	if err := s.SelectImage(k, int(index), kind); err != nil {
		return err
	}

	res, err := s.TriggerCD(ctx, k, kind)
	if err != nil {
		return err
	}
	if res == nil {
		fmt.Println("The server accepted the request without result")
		return nil
	}

	appID, _ := v.GetInt64(_AppID)
	url := cfg.uiURL(fmt.Sprintf("app/%d/details", appID))
	fmt.Println(url)
	if v.GetBool("open-web-browser") {
		return browser.OpenURL(url)
	}
	return nil
}
