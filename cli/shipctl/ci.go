package main

import (
	"context"
	"fmt"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/shipyard-ci/shipctl/cli"
	"github.com/shipyard-ci/shipctl/sdk"
	"github.com/shipyard-ci/shipctl/sdk/trigger"
)

var ciCmd = cli.Command{
	Name:  "ci",
	Short: "Browse materials and trigger build pipelines",
}

func ci() *cobra.Command {
	return cli.NewCommand(ciCmd, nil, []*cobra.Command{
		cli.NewListCommand(ciMaterialsCmd, ciMaterialsRun, nil),
		cli.NewCommand(ciTriggerCmd, ciTriggerRun, nil),
	})
}

var ciMaterialsCmd = cli.Command{
	Name:  "materials",
	Short: "List the commits available to a build pipeline",
	Args:  []cli.Arg{appIDArg, pipelineIDArg},
	Flags: []cli.Flag{
		{
			Name:  "refresh",
			Type:  cli.FlagBool,
			Usage: "Fetch the git repositories again before listing",
		},
	},
}

type commitLine struct {
	MaterialID int64  `cli:"material_id"`
	Material   string `cli:"material"`
	Commit     string `cli:"commit,key"`
	Author     string `cli:"author"`
	Date       string `cli:"date"`
	Message    string `cli:"message"`
	Selected   bool   `cli:"selected"`
}

func commitLines(n sdk.Node) []commitLine {
	var lines []commitLine
	for _, m := range n.InputMaterialList {
		if !m.IsSourceConfigured() {
			lines = append(lines, commitLine{MaterialID: m.ID, Material: m.GitMaterialName, Message: m.BranchErrorMsg})
			continue
		}
		if m.IsRepoError {
			lines = append(lines, commitLine{MaterialID: m.ID, Material: m.GitMaterialName, Message: m.RepoErrorMsg})
			continue
		}
		for _, h := range m.History {
			lines = append(lines, commitLine{
				MaterialID: m.ID,
				Material:   m.GitMaterialName,
				Commit:     h.Reference(),
				Author:     h.Author,
				Date:       h.Date,
				Message:    h.Message,
				Selected:   m.Selected && h.Selected,
			})
		}
	}
	return lines
}

func ciNode(ctx context.Context, v cli.Values) (*trigger.Session, sdk.NodeKey, error) {
	appID, err := v.GetInt64(_AppID)
	if err != nil {
		return nil, sdk.NodeKey{}, err
	}
	pipelineID, err := v.GetInt64(_PipelineID)
	if err != nil {
		return nil, sdk.NodeKey{}, err
	}
	s := newSession(ctx)
	if err := s.Load(ctx, appID); err != nil {
		s.Close()
		return nil, sdk.NodeKey{}, err
	}
	return s, sdk.NodeKey{Type: sdk.NodeTypeCI, ID: pipelineID}, nil
}

func ciMaterialsRun(v cli.Values) (cli.ListResult, error) {
	ctx := context.Background()
	s, k, err := ciNode(ctx, v)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if err := s.Open(trigger.ModeCI{Node: k}); err != nil {
		return nil, err
	}
	if err := s.FetchMaterials(ctx, k, v.GetBool("refresh")); err != nil {
		return nil, err
	}
	n, err := s.Node(k)
	if err != nil {
		return nil, err
	}
	return cli.AsListResult(commitLines(n)), nil
}

var ciTriggerCmd = cli.Command{
	Name:  "trigger",
	Short: "Trigger a build pipeline",
	Long: `Trigger a build pipeline with the latest commit of every material, or the
commit given with --commit on the material given with --material.

For a material built from a branch matching a regex, set the branch with --branch.`,
	Example: "shipctl ci trigger 12 3 --material 31 --commit 9e3c1f0",
	Args:    []cli.Arg{appIDArg, pipelineIDArg},
	Flags: []cli.Flag{
		{
			Name:  "material",
			Usage: "CI material to select",
		},
		{
			Name:  "commit",
			Usage: "Commit hash or webhook event id to build",
		},
		{
			Name:  "branch",
			Usage: "Branch to build for a material configured with a regex",
		},
		{
			Name:  "invalidate-cache",
			Type:  cli.FlagBool,
			Usage: "Ignore the build cache",
		},
		{
			Name:  "open-web-browser",
			Type:  cli.FlagBool,
			Usage: "Open the application page in a browser",
		},
	},
}

func ciTriggerRun(v cli.Values) error {
	ctx := context.Background()
	s, k, err := ciNode(ctx, v)
	if err != nil {
		return err
	}
	defer s.Close()

	materialID, err := v.GetInt64("material")
	if err != nil {
		return err
	}

	if err := s.Open(trigger.ModeCI{Node: k}); err != nil {
		return err
	}
	if err := s.FetchMaterials(ctx, k, false); err != nil {
		return err
	}

	if branch := v.GetString("branch"); branch != "" {
		if err := s.Open(trigger.ModeRegex{Node: k}); err != nil {
			return err
		}
		n, err := s.Node(k)
		if err != nil {
			return err
		}
		regexMaterialID := materialID
		if regexMaterialID == 0 {
			for _, m := range n.InputMaterialList {
				if m.Type == sdk.SourceTypeBranchRegex {
					regexMaterialID = m.ID
					break
				}
			}
		}
		if err := s.SetBranch(k, regexMaterialID, branch); err != nil {
			return err
		}
		if err := s.Open(trigger.ModeCI{Node: k}); err != nil {
			return err
		}
	}

	if materialID != 0 {
		if err := s.SelectMaterial(k, materialID); err != nil {
			return err
		}
	}
	if commit := v.GetString("commit"); commit != "" {
		n, err := s.Node(k)
		if err != nil {
			return err
		}
		m := n.SelectedMaterial()
		if m == nil {
			return sdk.NewErrorFrom(sdk.ErrMissingTriggerData, "%s has no material", k)
		}
		if err := s.SelectCommit(k, m.ID, commit); err != nil {
			return err
		}
	}

	res, err := s.TriggerCI(ctx, k, v.GetBool("invalidate-cache"))
	if err != nil {
		return err
	}
	if res == nil {
		fmt.Println("The server accepted the request without result")
		return nil
	}

	appID, _ := v.GetInt64(_AppID)
	url := cfg.uiURL(fmt.Sprintf("app/%d/trigger", appID))
	fmt.Println(url)
	if v.GetBool("open-web-browser") {
		return browser.OpenURL(url)
	}
	return nil
}
