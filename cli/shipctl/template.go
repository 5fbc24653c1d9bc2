package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rockbears/log"
	"github.com/spf13/cobra"

	"github.com/shipyard-ci/shipctl/cli"
	"github.com/shipyard-ci/shipctl/sdk"
	"github.com/shipyard-ci/shipctl/sdk/deploytemplate"
)

var templateCmd = cli.Command{
	Name:    "template",
	Aliases: []string{"templates"},
	Short:   "Manage the deployment templates of an application",
}

func template() *cobra.Command {
	return cli.NewCommand(templateCmd, nil, []*cobra.Command{
		cli.NewListCommand(templateChartsCmd, templateChartsRun, nil),
		cli.NewCommand(templateGetCmd, templateGetRun, nil),
		cli.NewCommand(templateApplyCmd, templateApplyRun, nil),
	})
}

var (
	envFlag = cli.Flag{
		Name:  "env",
		Usage: "Environment id",
		IsValid: func(s string) bool {
			return s == "" || isInt64(s)
		},
	}
	chartRefFlag = cli.Flag{
		Name:  "chart-ref",
		Usage: "Chart ref id, the one of the application by default",
		IsValid: func(s string) bool {
			return s == "" || isInt64(s)
		},
	}
)

var templateChartsCmd = cli.Command{
	Name:  "charts",
	Short: "List the chart versions available to an application",
	Args:  []cli.Arg{appIDArg},
	Flags: []cli.Flag{
		{
			Name:  "constraint",
			Usage: `Only list the versions matching a constraint, e.g. ">= 4.0, < 5"`,
		},
	},
}

func templateChartsRun(v cli.Values) (cli.ListResult, error) {
	appID, err := v.GetInt64(_AppID)
	if err != nil {
		return nil, err
	}
	refs, err := client.ChartRefList(context.Background(), appID)
	if err != nil {
		return nil, err
	}
	list := refs.ChartRefs
	if c := v.GetString("constraint"); c != "" {
		if list, err = deploytemplate.Matching(list, c); err != nil {
			return nil, err
		}
	}
	deploytemplate.Sort(list)
	return cli.AsListResult(list), nil
}

// chartRef returns the chart ref of the flags, the one used by the application otherwise.
func chartRef(ctx context.Context, v cli.Values, appID int64) (*sdk.ChartRef, error) {
	id, err := v.GetInt64("chart-ref")
	if err != nil {
		return nil, err
	}
	refs, err := client.ChartRefList(ctx, appID)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		id = refs.LatestAppChartRef
	}
	if id == 0 {
		return deploytemplate.Latest(refs.ChartRefs, "")
	}
	return deploytemplate.Find(refs.ChartRefs, id)
}

var templateGetCmd = cli.Command{
	Name:  "get",
	Short: "Show the values deployed by an application, on an environment if --env is set",
	Args:  []cli.Arg{appIDArg},
	Flags: []cli.Flag{
		envFlag,
		chartRefFlag,
		{
			Name:  "diff",
			Type:  cli.FlagBool,
			Usage: "Only show the override of the environment",
		},
	},
}

func templateGetRun(v cli.Values) error {
	ctx := context.Background()
	appID, err := v.GetInt64(_AppID)
	if err != nil {
		return err
	}
	envID, err := v.GetInt64("env")
	if err != nil {
		return err
	}
	ref, err := chartRef(ctx, v, appID)
	if err != nil {
		return err
	}
	log.Debug(ctx, "using chart %s %s", ref.Name, ref.Version)
	refID := ref.ID

	var values []byte
	if envID == 0 {
		t, err := client.AppTemplateGet(ctx, appID, refID)
		if err != nil {
			return err
		}
		values = t.DefaultAppOverride
	} else {
		t, err := client.EnvTemplateGet(ctx, appID, envID, refID)
		if err != nil {
			return err
		}
		if v.GetBool("diff") {
			diff, err := deploytemplate.Diff(t.GlobalConfig, deploytemplate.Effective(t))
			if err != nil {
				return err
			}
			fmt.Print(string(diff))
			return nil
		}
		values = deploytemplate.Effective(t)
	}

	y, err := deploytemplate.ToYAML(values)
	if err != nil {
		return err
	}
	fmt.Print(string(y))
	return nil
}

var templateApplyCmd = cli.Command{
	Name:  "apply",
	Short: "Override the values of an application on an environment",
	Long: `Override the values of an application on an environment with a YAML or JSON
merge patch: keys of the file replace the ones of the application and a null
value removes a key. The result is checked against the schema of the chart.`,
	Example: "shipctl template apply 12 --env 3 --values staging.yaml",
	Args:    []cli.Arg{appIDArg},
	Flags: []cli.Flag{
		envFlag,
		chartRefFlag,
		{
			Name:  "values",
			Usage: "YAML or JSON file of the override",
		},
		{
			Name:  "dry-run",
			Type:  cli.FlagBool,
			Usage: "Only display the values which would be deployed",
		},
	},
}

func templateApplyRun(v cli.Values) error {
	ctx := context.Background()
	appID, err := v.GetInt64(_AppID)
	if err != nil {
		return err
	}
	envID, err := v.GetInt64("env")
	if err != nil {
		return err
	}
	if envID == 0 {
		return cli.NewError("--env is mandatory")
	}
	if v.GetString("values") == "" {
		return cli.NewError("--values is mandatory")
	}
	override, err := os.ReadFile(v.GetString("values"))
	if err != nil {
		return sdk.WithStack(err)
	}
	ref, err := chartRef(ctx, v, appID)
	if err != nil {
		return err
	}

	if v.GetBool("dry-run") {
		current, err := client.EnvTemplateGet(ctx, appID, envID, ref.ID)
		if err != nil {
			return err
		}
		values, err := deploytemplate.Override(current.GlobalConfig, override)
		if err != nil {
			return err
		}
		if err := deploytemplate.Validate(deploytemplate.Schema(current), values); err != nil {
			return err
		}
		y, err := deploytemplate.ToYAML(values)
		if err != nil {
			return err
		}
		fmt.Print(string(y))
		return nil
	}

	res, err := deploytemplate.Apply(ctx, client, appID, envID, ref.ID, override)
	if err != nil {
		return err
	}
	fmt.Printf("Override of application %d saved on environment %d (chart ref %d)\n", appID, res.EnvironmentID, res.ChartRefID)
	return nil
}
