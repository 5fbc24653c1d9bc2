package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shipyard-ci/shipctl/cli"
	shiplog "github.com/shipyard-ci/shipctl/sdk/log"
	"github.com/shipyard-ci/shipctl/sdk/shipclient"
)

var (
	cfg    *config
	client shipclient.Interface
	root   *cobra.Command
)

func main() {
	root = rootFromSubCommands([]*cobra.Command{
		workflow(),
		ci(),
		cd(),
		bulk(),
		template(),
		configCommand(),
		version(),
	})
	if err := root.Execute(); err != nil {
		cli.ExitOnError(err)
	}
}

func rootFromSubCommands(cmds []*cobra.Command) *cobra.Command {
	root := cli.NewCommand(mainCmd, nil, cmds)

	root.PersistentFlags().StringP("file", "f", "", "set configuration file")
	root.PersistentFlags().BoolP("no-interactive", "n", false, "Set to disable interaction with ctl")
	root.PersistentFlags().BoolP("verbose", "", false, "Enable verbose output")
	root.PersistentFlags().BoolP("insecure", "", false, `(SSL) This option explicitly allows curl to perform "insecure" SSL connections and transfers.`)
	root.PersistentFlags().StringP("log-level", "", "", "Log level: debug|info|warning|error")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		configFile, _ := cmd.Flags().GetString("file")
		var err error
		cfg, err = loadConfig(configFile, cmd.Flags())
		if cfg != nil {
			shiplog.Initialize(context.Background(), &shiplog.Conf{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})
		}
		if err == nil {
			client = shipclient.Instrument(shipclient.New(cfg.clientConfig()))
		}

		if cmd.Name() == "version" || cmd.Name() == "config" || strings.HasPrefix(cmd.Use, "help") || (cmd.Run == nil && cmd.RunE == nil) {
			return
		}

		cli.ExitOnError(err, root.Help)
	}

	return root
}

var mainCmd = cli.Command{
	Name:  "shipctl",
	Short: "Shipyard command line utility",
	Long: `

## Configuration

shipctl reads its configuration from the environment, then from a TOML file named
` + "`.shiprc`" + ` in the current directory or in your home directory:

	api_url = "https://shipyard.example.com"
	token = "your-api-token"
	ui_url = "https://shipyard.example.com"

You can also use environment variables:

	SHIP_API_URL="https://shipyard.example.com" SHIP_TOKEN="your-api-token" shipctl [command]

Want to debug something? You can use ` + "`SHIP_VERBOSE`" + ` environment variable.

	SHIP_VERBOSE=true shipctl [command]

If you're using a self-signed certificate on the API, you probably want to use ` + "`SHIP_INSECURE`" + ` variable.

	SHIP_INSECURE=true shipctl [command]

You can define a maximum number of retries for idempotent HTTP calls:

	SHIP_HTTP_MAX_RETRY=10 shipctl [command]
`,
}
