package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/shipyard-ci/shipctl/cli"
)

// set at build time with -ldflags "-X main.buildVersion=..."
var buildVersion string

var versionCmd = cli.Command{
	Name:  "version",
	Short: "Output the version of shipctl",
}

func version() *cobra.Command {
	return cli.NewCommand(versionCmd, versionRun, nil)
}

func versionString() string {
	v := buildVersion
	if v == "" {
		v = "snapshot"
	}
	return fmt.Sprintf("shipctl %s (%s/%s)", v, runtime.GOOS, runtime.GOARCH)
}

func versionRun(v cli.Values) error {
	fmt.Println(versionString())
	return nil
}
