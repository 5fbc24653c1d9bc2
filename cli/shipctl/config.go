package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/shipyard-ci/shipctl/cli"
	"github.com/shipyard-ci/shipctl/sdk/shipclient"
)

const configFileName = ".shiprc"

type config struct {
	Host                  string        `mapstructure:"api_url"`
	Token                 string        `mapstructure:"token"`
	UIURL                 string        `mapstructure:"ui_url"`
	InsecureSkipVerifyTLS bool          `mapstructure:"insecure"`
	Verbose               bool          `mapstructure:"verbose"`
	Retry                 int           `mapstructure:"http_max_retry"`
	RequestTimeout        time.Duration `mapstructure:"request_timeout"`
	LogLevel              string        `mapstructure:"log_level"`
	LogFormat             string        `mapstructure:"log_format"`
	BulkConcurrency       int           `mapstructure:"bulk_concurrency"`
	File                  string        `mapstructure:"-"`
}

var defaultConfig = config{
	RequestTimeout:  60 * time.Second,
	LogLevel:        "warning",
	LogFormat:       "text",
	BulkConcurrency: 8,
}

var configKeys = []string{
	"api_url", "token", "ui_url", "insecure", "verbose", "http_max_retry",
	"request_timeout", "log_level", "log_format", "bulk_concurrency",
}

// loadConfig merges, by decreasing priority, the flags, the SHIP_* environment
// variables, the configuration file and the defaults.
func loadConfig(configFile string, flags *pflag.FlagSet) (*config, error) {
	v := viper.New()
	v.SetEnvPrefix("ship")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	// set through viper so that an explicit 0 disables the retries
	v.SetDefault("http_max_retry", shipclient.DefaultRetry)
	for _, k := range configKeys {
		_ = v.BindEnv(k)
	}

	if flags != nil {
		for key, name := range map[string]string{"insecure": "insecure", "verbose": "verbose", "log_level": "log-level"} {
			if f := flags.Lookup(name); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	v.SetConfigType("toml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configFileName)
		if dir, err := os.Getwd(); err == nil {
			v.AddConfigPath(dir)
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	c := &config{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrapf(err, "unable to read configuration")
		}
	} else {
		c.File = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(c); err != nil {
		return nil, errors.Wrapf(err, "unable to decode configuration")
	}
	if err := mergo.Merge(c, defaultConfig); err != nil {
		return nil, errors.WithStack(err)
	}
	if c.Verbose {
		c.LogLevel = "debug"
	}

	if c.Host == "" {
		return c, cli.NewError("unable to load configuration: set SHIP_API_URL or api_url in %s", filepath.Join("~", configFileName))
	}
	return c, nil
}

func (c *config) clientConfig() shipclient.Config {
	return shipclient.Config{
		Host:                  c.Host,
		Token:                 c.Token,
		Verbose:               c.Verbose,
		Retry:                 c.Retry,
		InsecureSkipVerifyTLS: c.InsecureSkipVerifyTLS,
		RequestTimeout:        c.RequestTimeout,
	}
}

// uiURL returns the web page of the given path, falling back to the API host.
func (c *config) uiURL(path string) string {
	base := c.UIURL
	if base == "" {
		base = c.Host
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}

var configCmd = cli.Command{
	Name:  "config",
	Short: "Show the configuration in use",
}

func configCommand() *cobra.Command {
	return cli.NewGetCommand(configCmd, configRun, nil)
}

type configView struct {
	File            string `cli:"file"`
	Host            string `cli:"api_url,key"`
	UIURL           string `cli:"ui_url"`
	Token           string `cli:"token"`
	Insecure        bool   `cli:"insecure"`
	Retry           int    `cli:"http_max_retry"`
	RequestTimeout  string `cli:"request_timeout"`
	LogLevel        string `cli:"log_level"`
	BulkConcurrency int    `cli:"bulk_concurrency"`
}

func maskToken(t string) string {
	if len(t) <= 4 {
		return strings.Repeat("*", len(t))
	}
	return strings.Repeat("*", len(t)-4) + t[len(t)-4:]
}

func configRun(v cli.Values) (cli.GetResult, error) {
	if cfg == nil {
		return nil, cli.NewError("no configuration loaded")
	}
	return configView{
		File:            cfg.File,
		Host:            cfg.Host,
		UIURL:           cfg.uiURL(""),
		Token:           maskToken(cfg.Token),
		Insecure:        cfg.InsecureSkipVerifyTLS,
		Retry:           cfg.Retry,
		RequestTimeout:  cfg.RequestTimeout.String(),
		LogLevel:        cfg.LogLevel,
		BulkConcurrency: cfg.BulkConcurrency,
	}, nil
}
