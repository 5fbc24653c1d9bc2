package shipclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
)

type client struct {
	httpClient *http.Client
	config     Config
}

// NewHTTPClient returns a new HTTP Client
func NewHTTPClient(timeout time.Duration, insecureSkipVerifyTLS bool) *http.Client {
	transport := http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 0 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: insecureSkipVerifyTLS}, // nolint
	}

	if timeout == 0 {
		transport.IdleConnTimeout = 0
		transport.ResponseHeaderTimeout = 0
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: &transport,
	}
}

// New returns a client from a config struct
func New(c Config) Interface {
	cli := new(client)
	cli.config = c
	cli.config.Host = strings.TrimSuffix(c.Host, "/")
	if cli.config.RequestTimeout == 0 {
		cli.config.RequestTimeout = 60 * time.Second
	}
	if cli.config.Retry < 0 {
		cli.config.Retry = 0
	}
	cli.httpClient = NewHTTPClient(cli.config.RequestTimeout, c.InsecureSkipVerifyTLS)
	cli.init()
	return cli
}

func (c *client) init() {
	if os.Getenv("SHIP_VERBOSE") == "true" {
		c.config.Verbose = true
	}
	if c.config.userAgent == "" {
		c.config.userAgent = "shipctl"
	}
}

func (c *client) APIURL() string {
	return c.config.Host
}

func (c *client) HTTPClient() *http.Client {
	return c.httpClient
}
