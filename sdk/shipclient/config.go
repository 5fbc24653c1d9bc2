package shipclient

import "time"

// Config is the configuration data used by the shipclient interface implementation
type Config struct {
	Host                  string
	Token                 string
	Verbose               bool
	Retry                 int // retries of idempotent requests, 0 disables them
	InsecureSkipVerifyTLS bool
	RequestTimeout        time.Duration
	userAgent             string
}

// DefaultRetry is the number of retries of idempotent requests when not configured by the user.
const DefaultRetry = 2
