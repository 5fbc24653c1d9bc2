package shipclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"

	"github.com/rockbears/log"

	"github.com/shipyard-ci/shipctl/sdk"
	shiplog "github.com/shipyard-ci/shipctl/sdk/log"
)

const (
	// TokenHeader carries the API token
	TokenHeader = "token"
	// RequestedWithHeader is used as HTTP header
	RequestedWithHeader = "X-Requested-With"
	// RequestedWithValue is used as HTTP header
	RequestedWithValue = "X-SHIPCTL-SDK"
)

// RequestModifier is used to modify behavior of Request and Steam functions
type RequestModifier func(req *http.Request)

// PostJSON post the *in* struct as json. If set, it unmarshalls the response result to *out*
func (c *client) PostJSON(ctx context.Context, path string, in interface{}, out interface{}, mods ...RequestModifier) (int, error) {
	_, code, err := c.RequestJSON(ctx, http.MethodPost, path, in, out, mods...)
	return code, err
}

// PutJSON put the *in* struct as json. If set, it unmarshalls the response result to *out*
func (c *client) PutJSON(ctx context.Context, path string, in interface{}, out interface{}, mods ...RequestModifier) (int, error) {
	_, code, err := c.RequestJSON(ctx, http.MethodPut, path, in, out, mods...)
	return code, err
}

// GetJSON get the requested path. If set, it unmarshalls the response result to *out*
func (c *client) GetJSON(ctx context.Context, path string, out interface{}, mods ...RequestModifier) (int, error) {
	_, code, err := c.RequestJSON(ctx, http.MethodGet, path, nil, out, mods...)
	return code, err
}

// RequestJSON does a request with the *in* struct as json. The response envelope is returned;
// if set and present, its result is unmarshalled to *out*
func (c *client) RequestJSON(ctx context.Context, method, path string, in interface{}, out interface{}, mods ...RequestModifier) (sdk.Envelope, int, error) {
	var env sdk.Envelope
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return env, 0, sdk.WithStack(err)
		}
		body = bytes.NewBuffer(b)
	}

	res, _, code, err := c.Request(ctx, method, path, body, mods...)
	if err != nil {
		return env, code, err
	}

	if len(bytes.TrimSpace(res)) == 0 {
		return env, code, nil
	}

	if err := json.Unmarshal(res, &env); err != nil {
		return env, code, sdk.WrapError(err, "unable to decode response of %s %s", method, path)
	}

	// some handlers answer 200 with an error code in the envelope
	if env.Code >= 400 {
		if apiErr := sdk.DecodeError(res); apiErr != nil {
			return env, env.Code, apiErr
		}
		return env, env.Code, &sdk.APIError{Code: env.Code, Status: env.Status}
	}

	if out != nil && env.HasResult() {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return env, code, sdk.WrapError(err, "unable to decode result of %s %s", method, path)
		}
	}

	return env, code, nil
}

// Request executes an authentificated HTTP request on $path given $method and $args
func (c *client) Request(ctx context.Context, method string, path string, body io.Reader, mods ...RequestModifier) ([]byte, http.Header, int, error) {
	respBody, respHeader, code, err := c.Stream(ctx, method, path, body, mods...)
	if err != nil {
		return nil, nil, code, err
	}
	defer func() {
		// Drain and close the body to let the Transport reuse the connection
		_, _ = io.Copy(io.Discard, respBody)
		respBody.Close()
	}()

	bodyBtes, err := io.ReadAll(respBody)
	if err != nil {
		return nil, nil, code, sdk.WithStack(err)
	}

	if c.config.Verbose && len(bodyBtes) > 0 {
		log.Debug(ctx, "Response Body: %s", bodyBtes)
	}

	if code >= 400 {
		if err := sdk.DecodeError(bodyBtes); err != nil {
			return bodyBtes, nil, code, err
		}
		return bodyBtes, nil, code, &sdk.APIError{Code: code, Status: http.StatusText(code)}
	}

	return bodyBtes, respHeader, code, nil
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// Stream makes an authenticated http request and return io.ReadCloser
func (c *client) Stream(ctx context.Context, method string, path string, body io.Reader, mods ...RequestModifier) (io.ReadCloser, http.Header, int, error) {
	var savederror error

	var bodyContent []byte
	var err error
	if body != nil {
		bodyContent, err = io.ReadAll(body)
		if err != nil {
			return nil, nil, 0, sdk.WithStack(err)
		}
	}

	url := c.config.Host + path
	if strings.HasPrefix(path, "http") {
		url = path
	}

	retry := c.config.Retry
	if !isIdempotent(method) {
		retry = 0
	}

	ctx = context.WithValue(ctx, shiplog.Method, method)
	ctx = context.WithValue(ctx, shiplog.RequestURI, path)

	for i := 0; i <= retry; i++ {
		if ctx.Err() != nil {
			return nil, nil, 0, ctx.Err()
		}

		req, requestError := http.NewRequestWithContext(ctx, method, url, bytes.NewBuffer(bodyContent))
		if requestError != nil {
			savederror = requestError
			continue
		}

		for i := range mods {
			if mods[i] != nil {
				mods[i](req)
			}
		}

		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}

		req.Header.Set("User-Agent", c.config.userAgent)
		req.Header.Add(RequestedWithHeader, RequestedWithValue)
		if c.config.Token != "" {
			req.Header.Set(TokenHeader, c.config.Token)
		}

		if c.config.Verbose {
			dmp, _ := httputil.DumpRequestOut(req, true)
			log.Debug(ctx, "********REQUEST**********\n%s", string(dmp))
		}

		start := time.Now()
		resp, errDo := c.httpClient.Do(req)

		if errDo == nil && c.config.Verbose {
			dmp, _ := httputil.DumpResponse(resp, false)
			ctx := context.WithValue(ctx, shiplog.Duration, time.Since(start).Milliseconds())
			ctx = context.WithValue(ctx, shiplog.StatusNum, resp.StatusCode)
			log.Debug(ctx, "********RESPONSE**********\n%s", string(dmp))
		}

		// if everything is fine, return body
		if errDo == nil && resp.StatusCode < 500 {
			return resp.Body, resp.Header, resp.StatusCode, nil
		}

		// if no request error by status >= 500, check the server errors
		// if there is an error envelope, return it
		if errDo == nil {
			b, errRead := io.ReadAll(resp.Body)
			resp.Body.Close()
			if errRead == nil {
				if apiErr := sdk.DecodeError(b); apiErr != nil {
					return nil, resp.Header, resp.StatusCode, apiErr
				}
			}
			savederror = &sdk.APIError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
			continue
		}

		if ctx.Err() != nil {
			return nil, nil, 0, ctx.Err()
		}

		if strings.Contains(errDo.Error(), "connection reset by peer") ||
			strings.Contains(errDo.Error(), "unexpected EOF") {
			savederror = errDo
			continue
		}

		return nil, nil, 0, sdk.WithStack(errDo)
	}

	if apiErr, ok := savederror.(*sdk.APIError); ok {
		return nil, nil, apiErr.Code, apiErr
	}
	return nil, nil, 0, fmt.Errorf("x%d: %v", retry, savederror)
}
