// Package adapters holds the live HTTP clients for the upstream developer
// stat sources.
package adapters

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"github.com/xthxr/DevAura/internal/resilience"
)

const userAgent = "DevAura/1.0"

func newClient(baseURL string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent)
}

// checkResponse turns transport failures and non-2xx replies into errors.
// Status failures carry a resilience.HTTPError so the retry policy can
// classify them.
func checkResponse(resp *resty.Response, err error, what string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: %w", what, resilience.NewHTTPError(resp.StatusCode(), resp.Status()))
	}
	return nil
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, resilience.NewHTTPError(404, "404 Not Found"))
}
