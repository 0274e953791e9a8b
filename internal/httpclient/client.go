package httpclient

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/identity-leak/internal/config"
)

// HclogAdapter adapts an hclog.Logger to the resty.Logger interface.
type HclogAdapter struct {
	logger hclog.Logger
}

// NewHclogAdapter creates a new adapter that will forward messages to a hclog.Logger.
func NewHclogAdapter(logger hclog.Logger) resty.Logger {
	return &HclogAdapter{logger: logger}
}

// Errorf logs a message at error level.
func (a *HclogAdapter) Errorf(format string, v ...interface{}) {
	a.logger.Error(fmt.Sprintf(format, v...))
}

// Warnf logs a message at warning level.
func (a *HclogAdapter) Warnf(format string, v ...interface{}) {
	a.logger.Warn(fmt.Sprintf(format, v...))
}

// Infof logs a message at info level.
func (a *HclogAdapter) Infof(format string, v ...interface{}) {
	a.logger.Info(fmt.Sprintf(format, v...))
}

// Debugf logs a message at debug level.
func (a *HclogAdapter) Debugf(format string, v ...interface{}) {
	a.logger.Debug(fmt.Sprintf(format, v...))
}

// InitializeRestyClient initializes and configures a resty client based on the provided configuration.
// Requests are retried on transport errors, 429 and 5xx responses.
func InitializeRestyClient(logger hclog.Logger, cfg *config.Config) *resty.Client {
	client := resty.New()
	if logger != nil {
		client.SetLogger(NewHclogAdapter(logger))
	}

	restyConfig := ApplyHTTPClientConfig(cfg)
	client.
		SetDebug(restyConfig.Debug).
		SetRetryCount(restyConfig.RetryCount).
		SetRetryWaitTime(restyConfig.RetryWaitTime).
		SetRetryMaxWaitTime(restyConfig.RetryMaxWaitTime).
		SetTimeout(restyConfig.Timeout).
		SetTLSClientConfig(restyConfig.TLSClientConfig).
		SetHeader("User-Agent", config.GetUserAgent(cfg)).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})
	if restyConfig.Proxy != "" {
		client.SetProxy(restyConfig.Proxy)
	}

	return client
}

// NewHTTPClient returns a plain *http.Client with the same TLS, proxy and timeout settings,
// for API SDKs that bring their own request handling.
func NewHTTPClient(cfg *config.Config) *http.Client {
	restyConfig := ApplyHTTPClientConfig(cfg)
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = restyConfig.TLSClientConfig
	if restyConfig.Proxy != "" {
		if proxy, err := url.Parse(restyConfig.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(proxy)
		}
	}
	return &http.Client{Transport: transport, Timeout: restyConfig.Timeout}
}

// ApplyHTTPClientConfig applies the HTTPClient configuration or uses default values.
func ApplyHTTPClientConfig(cfg *config.Config) config.RestyHTTPClientConfig {
	defaults := config.DefaultRestyConfig()
	if cfg == nil {
		return defaults
	}
	httpConfig := &cfg.HTTPClient

	var out config.RestyHTTPClientConfig
	out.Debug = config.GetBoolValue(httpConfig, "Debug", defaults.Debug)
	out.RetryCount = config.SetThen(httpConfig.RetryCount, defaults.RetryCount)
	out.RetryWaitTime = config.SetThen(httpConfig.RetryWaitTime, defaults.RetryWaitTime)
	out.RetryMaxWaitTime = config.SetThen(httpConfig.RetryMaxWaitTime, defaults.RetryMaxWaitTime)
	out.Timeout = config.SetThen(httpConfig.Timeout, defaults.Timeout)
	out.TLSClientConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !config.GetBoolValue(httpConfig.TLSClientConfig, "Verify", true),
	}

	if httpConfig.Proxy.Host != "" && httpConfig.Proxy.Port != 0 {
		out.Proxy = fmt.Sprintf("%s:%d", httpConfig.Proxy.Host, httpConfig.Proxy.Port)
	}
	return out
}
