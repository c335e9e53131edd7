package verify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// CheckResult is the outcome of one external check on a citation field.
type CheckResult struct {
	Field      string        `json:"field"`
	Target     string        `json:"target"`
	Reachable  bool          `json:"reachable"`
	StatusCode int           `json:"status_code,omitempty"`
	FinalURL   string        `json:"final_url,omitempty"`
	Latency    time.Duration `json:"latency"`
	Method     string        `json:"method,omitempty"`
	// Definitive separates "the resource does not exist" from "we could
	// not find out"; the two must never be conflated.
	Definitive bool   `json:"definitive"`
	Detail     string `json:"detail,omitempty"`
}

// HTTPChecker performs reachability checks with browser-like requests:
// HEAD first, then a ranged GET, then a plain GET as last resort. Some
// hosts reject HEAD or non-browser clients outright.
type HTTPChecker struct {
	client    *http.Client
	userAgent string
}

// NewHTTPChecker creates a checker with browser-like configuration.
func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
			TLSClientConfig:     &tls.Config{InsecureSkipVerify: false},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// DOI resolution regularly chains several redirects.
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects: %d", len(via))
			}
			if len(via) > 0 {
				req.Header = via[0].Header.Clone()
			}
			return nil
		},
	}

	return &HTTPChecker{
		client:    client,
		userAgent: getRandomUserAgent(),
	}
}

// Check probes the target URL and classifies the outcome.
func (c *HTTPChecker) Check(ctx context.Context, target string) CheckResult {
	start := time.Now()
	result := CheckResult{Target: target}

	if _, err := url.ParseRequestURI(target); err != nil {
		result.Definitive = true
		result.Detail = fmt.Sprintf("invalid URL: %v", err)
		result.Latency = time.Since(start)
		return result
	}

	type attempt struct {
		method string
		ranged bool
	}
	for _, a := range []attempt{{"HEAD", false}, {"GET", true}, {"GET", false}} {
		status, finalURL, err := c.perform(ctx, a.method, target, a.ranged)
		if err != nil {
			result.Detail = err.Error()
			continue
		}

		result.StatusCode = status
		result.FinalURL = finalURL
		result.Method = a.method
		if a.ranged {
			result.Method = "GET (Range)"
		}
		result.Latency = time.Since(start)
		classifyStatus(&result)

		// A definitive outcome ends the fallback chain; method-specific
		// rejections (405 and friends) are worth one more try.
		if result.Reachable || result.Definitive {
			return result
		}
	}

	result.Latency = time.Since(start)
	return result
}

func (c *HTTPChecker) perform(ctx context.Context, method, target string, ranged bool) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, http.NoBody)
	if err != nil {
		return 0, "", err
	}

	c.addBrowserHeaders(req)
	if ranged {
		req.Header.Set("Range", "bytes=0-1023")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	return resp.StatusCode, resp.Request.URL.String(), nil
}

// classifyStatus maps an HTTP status onto the verification semantics:
// 2xx/3xx reachable, 404/410 definitively absent, everything else
// inconclusive.
func classifyStatus(result *CheckResult) {
	switch {
	case result.StatusCode >= 200 && result.StatusCode < 400:
		result.Reachable = true
		result.Definitive = true
	case result.StatusCode == http.StatusNotFound || result.StatusCode == http.StatusGone:
		result.Reachable = false
		result.Definitive = true
		result.Detail = "resource not found"
	default:
		result.Reachable = false
		result.Definitive = false
		result.Detail = fmt.Sprintf("inconclusive status %d", result.StatusCode)
	}
}

func (c *HTTPChecker) addBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

// getRandomUserAgent rotates across realistic browser strings to avoid
// blanket bot blocking by publisher sites.
func getRandomUserAgent() string {
	userAgents := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	}
	return userAgents[int(time.Now().UnixNano())%len(userAgents)]
}
