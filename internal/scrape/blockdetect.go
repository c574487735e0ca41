package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of anti-bot block detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// shellMaxBytes bounds the body size treated as a script-only shell.
const shellMaxBytes = 2000

var (
	cloudflareMarkers = []string{"checking your browser", "cf-browser-verification", "just a moment..."}
	captchaMarkers    = []string{"g-recaptcha", "h-captcha", "hcaptcha.com", "captcha-container"}
)

// DetectBlock checks an HTTP response for anti-bot protection or a page
// that only renders with JavaScript, as link-in-bio builders often do.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return true, BlockCloudflare
		}
	}

	lower := strings.ToLower(string(body))
	if containsAny(lower, cloudflareMarkers) {
		return true, BlockCloudflare
	}
	if containsAny(lower, captchaMarkers) {
		return true, BlockCaptcha
	}

	if len(body) < shellMaxBytes {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, BlockJSShell
		}
		if strings.Contains(lower, `http-equiv="refresh"`) {
			return true, BlockJSShell
		}
	}
	if strings.Contains(lower, `<div id="__next"></div>`) || strings.Contains(lower, `<div id="root"></div>`) {
		return true, BlockJSShell
	}
	return false, BlockNone
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
