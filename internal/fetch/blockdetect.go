package fetch

import (
	"net/http"
	"strings"
)

// BlockKind names the anti-bot mechanism that rejected a fetch.
type BlockKind string

const (
	BlockNone       BlockKind = ""
	BlockCloudflare BlockKind = "cloudflare"
	BlockCaptcha    BlockKind = "captcha"
	BlockRateLimit  BlockKind = "rate_limit"
	BlockJSShell    BlockKind = "js_shell"
)

// DetectBlock checks a response for signs that the retailer served an
// anti-bot interstitial instead of the product page.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockKind) {
	if resp == nil {
		return false, BlockNone
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return true, BlockRateLimit
	}

	// Cloudflare fronting: 403/503 with cf-* headers.
	if resp.StatusCode == 403 || resp.StatusCode == 503 {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-cache-status") != "" {
			return true, BlockCloudflare
		}
		if resp.Header.Get("server") == "cloudflare" {
			return true, BlockCloudflare
		}
	}

	lower := strings.ToLower(string(body))

	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") ||
		(strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge")) {
		return true, BlockCloudflare
	}

	if strings.Contains(lower, "captcha") ||
		strings.Contains(lower, "recaptcha") ||
		strings.Contains(lower, "hcaptcha") {
		return true, BlockCaptcha
	}

	// JS-only shell: a tiny body that tells the browser to render or
	// redirect carries no price data worth pattern matching.
	if len(body) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, BlockJSShell
		}
		if strings.Contains(lower, "meta http-equiv=\"refresh\"") {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}
