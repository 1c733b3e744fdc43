package acquire

import (
	"fmt"
	"math/rand/v2"
)

// Fingerprint is the client-identity profile presented on one download
// attempt. Rotated per attempt to reduce correlated blocking.
type Fingerprint struct {
	UserAgent string
	Headers   map[string]string
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:133.0) Gecko/20100101 Firefox/133.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36 Edg/132.0.0.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 18_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.1 Mobile/15E148 Safari/604.1",
}

var acceptLanguages = []string{
	"en-US,en;q=0.9",
	"en-US,en;q=0.9,es;q=0.8",
	"en-US,en;q=0.9,fr;q=0.8",
	"en-US,en;q=0.9,de;q=0.8",
	"en-US,en;q=0.9,ja;q=0.8",
}

// randomFingerprint builds a randomized but plausible browser identity.
func randomFingerprint() Fingerprint {
	headers := map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language":           acceptLanguages[rand.IntN(len(acceptLanguages))],
		"Accept-Encoding":           "gzip, deflate, br",
		"DNT":                       pick("1", "0"),
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            pick("none", "same-origin", "cross-site"),
		"Cache-Control":             pick("max-age=0", "no-cache"),
		"sec-ch-ua-platform":        fmt.Sprintf("%q", pick("Windows", "macOS", "Linux")),
	}

	// Optional headers appear on roughly half the attempts
	if rand.Float64() > 0.5 {
		headers["Referer"] = "https://www.youtube.com/"
	}
	if rand.Float64() > 0.5 {
		headers["sec-ch-prefers-color-scheme"] = pick("light", "dark")
	}

	return Fingerprint{
		UserAgent: userAgents[rand.IntN(len(userAgents))],
		Headers:   headers,
	}
}

func pick(options ...string) string {
	return options[rand.IntN(len(options))]
}
