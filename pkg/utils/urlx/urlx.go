// The urlx package normalizes mint URLs for matching, filtering and
// aggregation. Mint URLs in the wild come with and without scheme,
// trailing slashes and www prefixes; all comparisons go through Normalize.
package urlx

import (
	"regexp"
	"strings"
)

var onionRegexp = regexp.MustCompile(`\.onion(:\d+)?(/|$)`)

// StripScheme removes a leading http:// or https:// prefix.
func StripScheme(url string) string {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")
	return url
}

// Normalize lowercases the URL and strips scheme and trailing slashes.
func Normalize(url string) string {
	url = strings.ToLower(strings.TrimSpace(url))
	url = StripScheme(url)
	return strings.TrimRight(url, "/")
}

// Domain returns the host part of a URL: the text before the first "/"
// after normalization.
func Domain(url string) string {
	normalized := Normalize(url)
	if i := strings.Index(normalized, "/"); i >= 0 {
		return normalized[:i]
	}
	return normalized
}

// StripWWW removes a leading "www." from a domain.
func StripWWW(domain string) string {
	return strings.TrimPrefix(domain, "www.")
}

// Variants returns the URL spellings used in the legacy "#u" subscription
// filter: exact, without and with trailing slash, without scheme, and
// re-prefixed with https:// and http://.
func Variants(url string) []string {
	bare := StripScheme(url)
	return []string{
		url,
		strings.TrimRight(url, "/"),
		url + "/",
		bare,
		"https://" + bare,
		"http://" + bare,
	}
}

// DisplayName derives a short mint name from the URL. "mint.foo.com"
// becomes "Foo", plain domains keep their first label.
func DisplayName(url string) string {
	domain := Domain(url)
	name := domain

	if i := strings.Index(domain, "."); i >= 0 {
		name = domain[:i]
	}

	// "mint.example.com" should surface "example", not "mint"
	if name == "mint" {
		parts := strings.Split(domain, ".")
		if len(parts) > 1 {
			name = parts[1]
		}
	}

	if name == "" {
		return domain
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// IsOnion reports whether the URL points to a Tor hidden service.
// Onion mints cannot be reached over clearnet, so their /v1/info is
// never fetched.
func IsOnion(url string) bool {
	return onionRegexp.MatchString(strings.ToLower(url))
}
