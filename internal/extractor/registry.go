package extractor

import (
	"fmt"
	"net/url"
	"strings"
)

// Platform is a supported source site
type Platform string

const (
	PlatformInstagram Platform = "Instagram"
	PlatformYouTube   Platform = "YouTube"
	PlatformFacebook  Platform = "Facebook"
	PlatformLoom      Platform = "Loom"
)

// site binds a platform to the root domains it is served from
type site struct {
	platform Platform
	domains  []string
}

// sites is checked in order; the first match wins
var sites = []site{
	{platform: PlatformInstagram, domains: []string{"instagram.com"}},
	{platform: PlatformYouTube, domains: []string{"youtube.com", "youtu.be"}},
	{platform: PlatformFacebook, domains: []string{"facebook.com", "fb.watch"}},
	{platform: PlatformLoom, domains: []string{"loom.com"}},
}

// UnsupportedURLError is returned when a URL is malformed or its host
// belongs to none of the supported platforms
type UnsupportedURLError struct {
	URL string
}

func (e *UnsupportedURLError) Error() string {
	return fmt.Sprintf("unsupported URL %q, supported platforms: %s", e.URL, SupportedList())
}

// parseWebURL parses an http(s) URL and returns it with its lower-cased,
// port-stripped host
func parseWebURL(rawURL string) (*url.URL, string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, "", false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, "", false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, "", false
	}
	return u, host, true
}

// HostMatches reports whether host is rootDomain or one of its subdomains
func HostMatches(host, rootDomain string) bool {
	return host == rootDomain || strings.HasSuffix(host, "."+rootDomain)
}

// Match finds the platform serving a URL
func Match(rawURL string) (Platform, bool) {
	_, host, ok := parseWebURL(rawURL)
	if !ok {
		return "", false
	}

	for _, s := range sites {
		for _, domain := range s.domains {
			if HostMatches(host, domain) {
				return s.platform, true
			}
		}
	}
	return "", false
}

// Classify is Match with an error for unsupported URLs
func Classify(rawURL string) (Platform, error) {
	p, ok := Match(rawURL)
	if !ok {
		return "", &UnsupportedURLError{URL: rawURL}
	}
	return p, nil
}

// List returns the supported platforms in match order
func List() []Platform {
	result := make([]Platform, 0, len(sites))
	for _, s := range sites {
		result = append(result, s.platform)
	}
	return result
}

// Domains returns the root domains registered for a platform
func Domains(p Platform) []string {
	for _, s := range sites {
		if s.platform == p {
			return append([]string(nil), s.domains...)
		}
	}
	return nil
}

// SupportedList renders the platform names for user-facing messages
func SupportedList() string {
	names := make([]string, 0, len(sites))
	for _, p := range List() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}
