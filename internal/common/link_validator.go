package common

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrBlockedLinkDomain is returned when a link points at a blocked domain
var ErrBlockedLinkDomain = errors.New("링크 도메인이 차단되었습니다")

// ErrUnsupportedLinkScheme is returned for link URLs other than http(s)
var ErrUnsupportedLinkScheme = errors.New("http 또는 https 링크만 허용됩니다")

// URL pattern to extract links from HTML content
var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// hostBlocked reports whether host equals or is a subdomain of a blocked domain
func hostBlocked(host string, blockedDomains []string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, domain := range blockedDomains {
		domain = strings.ToLower(strings.TrimPrefix(domain, "."))
		if domain == "" {
			continue
		}
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// ValidateLinkURL validates a call-to-action URL
//
// Parameters:
//   - raw: absolute link URL
//   - blockedDomains: domains (and their subdomains) that may not be linked
func ValidateLinkURL(raw string, blockedDomains []string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ErrUnsupportedLinkScheme
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return ErrUnsupportedLinkScheme
	}

	if hostBlocked(u.Hostname(), blockedDomains) {
		return ErrBlockedLinkDomain
	}
	return nil
}

// ContainsBlockedLink checks if HTML content links to any blocked domain
func ContainsBlockedLink(content string, blockedDomains []string) bool {
	if len(blockedDomains) == 0 {
		return false
	}
	for _, raw := range urlPattern.FindAllString(content, -1) {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		if hostBlocked(u.Hostname(), blockedDomains) {
			return true
		}
	}
	return false
}
