package apiversion

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Current is the only API version this build serves.
const Current = "v1"

// Supported lists every version this build accepts on versioned routes.
var Supported = []string{Current}

var versionSegmentPattern = regexp.MustCompile(`^v[0-9]+$`)

// IsSupported reports whether version is one this build knows how to
// serve.
func IsSupported(version string) bool {
	for _, supported := range Supported {
		if supported == version {
			return true
		}
	}
	return false
}

// SupportedVersions returns a defensive copy of Supported, for embedding
// in error responses.
func SupportedVersions() []string {
	return append([]string(nil), Supported...)
}

// NormalizeBaseURL ensures baseURL ends in a version segment, so CLI
// users can configure either "http://host:port" or
// "http://host:port/api" and land on the same routes.
func NormalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return baseURL
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" {
		return appendVersionIfMissing(baseURL)
	}

	lastSegment := path.Base(parsed.Path)
	if lastSegment == "." || lastSegment == "/" {
		lastSegment = ""
	}

	if lastSegment == "" {
		parsed.Path = "/" + Current
		return parsed.String()
	}

	if versionSegmentPattern.MatchString(lastSegment) {
		return parsed.String()
	}

	if lastSegment == "api" {
		parsed.Path = path.Join(path.Dir(parsed.Path), Current)
		return parsed.String()
	}

	parsed.Path = path.Join(parsed.Path, Current)
	return parsed.String()
}

// appendVersionIfMissing handles the case where baseURL didn't parse as
// an absolute URL (e.g. a bare host:port with no scheme).
func appendVersionIfMissing(baseURL string) string {
	trimmed := strings.TrimRight(baseURL, "/")
	if trimmed == "" {
		return baseURL
	}

	parts := strings.Split(trimmed, "/")
	lastSegment := parts[len(parts)-1]
	if versionSegmentPattern.MatchString(lastSegment) {
		return trimmed
	}

	if lastSegment == "api" {
		parts[len(parts)-1] = Current
		return strings.Join(parts, "/")
	}

	return trimmed + "/" + Current
}
