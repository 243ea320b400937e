package objectstore

import (
	"fmt"
	"regexp"
)

// urlPattern matches the canonical artifact URL layout:
// scheme://host/{bucket}/{key}. Buckets are alphanumeric plus hyphen,
// keys may contain slashes.
var urlPattern = regexp.MustCompile(`^https?://[^/]+/(?P<bucket>[a-zA-Z0-9-]+)/(?P<key>.+)$`)

// ErrMalformedURL is returned when an artifact URL does not match the
// canonical bucket/key layout. No store operation is attempted for such URLs.
var ErrMalformedURL = fmt.Errorf("malformed artifact url")

// ArtifactURL is the parsed bucket/key pair of a canonical artifact URL.
type ArtifactURL struct {
	Bucket string
	Key    string
}

// ParseURL extracts the bucket and key from an artifact URL.
func ParseURL(url string) (*ArtifactURL, error) {
	matches := urlPattern.FindStringSubmatch(url)
	if matches == nil {
		return nil, fmt.Errorf("%w: %q", ErrMalformedURL, url)
	}

	return &ArtifactURL{
		Bucket: matches[urlPattern.SubexpIndex("bucket")],
		Key:    matches[urlPattern.SubexpIndex("key")],
	}, nil
}

// FormatURL builds the canonical URL for an object under the given endpoint.
// The endpoint is host[:port] without a scheme.
func FormatURL(endpoint, bucket, key string) string {
	return fmt.Sprintf("http://%s/%s/%s", endpoint, bucket, key)
}
