package service

import (
	"fmt"
	"net/url"
	"strings"
)

// trackingParams are stripped during normalization so links that differ only
// in campaign noise dedup to the same record.
var trackingParams = []string{
	"utm_source",
	"utm_medium",
	"utm_campaign",
	"utm_term",
	"utm_content",
}

// NormalizeURL canonicalizes a raw URL string: the fragment is dropped,
// tracking query parameters are removed, the host is lower-cased and a
// single trailing slash is stripped unless the path is exactly "/".
// The output doubles as the storage and dedup key, so the same input always
// yields the byte-identical result.
func NormalizeURL(raw string) (string, error) {
	const op = "service.NormalizeURL"

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, ErrInvalidURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("%s: %w: missing scheme or host", op, ErrInvalidURL)
	}

	u.Fragment = ""

	q := u.Query()
	for _, p := range trackingParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()

	u.Host = strings.ToLower(u.Host)

	if strings.HasSuffix(u.Path, "/") && u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), nil
}
