package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "lowercases host and strips fragment and tracking params",
			raw:  "https://EX.com/a/?utm_source=x#y",
			want: "https://ex.com/a",
		},
		{
			name: "strips single trailing slash",
			raw:  "https://example.com/path/",
			want: "https://example.com/path",
		},
		{
			name: "keeps root slash",
			raw:  "https://example.com/",
			want: "https://example.com/",
		},
		{
			name: "no path",
			raw:  "https://example.com",
			want: "https://example.com",
		},
		{
			name: "keeps non-tracking params",
			raw:  "https://example.com/p?b=2&a=1&utm_medium=mail",
			want: "https://example.com/p?a=1&b=2",
		},
		{
			name: "removes every tracking param",
			raw:  "https://example.com/p?utm_source=s&utm_medium=m&utm_campaign=c&utm_term=t&utm_content=x",
			want: "https://example.com/p",
		},
		{
			name: "trims surrounding whitespace",
			raw:  "  https://example.com/x  ",
			want: "https://example.com/x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeURL_Idempotent(t *testing.T) {
	raws := []string{
		"https://EX.com/a/?utm_source=x#y",
		"https://example.com/p?b=2&a=1",
		"https://example.com/",
		"http://sub.Example.COM/deep/path/",
	}

	for _, raw := range raws {
		once, err := NormalizeURL(raw)
		require.NoError(t, err)

		twice, err := NormalizeURL(once)
		require.NoError(t, err)

		assert.Equal(t, once, twice)
	}
}

func TestNormalizeURL_Invalid(t *testing.T) {
	raws := []string{
		"",
		"not a url",
		"/relative/path",
		"example.com/no-scheme",
		"https://",
	}

	for _, raw := range raws {
		_, err := NormalizeURL(raw)
		assert.ErrorIs(t, err, ErrInvalidURL, "raw: %q", raw)
	}
}
