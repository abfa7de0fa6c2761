package collector

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
)

func TestRestClientDecodesCompressedBodies(t *testing.T) {
	const payload = `{"ok": true}`

	tests := []struct {
		name     string
		encoding string
		encode   func([]byte) []byte
	}{
		{"brotli", "br", func(b []byte) []byte {
			var buf bytes.Buffer
			w := brotli.NewWriter(&buf)
			_, _ = w.Write(b)
			_ = w.Close()
			return buf.Bytes()
		}},
		{"gzip", "gzip", func(b []byte) []byte {
			var buf bytes.Buffer
			w := gzip.NewWriter(&buf)
			_, _ = w.Write(b)
			_ = w.Close()
			return buf.Bytes()
		}},
		{"identity", "", func(b []byte) []byte { return b }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var accept string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				accept = r.Header.Get("Accept-Encoding")
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				_, _ = w.Write(tt.encode([]byte(payload)))
			}))
			defer srv.Close()

			resp, err := newRestClient(nil, 5*time.Second).R().Get(srv.URL)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if accept != "br, gzip" {
				t.Fatalf("Accept-Encoding = %q", accept)
			}
			if resp.String() != payload {
				t.Fatalf("body = %q, want %q", resp.String(), payload)
			}
		})
	}
}

func TestStripQueryAndResolve(t *testing.T) {
	if got := stripQuery("https://example.com/a?utm_source=tldr#top"); got != "https://example.com/a" {
		t.Fatalf("stripQuery = %q", got)
	}
	if got := resolveURL("https://medium.com", "/@a/post-1?source=x"); got != "https://medium.com/@a/post-1?source=x" {
		t.Fatalf("resolveURL = %q", got)
	}
	if got := hostOf("http://127.0.0.1:8080/tech"); got != "127.0.0.1" {
		t.Fatalf("hostOf = %q", got)
	}
}
