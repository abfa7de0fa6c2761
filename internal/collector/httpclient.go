package collector

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/go-resty/resty/v2"
)

const (
	userAgent       = "BriefitBot/1.0 (+weekly digest)"
	browserAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxResponseSize = 4 << 20 // 4MB，防止超大响应
)

// brotliTransport 声明支持 br 与 gzip 并负责解压
type brotliTransport struct {
	next http.RoundTripper
}

func newBrotliTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &brotliTransport{next: next}
}

func (t *brotliTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", "br, gzip")
	}
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch enc {
	case "br":
		resp.Body = &brotliBody{Reader: brotli.NewReader(resp.Body), closer: resp.Body}
	case "gzip":
		// 手动设置 Accept-Encoding 后 net/http 不再自动解压
		gz, err := newGzipBody(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, err
		}
		resp.Body = gz
	default:
		return resp, nil
	}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

type gzipBody struct {
	*gzip.Reader
	closer io.Closer
}

func newGzipBody(body io.ReadCloser) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(body)
	if err != nil {
		return nil, err
	}
	return &gzipBody{Reader: zr, closer: body}, nil
}

func (g *gzipBody) Close() error {
	_ = g.Reader.Close()
	return g.closer.Close()
}

type brotliBody struct {
	io.Reader
	closer io.Closer
}

func (b *brotliBody) Close() error { return b.closer.Close() }

// ctxTransport 把运行级的 ctx 绑定到每个请求上，colly 没有 ctx 参数
type ctxTransport struct {
	ctx  context.Context
	next http.RoundTripper
}

func (t *ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.next.RoundTrip(req.WithContext(t.ctx))
}

func newRestClient(transport http.RoundTripper, timeout time.Duration) *resty.Client {
	client := resty.NewWithClient(&http.Client{Transport: newBrotliTransport(transport)})
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", userAgent)
	client.SetResponseBodyLimit(maxResponseSize)
	return client
}

// hostOf 用于 colly.AllowedDomains，测试时 baseURL 指向 httptest
func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// stripQuery 去掉跟踪参数，例如 utm_source
func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func resolveURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}
