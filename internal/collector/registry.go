package collector

import "net/http"

// Options 构造默认 Fetcher 集合时可注入的依赖
type Options struct {
	GitHubToken string
	Renderer    PageRenderer
	Transport   http.RoundTripper
}

// DefaultFetchers 按固定顺序返回六个数据源的 Fetcher
func DefaultFetchers(opts Options) []Fetcher {
	return []Fetcher{
		&PlaywrightFetcher{Token: opts.GitHubToken, Transport: opts.Transport},
		&HackerNewsFetcher{Transport: opts.Transport},
		&TLDRFetcher{Transport: opts.Transport},
		&OpenAIBlogFetcher{Transport: opts.Transport},
		&AnthropicFetcher{Transport: opts.Transport},
		&MediumFetcher{Renderer: opts.Renderer},
	}
}
