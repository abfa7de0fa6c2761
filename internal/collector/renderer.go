package collector

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const (
	mediumCookieDomain = ".medium.com"
	defaultRenderWait  = 4 * time.Second
)

// RenderedPage 一个页面的渲染结果，单页失败不影响其它页面
type RenderedPage struct {
	URL  string
	HTML string
	Err  error
}

// PageRenderer 用带登录 cookie 的无头浏览器渲染页面。
// pageTimeout 限制单个页面，ctx 限制整个 Render
type PageRenderer interface {
	Render(ctx context.Context, session string, urls []string, pageTimeout time.Duration) ([]RenderedPage, error)
}

// ChromeRenderer 基于 chromedp，整个 Render 调用复用一个 headless 实例
type ChromeRenderer struct {
	ExecPath string        // 为空时自动查找本机 Chrome
	Wait     time.Duration // 等待前端脚本渲染列表
}

func (r *ChromeRenderer) Render(ctx context.Context, session string, urls []string, pageTimeout time.Duration) ([]RenderedPage, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(browserAgent),
		chromedp.WindowSize(1280, 2000),
	)
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// 浏览器启动失败视为整个源不可用
	setCookie := chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookie("sid", session).
			WithDomain(mediumCookieDomain).
			WithPath("/").
			WithSecure(true).
			WithHTTPOnly(true).
			Do(ctx)
	})
	if err := chromedp.Run(browserCtx, setCookie); err != nil {
		return nil, err
	}

	wait := r.Wait
	if wait <= 0 {
		wait = defaultRenderWait
	}

	pages := make([]RenderedPage, 0, len(urls))
	for _, u := range urls {
		html, err := renderPage(browserCtx, u, wait, pageTimeout)
		pages = append(pages, RenderedPage{URL: u, HTML: html, Err: err})
	}
	return pages, nil
}

func renderPage(browserCtx context.Context, u string, wait, timeout time.Duration) (string, error) {
	ctx := browserCtx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(browserCtx, timeout)
		defer cancel()
	}
	var html string
	err := chromedp.Run(ctx,
		chromedp.Navigate(u),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(wait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}
