package digest

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strconv"
	"strings"

	"github.com/1ilseok/briefit/internal/collector"
)

// Block 交给 summarizer 的一段文本，每个非空源一段
type Block struct {
	Source collector.Source
	Label  string
	Text   string
}

// Blocks 把 digest 渲染成 summarizer 的输入，顺序与分组一致
func Blocks(d *Digest) []Block {
	var out []Block
	for _, g := range d.Groups {
		if len(g.Items) == 0 {
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Source: %s\n", g.Source.Label())
		for i, it := range g.Items {
			fmt.Fprintf(&b, "\n%d. %s\n", i+1, it.Title)
			fmt.Fprintf(&b, "   URL: %s\n", it.URL)
			fmt.Fprintf(&b, "   Published: %s\n", it.PublishedAt.Format("2006-01-02"))
			if it.Score != nil {
				fmt.Fprintf(&b, "   Score: %.0f\n", *it.Score)
			}
			if it.Body != "" {
				fmt.Fprintf(&b, "   %s\n", it.Body)
			}
		}
		out = append(out, Block{Source: g.Source, Label: g.Source.Label(), Text: b.String()})
	}
	return out
}

// RenderInput HTML 渲染的全部输入，相同输入得到相同输出
type RenderInput struct {
	Digest    *Digest
	Subject   string
	Summaries map[collector.Source]string
	// Omit 里的源整组不展示（摘要失败且策略为 omit）
	Omit map[collector.Source]bool
}

type pageView struct {
	Subject   string
	Generated string
	Empty     bool
	Sections  []sectionView
	Failures  []string
}

type sectionView struct {
	Label   string
	Summary []string
	Items   []itemView
}

type itemView struct {
	Title string
	URL   string
	Meta  string
	Body  string
}

// Render 生成邮件正文
func Render(in RenderInput) (string, error) {
	if in.Digest == nil {
		return "", errors.New("render: nil digest")
	}

	view := pageView{
		Subject:   in.Subject,
		Generated: in.Digest.GeneratedAt.Format("2006-01-02 15:04 MST"),
		Empty:     in.Digest.IsEmpty(),
	}

	for _, g := range in.Digest.Groups {
		if g.Err != nil {
			view.Failures = append(view.Failures, failureText(g.Err))
			continue
		}
		if len(g.Items) == 0 || in.Omit[g.Source] {
			continue
		}

		intro, perItem := splitSummary(in.Summaries[g.Source])
		sec := sectionView{Label: g.Source.Label(), Summary: intro}
		for i, it := range g.Items {
			iv := itemView{Title: it.Title, URL: it.URL, Meta: itemMeta(it), Body: it.Body}
			// 摘要按编号对应条目，缺失时保留原始片段
			if s, ok := perItem[i+1]; ok {
				iv.Body = s
			}
			sec.Items = append(sec.Items, iv)
		}
		view.Sections = append(view.Sections, sec)
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return buf.String(), nil
}

func itemMeta(it collector.Item) string {
	meta := it.PublishedAt.Format("Jan 2")
	if it.Score != nil {
		meta += fmt.Sprintf(" · %.0f points", *it.Score)
	}
	return meta
}

func failureText(err *collector.SourceError) string {
	reason := "unavailable"
	if errors.Is(err, collector.ErrSourceAuthRequired) {
		reason = "authentication required"
	}
	return fmt.Sprintf("%s (%s)", err.Source.Label(), reason)
}

var numberedLineRe = regexp.MustCompile(`^(\d{1,2})[.)]\s+(.+)$`)

// splitSummary 把 "N. ..." 形式的行对应到第 N 条，其余非空行作为段落
func splitSummary(s string) ([]string, map[int]string) {
	var intro []string
	perItem := make(map[int]string)
	last := 0
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			last = 0
			continue
		}
		if m := numberedLineRe.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			perItem[n] = m[2]
			last = n
			continue
		}
		// 紧跟编号行的续行合并到该条
		if last > 0 {
			perItem[last] += " " + line
			continue
		}
		intro = append(intro, line)
	}
	return intro, perItem
}

var pageTmpl = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Subject}}</title>
</head>
<body style="font-family:-apple-system,Segoe UI,Helvetica,Arial,sans-serif;max-width:720px;margin:0 auto;padding:24px;color:#1f2328;">
<h1 style="font-size:22px;margin-bottom:4px;">{{.Subject}}</h1>
<p style="color:#656d76;margin-top:0;">Generated {{.Generated}}</p>
{{- if .Empty}}
<p>No new items this week.</p>
{{- end}}
{{- range .Sections}}
<h2 style="font-size:18px;border-bottom:1px solid #d0d7de;padding-bottom:4px;margin-top:28px;">{{.Label}}</h2>
{{- range .Summary}}
<p>{{.}}</p>
{{- end}}
<ul style="padding-left:20px;">
{{- range .Items}}
<li style="margin-bottom:8px;"><a href="{{.URL}}" style="color:#0969da;text-decoration:none;">{{.Title}}</a> <span style="color:#656d76;font-size:12px;">{{.Meta}}</span>
{{- if .Body}}<br><span style="font-size:13px;">{{.Body}}</span>{{end}}</li>
{{- end}}
</ul>
{{- end}}
{{- if .Failures}}
<p style="color:#9a6700;font-size:12px;margin-top:28px;">Unavailable this week: {{range $i, $f := .Failures}}{{if $i}}, {{end}}{{$f}}{{end}}</p>
{{- end}}
</body>
</html>
`))
