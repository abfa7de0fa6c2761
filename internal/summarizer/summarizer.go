package summarizer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/1ilseok/briefit/internal/collector"
	"github.com/1ilseok/briefit/internal/digest"
	"github.com/1ilseok/briefit/internal/logger"
	"github.com/microcosm-cc/bluemonday"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
)

// ErrSummarizationFailed 摘要失败，由调用方按降级策略处理
var ErrSummarizationFailed = errors.New("summarization failed")

const (
	defaultMaxTokens   = 4000
	defaultTemperature = 0.7
	concurrency        = 3
)

// Summarizer 输入一个源的文本块，输出压缩后的纯文本
type Summarizer interface {
	Summarize(ctx context.Context, block digest.Block) (string, error)
}

type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Language   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// OpenAISummarizer 调用 chat completions，每个源单独请求
type OpenAISummarizer struct {
	client   *openai.Client
	model    string
	language string
	timeout  time.Duration
	strip    *bluemonday.Policy
}

func NewOpenAI(cfg Config) *OpenAISummarizer {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	lang := cfg.Language
	if lang == "" {
		lang = "English"
	}
	return &OpenAISummarizer{
		client:   openai.NewClientWithConfig(oc),
		model:    model,
		language: lang,
		timeout:  cfg.Timeout,
		strip:    bluemonday.StrictPolicy(),
	}
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, block digest.Block) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(s.language)},
			{Role: openai.ChatMessageRoleUser, Content: block.Text},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: %s: openai status %d: %s", ErrSummarizationFailed, block.Source, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrSummarizationFailed, block.Source, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s: empty response", ErrSummarizationFailed, block.Source)
	}

	// 要求的是纯文本，模型偶尔仍会带标签
	text := html.UnescapeString(s.strip.Sanitize(resp.Choices[0].Message.Content))
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %s: empty summary", ErrSummarizationFailed, block.Source)
	}
	return text, nil
}

func systemPrompt(language string) string {
	return `You curate a weekly IT briefing for a team of QA engineers and developers.
You receive the items collected from one source this week.

Rules:
1. Include every item, in the numbering given. Do not skip any.
2. For each item write one line: "N. " followed by up to three sentences that explain what happened and why it matters. Do not just translate the title.
3. Add background for the most important items.
4. Optionally start with one short overview sentence before the numbered lines.
5. Plain text only. No HTML, no markdown, no links.

Write in ` + language + `, in a friendly conversational tone.`
}

// Disabled 没有配置 API key 时使用，总是返回失败以触发降级
type Disabled struct{}

func (Disabled) Summarize(_ context.Context, block digest.Block) (string, error) {
	return "", fmt.Errorf("%w: %s: no api key configured", ErrSummarizationFailed, block.Source)
}

// Result 一次运行的摘要结果
type Result struct {
	Summaries map[collector.Source]string
	Failed    map[collector.Source]error
}

// SummarizeAll 并发摘要所有文本块，单个失败只记录不返回
func SummarizeAll(ctx context.Context, s Summarizer, blocks []digest.Block) Result {
	summaries := make([]string, len(blocks))
	errs := make([]error, len(blocks))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, b := range blocks {
		i, b := i, b
		g.Go(func() error {
			summaries[i], errs[i] = s.Summarize(ctx, b)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{
		Summaries: make(map[collector.Source]string),
		Failed:    make(map[collector.Source]error),
	}
	for i, b := range blocks {
		if errs[i] != nil {
			res.Failed[b.Source] = errs[i]
			logger.Warn().Str("source", string(b.Source)).Err(errs[i]).Msg("summarize failed")
			continue
		}
		res.Summaries[b.Source] = summaries[i]
	}
	return res
}
