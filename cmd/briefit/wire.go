package main

import (
	"fmt"

	"github.com/1ilseok/briefit/internal/briefing"
	"github.com/1ilseok/briefit/internal/collector"
	"github.com/1ilseok/briefit/internal/config"
	"github.com/1ilseok/briefit/internal/digest"
	"github.com/1ilseok/briefit/internal/logger"
	"github.com/1ilseok/briefit/internal/mailer"
	"github.com/1ilseok/briefit/internal/storage"
	"github.com/1ilseok/briefit/internal/summarizer"
)

// buildRunner 按配置组装一次运行需要的全部组件
func buildRunner(cfg *config.Config) (*briefing.Runner, *storage.Store, error) {
	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("init store: %w", err)
	}

	fetchers := collector.DefaultFetchers(collector.Options{
		GitHubToken: cfg.GitHubToken,
		Renderer:    &collector.ChromeRenderer{ExecPath: cfg.ChromePath},
	})
	orch := digest.NewOrchestrator(fetchers, cfg.Location)

	var sum summarizer.Summarizer = summarizer.Disabled{}
	if cfg.OpenAIAPIKey != "" {
		sum = summarizer.NewOpenAI(summarizer.Config{
			APIKey:   cfg.OpenAIAPIKey,
			Model:    cfg.OpenAIModel,
			BaseURL:  cfg.OpenAIBaseURL,
			Language: cfg.SummaryLanguage,
			Timeout:  cfg.SummaryTimeout,
		})
	} else {
		logger.Warn().Msg("OPENAI_API_KEY not set, digest will be sent without summaries")
	}

	var m mailer.Mailer
	switch cfg.Mail.Provider {
	case config.MailProviderSMTP:
		m = mailer.NewSMTP(cfg.Mail.SMTPAddr, cfg.Mail.SMTPUser, cfg.Mail.SMTPPass)
	default:
		m = mailer.NewResend(cfg.Mail.ResendAPIKey, nil)
	}

	runner := briefing.NewRunner(orch, sum, m, briefing.Options{
		Sources:  config.Sources(cfg),
		From:     cfg.Mail.From,
		To:       cfg.Mail.To,
		Fallback: cfg.SummaryFallback,
		LockTTL:  cfg.RunLockTTL,
	}).WithStore(store, store)

	return runner, store, nil
}
