package config

import (
	"os"
	"testing"
	"time"

	"github.com/1ilseok/briefit/internal/collector"
)

func TestGetEnvWithDefault(t *testing.T) {
	const key = "BRIEFIT_TEST_PORT"

	_ = os.Unsetenv(key)
	if got := getEnv(key, "9000"); got != "9000" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "9000")
	}

	t.Setenv(key, "8080")
	if got := getEnv(key, "9000"); got != "8080" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "8080")
	}
}

func TestGetEnvAsDurationFallsBackOnGarbage(t *testing.T) {
	t.Setenv("BRIEFIT_TEST_DURATION", "not-a-duration")
	if got := getEnvAsDuration("BRIEFIT_TEST_DURATION", time.Minute); got != time.Minute {
		t.Fatalf("getEnvAsDuration = %v, want fallback 1m", got)
	}
	t.Setenv("BRIEFIT_TEST_DURATION", "45s")
	if got := getEnvAsDuration("BRIEFIT_TEST_DURATION", time.Minute); got != 45*time.Second {
		t.Fatalf("getEnvAsDuration = %v, want 45s", got)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a@example.com, ,b@example.com,")
	if len(got) != 2 || got[0] != "a@example.com" || got[1] != "b@example.com" {
		t.Fatalf("splitList = %v", got)
	}
	if got := splitList(""); len(got) != 0 {
		t.Fatalf("splitList(\"\") = %v, want empty", got)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "1234")
	t.Setenv("APP_BASIC_USER", "user")
	t.Setenv("APP_BASIC_PASS", "pass")
	t.Setenv("TIMEZONE", "Asia/Seoul")
	t.Setenv("EMAIL_TO", "team@example.com, lead@example.com")
	t.Setenv("MEDIUM_SESSION_ID", "sid-value")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.AppPort != "1234" {
		t.Fatalf("AppPort = %q, want %q", cfg.AppPort, "1234")
	}
	if cfg.BasicAuthUser != "user" || cfg.BasicAuthPass != "pass" {
		t.Fatalf("basic auth not loaded: %+v", cfg)
	}
	if cfg.Location == nil || cfg.Location.String() != "Asia/Seoul" {
		t.Fatalf("Location = %v, want Asia/Seoul", cfg.Location)
	}
	if len(cfg.Mail.To) != 2 {
		t.Fatalf("Mail.To = %v, want 2 recipients", cfg.Mail.To)
	}
	if cfg.SummaryFallback != FallbackPassthrough {
		t.Fatalf("SummaryFallback = %q", cfg.SummaryFallback)
	}
}

func TestLoadRejectsUnknownFallback(t *testing.T) {
	t.Setenv("SUMMARY_FALLBACK", "retry")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown fallback policy")
	}
}

func TestValidateMail(t *testing.T) {
	base := func() *Config {
		return &Config{Mail: MailConfig{
			Provider:     MailProviderResend,
			ResendAPIKey: "re_test",
			From:         "Briefit <briefit@example.com>",
			To:           []string{"team@example.com"},
		}}
	}

	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid resend", func(c *Config) {}, false},
		{"missing recipients", func(c *Config) { c.Mail.To = nil }, true},
		{"bad recipient", func(c *Config) { c.Mail.To = []string{"not-an-address"} }, true},
		{"recipient with display name", func(c *Config) { c.Mail.To = []string{"Team <team@example.com>"} }, false},
		{"resend without key", func(c *Config) { c.Mail.ResendAPIKey = "" }, true},
		{"smtp without addr", func(c *Config) { c.Mail.Provider = MailProviderSMTP; c.Mail.ResendAPIKey = "" }, true},
		{"smtp with addr", func(c *Config) { c.Mail.Provider = MailProviderSMTP; c.Mail.SMTPAddr = "smtp.example.com:587" }, false},
		{"unknown provider", func(c *Config) { c.Mail.Provider = "pigeon" }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(c)
			err := c.ValidateMail()
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidateMail() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestSourcesFixedOrderAndCredential(t *testing.T) {
	srcs := Sources(&Config{MediumSessionID: "sid"})
	all := collector.AllSources()
	if len(srcs) != len(all) {
		t.Fatalf("got %d source configs, want %d", len(srcs), len(all))
	}
	for i, s := range srcs {
		if s.Source != all[i] {
			t.Fatalf("sources[%d] = %s, want %s", i, s.Source, all[i])
		}
		if s.MaxItems <= 0 || s.WindowDays != 7 || s.Timeout <= 0 {
			t.Fatalf("unexpected policy for %s: %+v", s.Source, s)
		}
	}
	if medium := srcs[len(srcs)-1]; !medium.RequiresCredential || medium.Credential != "sid" {
		t.Fatalf("medium credential not wired: %+v", medium)
	}
	if tldr := srcs[2]; tldr.Rank != collector.RankPerDayQuota || tldr.DailyQuota != 3 || !tldr.WeekdaysOnly {
		t.Fatalf("tldr policy = %+v", tldr)
	}
}

func TestSourceBudgetsCoverEveryPage(t *testing.T) {
	pages := map[collector.Source]int{
		collector.SourceTLDR:   8,
		collector.SourceMedium: 3,
	}
	for _, s := range Sources(nil) {
		n, ok := pages[s.Source]
		if !ok {
			n = 1
		}
		if got, want := s.FetchBudget(), s.Timeout*time.Duration(n); got < want {
			t.Errorf("%s budget = %v, want at least %v for %d pages", s.Source, got, want, n)
		}
	}
}
