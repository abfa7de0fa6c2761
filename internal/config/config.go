package config

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	MailProviderResend = "resend"
	MailProviderSMTP   = "smtp"

	FallbackPassthrough = "passthrough"
	FallbackOmit        = "omit"
)

// MailConfig 发信相关配置，只有真正发送时才校验
type MailConfig struct {
	Provider     string   `validate:"oneof=resend smtp"`
	ResendAPIKey string   `validate:"required_if=Provider resend"`
	From         string   `validate:"required,mailbox"`
	To           []string `validate:"required,min=1,dive,mailbox"`
	SMTPAddr     string   `validate:"required_if=Provider smtp"`
	SMTPUser     string
	SMTPPass     string
}

type Config struct {
	AppPort       string `validate:"required,numeric"`
	BasicAuthUser string
	BasicAuthPass string

	CronSpec string `validate:"required"`
	TimeZone string `validate:"required"`
	Location *time.Location

	OpenAIAPIKey    string
	OpenAIModel     string `validate:"required"`
	OpenAIBaseURL   string `validate:"omitempty,url"`
	SummaryLanguage string `validate:"required"`
	SummaryFallback string `validate:"oneof=passthrough omit"`
	SummaryTimeout  time.Duration

	Mail MailConfig `validate:"-"`

	MediumSessionID string
	ChromePath      string
	GitHubToken     string

	PostgresDSN string
	RedisAddr   string `validate:"omitempty,hostname_port"`
	RunLockTTL  time.Duration

	LogLevel  string `validate:"omitempty,oneof=debug info warn error"`
	LogOutput string
	LogPretty bool
}

// Load 读取 .env 与环境变量并做基础校验
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		AppPort:       getEnv("APP_PORT", "9000"),
		BasicAuthUser: getEnv("APP_BASIC_USER", ""),
		BasicAuthPass: getEnv("APP_BASIC_PASS", ""),

		// 每周一早上 9 点
		CronSpec: getEnv("CRON_SPEC", "0 9 * * 1"),
		TimeZone: getEnv("TIMEZONE", "UTC"),

		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		SummaryLanguage: getEnv("SUMMARY_LANGUAGE", "English"),
		SummaryFallback: getEnv("SUMMARY_FALLBACK", FallbackPassthrough),
		SummaryTimeout:  getEnvAsDuration("SUMMARY_TIMEOUT", 90*time.Second),

		Mail: MailConfig{
			Provider:     getEnv("MAIL_PROVIDER", MailProviderResend),
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("EMAIL_FROM", "briefit@yourdomain.com"),
			To:           splitList(getEnv("EMAIL_TO", "")),
			SMTPAddr:     getEnv("SMTP_ADDR", ""),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPass:     getEnv("SMTP_PASS", ""),
		},

		MediumSessionID: getEnv("MEDIUM_SESSION_ID", ""),
		ChromePath:      getEnv("CHROME_PATH", ""),
		GitHubToken:     getEnv("GITHUB_TOKEN", ""),

		PostgresDSN: getEnv("POSTGRES_DSN", ""),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		RunLockTTL:  getEnvAsDuration("RUN_LOCK_TTL", 30*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogOutput: getEnv("LOG_OUTPUT", "stderr"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 允许 "Briefit <briefit@example.com>" 这种带显示名的地址
	_ = v.RegisterValidation("mailbox", func(fl validator.FieldLevel) bool {
		_, err := mail.ParseAddress(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate 校验通用配置并解析时区
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid config: TIMEZONE %q: %w", c.TimeZone, err)
	}
	c.Location = loc
	return nil
}

// ValidateMail 发送前调用；preview 等不发信的命令不需要邮件配置
func (c *Config) ValidateMail() error {
	if err := newValidator().Struct(c.Mail); err != nil {
		return fmt.Errorf("invalid mail config: %w", err)
	}
	return nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getEnvAsBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// splitList 解析逗号分隔的收件人列表
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
