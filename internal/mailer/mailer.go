package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrDeliveryFailed 发送失败，对一次运行来说是致命错误，不重试
var ErrDeliveryFailed = errors.New("delivery failed")

// Message 一封已经渲染好的邮件
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Mailer 发送邮件，成功时返回服务端的消息 ID（可能为空）
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Subject 周报标题，例如 "📡 Weekly IT Briefing - 2026 W42"，使用 ISO 周
func Subject(now time.Time) string {
	year, week := now.ISOWeek()
	return fmt.Sprintf("📡 Weekly IT Briefing - %d W%02d", year, week)
}

func deliveryError(provider string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDeliveryFailed, provider, err)
}

func validate(msg Message) error {
	switch {
	case msg.From == "":
		return errors.New("missing sender")
	case len(msg.To) == 0:
		return errors.New("no recipients")
	case msg.HTML == "":
		return errors.New("empty body")
	}
	return nil
}
