package mailer

import (
	"context"
	"net"
	"net/mail"
	"net/smtp"

	"github.com/1ilseok/briefit/internal/logger"
	"github.com/jhillyerd/enmime"
)

// SMTPMailer 用 enmime 构造 MIME 邮件后通过 SMTP 发送
type SMTPMailer struct {
	sender enmime.Sender
}

func NewSMTP(addr, user, pass string) *SMTPMailer {
	var auth smtp.Auth
	if user != "" {
		host, _, _ := net.SplitHostPort(addr)
		auth = smtp.PlainAuth("", user, pass, host)
	}
	return &SMTPMailer{sender: enmime.NewSMTP(addr, auth)}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) (string, error) {
	if err := validate(msg); err != nil {
		return "", deliveryError("smtp", err)
	}
	if err := ctx.Err(); err != nil {
		return "", deliveryError("smtp", err)
	}

	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return "", deliveryError("smtp", err)
	}
	to := make([]mail.Address, 0, len(msg.To))
	for _, raw := range msg.To {
		addr, err := mail.ParseAddress(raw)
		if err != nil {
			return "", deliveryError("smtp", err)
		}
		to = append(to, *addr)
	}

	b := enmime.Builder().
		From(from.Name, from.Address).
		ToAddrs(to).
		Subject(msg.Subject).
		HTML([]byte(msg.HTML))
	if msg.Text != "" {
		b = b.Text([]byte(msg.Text))
	}

	if err := b.Send(m.sender); err != nil {
		return "", deliveryError("smtp", err)
	}

	logger.Info().Str("provider", "smtp").Int("recipients", len(to)).Msg("email sent")
	return "", nil
}
