package mailer

import (
	"context"
	"net/http"

	"github.com/1ilseok/briefit/internal/logger"
	"github.com/resend/resend-go/v2"
)

// ResendMailer 通过 Resend API 发送
type ResendMailer struct {
	client *resend.Client
}

func NewResend(apiKey string, httpClient *http.Client) *ResendMailer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ResendMailer{client: resend.NewCustomClient(httpClient, apiKey)}
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) (string, error) {
	if err := validate(msg); err != nil {
		return "", deliveryError("resend", err)
	}

	resp, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		Tags:    []resend.Tag{{Name: "category", Value: "weekly_briefing"}},
	})
	if err != nil {
		return "", deliveryError("resend", err)
	}

	logger.Info().Str("provider", "resend").Str("id", resp.Id).Int("recipients", len(msg.To)).Msg("email sent")
	return resp.Id, nil
}
