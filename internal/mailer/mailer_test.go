package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jhillyerd/enmime"
)

func sampleMessage() Message {
	return Message{
		From:    "Briefit <briefit@example.com>",
		To:      []string{"team@example.com", "Lead <lead@example.com>"},
		Subject: Subject(time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)),
		HTML:    "<h1>Weekly</h1>",
	}
}

func TestSubjectUsesISOWeek(t *testing.T) {
	cases := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC), "📡 Weekly IT Briefing - 2026 W42"},
		// 1 月 1 日可能属于上一年的最后一周
		{time.Date(2027, 1, 1, 9, 0, 0, 0, time.UTC), "📡 Weekly IT Briefing - 2026 W53"},
		{time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), "📡 Weekly IT Briefing - 2026 W02"},
	}
	for _, c := range cases {
		if got := Subject(c.at); got != c.want {
			t.Errorf("Subject(%s) = %q, want %q", c.at.Format("2006-01-02"), got, c.want)
		}
	}
}

func newResendServer(t *testing.T, status int, reply string, got *map[string]any) *ResendMailer {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/emails" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer re_test" {
			t.Errorf("Authorization = %q", auth)
		}
		if got != nil {
			_ = json.NewDecoder(r.Body).Decode(got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)

	m := NewResend("re_test", srv.Client())
	base, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	m.client.BaseURL = base
	return m
}

func TestResendMailerSend(t *testing.T) {
	var body map[string]any
	m := newResendServer(t, http.StatusOK, `{"id":"email_123"}`, &body)

	id, err := m.Send(context.Background(), sampleMessage())
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if id != "email_123" {
		t.Fatalf("id = %q, want email_123", id)
	}
	if body["subject"] != "📡 Weekly IT Briefing - 2026 W42" {
		t.Fatalf("subject = %v", body["subject"])
	}
	if to, _ := body["to"].([]any); len(to) != 2 {
		t.Fatalf("to = %v, want 2 recipients", body["to"])
	}
}

func TestResendMailerFailure(t *testing.T) {
	m := newResendServer(t, http.StatusUnprocessableEntity, `{"statusCode":422,"name":"validation_error","message":"invalid from"}`, nil)

	if _, err := m.Send(context.Background(), sampleMessage()); !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("err = %v, want ErrDeliveryFailed", err)
	}
}

func TestSendRejectsIncompleteMessage(t *testing.T) {
	m := NewResend("re_test", nil)
	msg := sampleMessage()
	msg.To = nil
	if _, err := m.Send(context.Background(), msg); !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("err = %v, want ErrDeliveryFailed", err)
	}
}

type captureSender struct {
	from string
	to   []string
	raw  []byte
	err  error
}

func (c *captureSender) Send(reversePath string, recipients []string, msg []byte) error {
	c.from, c.to, c.raw = reversePath, recipients, msg
	return c.err
}

func TestSMTPMailerBuildsMIME(t *testing.T) {
	cs := &captureSender{}
	m := &SMTPMailer{sender: cs}

	if _, err := m.Send(context.Background(), sampleMessage()); err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if cs.from != "briefit@example.com" {
		t.Fatalf("reverse path = %q", cs.from)
	}
	if len(cs.to) != 2 || cs.to[1] != "lead@example.com" {
		t.Fatalf("recipients = %v", cs.to)
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(cs.raw))
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	if got := env.GetHeader("Subject"); got != "📡 Weekly IT Briefing - 2026 W42" {
		t.Fatalf("Subject header = %q", got)
	}
	if !strings.Contains(env.HTML, "<h1>Weekly</h1>") {
		t.Fatalf("HTML part = %q", env.HTML)
	}
}

func TestSMTPMailerFailure(t *testing.T) {
	m := &SMTPMailer{sender: &captureSender{err: errors.New("connection refused")}}
	if _, err := m.Send(context.Background(), sampleMessage()); !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("err = %v, want ErrDeliveryFailed", err)
	}
}
