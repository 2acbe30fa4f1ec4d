package mail

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/angelmondragon/devtail-backend/pkg/config"
	"github.com/angelmondragon/devtail-backend/pkg/logger"
	gomail "github.com/wneessen/go-mail"
)

type stubDialer struct {
	sent []*gomail.Msg
	err  error
}

func (s *stubDialer) DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, messages...)
	return nil
}

func TestSMTPSenderBuildsMessage(t *testing.T) {
	dialer := &stubDialer{}
	sender := &SMTPSender{client: dialer, from: "deVtail <no-reply@devtail.local>"}

	err := sender.Send(context.Background(), Message{
		To:       []string{"a@b.com"},
		Subject:  "hello",
		TextBody: "plain",
		HTMLBody: "<p>html</p>",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(dialer.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(dialer.sent))
	}

	buf := &bytes.Buffer{}
	if _, err := dialer.sent[0].WriteTo(buf); err != nil {
		t.Fatalf("render message: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"Subject: hello", "a@b.com", "text/plain", "text/html"} {
		if !strings.Contains(raw, want) {
			t.Fatalf("expected %q in message:\n%s", want, raw)
		}
	}
}

func TestSMTPSenderPropagatesRelayError(t *testing.T) {
	sender := &SMTPSender{client: &stubDialer{err: errors.New("relay down")}, from: "no-reply@devtail.local"}
	err := sender.Send(context.Background(), Message{To: []string{"a@b.com"}, Subject: "s", TextBody: "b"})
	if err == nil || !strings.Contains(err.Error(), "relay down") {
		t.Fatalf("expected relay error, got %v", err)
	}
}

func TestSendRejectsIncompleteMessages(t *testing.T) {
	sender := &LogSender{}
	cases := []Message{
		{Subject: "s", TextBody: "b"},
		{To: []string{"a@b.com"}, TextBody: "b"},
		{To: []string{"a@b.com"}, Subject: "s"},
	}
	for i, msg := range cases {
		if err := sender.Send(context.Background(), msg); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestLogSenderWritesToLog(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	sender := &LogSender{logg: logg}

	if err := sender.Send(context.Background(), Message{To: []string{"a@b.com"}, Subject: "subj", TextBody: "body"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(buf.String(), "\"mail_subject\":\"subj\"") {
		t.Fatalf("expected subject in log, got %s", buf.String())
	}
}

func TestNewPicksSenderByConfig(t *testing.T) {
	s, err := New(config.MailConfig{}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := s.(*LogSender); !ok {
		t.Fatalf("expected log sender without host, got %T", s)
	}

	s, err = New(config.MailConfig{Host: "smtp.example.com", Port: 587, From: "no-reply@example.com", TLSPolicy: "mandatory"}, nil)
	if err != nil {
		t.Fatalf("new smtp: %v", err)
	}
	if _, ok := s.(*SMTPSender); !ok {
		t.Fatalf("expected smtp sender, got %T", s)
	}

	if _, err := New(config.MailConfig{Host: "smtp.example.com", From: "x@example.com", TLSPolicy: "weird"}, nil); err == nil {
		t.Fatal("expected unknown tls policy to fail")
	}
}
