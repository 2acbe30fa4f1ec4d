package accounts

import (
	"bytes"
	"context"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/devtail-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
	"github.com/angelmondragon/devtail-backend/pkg/locale"
	"github.com/angelmondragon/devtail-backend/pkg/mail"
	"github.com/angelmondragon/devtail-backend/pkg/metrics"
)

const (
	// ConfirmPath and ResetPath are the API routes embedded in mailed links.
	ConfirmPath = "/api/v1/accounts/confirm"
	ResetPath   = "/api/v1/accounts/password/reset"

	mailKindConfirm = "confirm"
	mailKindReset   = "reset"
)

var resetHTML = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body>
<p>{{.Greeting}}</p>
<p>{{.Body}}</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>{{.Ignore}}</p>
</body>
</html>
`))

type resetView struct {
	Greeting string
	Body     string
	Link     string
	Ignore   string
}

// notifier composes account mails in the request language and hands them to
// the sender.
type notifier struct {
	sender    mail.Sender
	publicURL string
	metrics   *metrics.AccountMetrics
}

func (n *notifier) confirmLink(code uuid.UUID) (string, error) {
	return url.JoinPath(n.publicURL, ConfirmPath, code.String())
}

func (n *notifier) resetLink(uid, token string) (string, error) {
	return url.JoinPath(n.publicURL, ResetPath, uid, token)
}

func (n *notifier) sendConfirmation(ctx context.Context, email string, code uuid.UUID) error {
	link, err := n.confirmLink(code)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build confirmation link")
	}
	msg := mail.Message{
		To:       []string{email},
		Subject:  locale.Translate(ctx, "mail.confirm.subject", nil),
		TextBody: locale.Translate(ctx, "mail.confirm.body", map[string]any{"Link": link}),
	}
	return n.send(ctx, mailKindConfirm, msg)
}

func (n *notifier) sendPasswordReset(ctx context.Context, user *models.User, uid, token string) error {
	link, err := n.resetLink(uid, token)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build reset link")
	}
	view := resetView{
		Greeting: locale.Translate(ctx, "mail.reset.greeting", map[string]any{"Nickname": user.Nickname}),
		Body:     locale.Translate(ctx, "mail.reset.body", nil),
		Link:     link,
		Ignore:   locale.Translate(ctx, "mail.reset.ignore", nil),
	}

	var html bytes.Buffer
	if err := resetHTML.Execute(&html, view); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render reset mail")
	}
	text := strings.Join([]string{view.Greeting, "", view.Body, view.Link, "", view.Ignore}, "\n")

	msg := mail.Message{
		To:       []string{user.Email},
		Subject:  locale.Translate(ctx, "mail.reset.subject", nil),
		TextBody: text,
		HTMLBody: html.String(),
	}
	return n.send(ctx, mailKindReset, msg)
}

func (n *notifier) send(ctx context.Context, kind string, msg mail.Message) error {
	start := time.Now()
	err := n.sender.Send(ctx, msg)
	n.metrics.ObserveMail(kind, time.Since(start), err)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, MsgMailUnavailable)
	}
	return nil
}
