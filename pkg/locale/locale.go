// Package locale resolves user facing messages from the embedded catalogs.
// Domain code carries message ids; the HTTP layer renders them in the
// language negotiated for the request.
package locale

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed translations/*.toml
var translationsFS embed.FS

// DefaultLanguage is served when nothing in Accept-Language matches.
var DefaultLanguage = language.Korean

var (
	bundle  = mustLoadBundle()
	matcher = language.NewMatcher(bundle.LanguageTags())
)

func mustLoadBundle() *i18n.Bundle {
	b := i18n.NewBundle(DefaultLanguage)
	b.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	entries, err := fs.ReadDir(translationsFS, "translations")
	if err != nil {
		panic(fmt.Sprintf("read translations: %v", err))
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := path.Join("translations", entry.Name())
		data, err := fs.ReadFile(translationsFS, name)
		if err != nil {
			panic(fmt.Sprintf("read %s: %v", name, err))
		}
		b.MustParseMessageFileBytes(data, entry.Name())
	}
	return b
}

// Languages lists the languages with a catalog, default first.
func Languages() []language.Tag {
	return bundle.LanguageTags()
}

// Match picks the supported language for an Accept-Language header value.
func Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLanguage
	}
	return bundle.LanguageTags()[index]
}

// NewLocalizer returns a localizer for tag with the default language as fallback.
func NewLocalizer(tag language.Tag) *i18n.Localizer {
	return i18n.NewLocalizer(bundle, tag.String(), DefaultLanguage.String())
}

type ctxKey struct{}

// WithLocalizer attaches l to ctx.
func WithLocalizer(ctx context.Context, l *i18n.Localizer) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request localizer, or one for the default language.
func FromContext(ctx context.Context) *i18n.Localizer {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*i18n.Localizer); ok && l != nil {
			return l
		}
	}
	return NewLocalizer(DefaultLanguage)
}

// Translate renders messageID in the language bound to ctx. Unknown ids are
// returned unchanged so plain text messages pass through.
func Translate(ctx context.Context, messageID string, data map[string]any) string {
	if messageID == "" {
		return ""
	}
	msg, err := FromContext(ctx).Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil || msg == "" {
		return messageID
	}
	return msg
}

// Known reports whether messageID exists in the default catalog.
func Known(messageID string) bool {
	if messageID == "" {
		return false
	}
	_, err := NewLocalizer(DefaultLanguage).Localize(&i18n.LocalizeConfig{MessageID: messageID})
	return err == nil
}
