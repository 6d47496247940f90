package i18n

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Languages with a bundled message file.
var Languages = []string{"es", "en"}

// Localizer resolves message ids to text in the user's language, falling
// back to the default language and finally to the id itself.
type Localizer struct {
	bundle          *i18n.Bundle
	defaultLanguage string
	localizers      map[string]*i18n.Localizer
}

func NewLocalizer(defaultLanguage string) (*Localizer, error) {
	bundle := i18n.NewBundle(language.Spanish)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	for _, lang := range Languages {
		if _, err := bundle.LoadMessageFileFS(localeFS, fmt.Sprintf("locales/%s.json", lang)); err != nil {
			return nil, fmt.Errorf("failed to load language file %s: %w", lang, err)
		}
	}

	localizers := make(map[string]*i18n.Localizer, len(Languages))
	for _, lang := range Languages {
		localizers[lang] = i18n.NewLocalizer(bundle, lang)
	}
	if _, ok := localizers[defaultLanguage]; !ok {
		return nil, fmt.Errorf("unsupported default language %q", defaultLanguage)
	}

	return &Localizer{
		bundle:          bundle,
		defaultLanguage: defaultLanguage,
		localizers:      localizers,
	}, nil
}

// Get returns the localized message.
func (l *Localizer) Get(lang, messageID string, data map[string]any) string {
	localizer, exists := l.localizers[lang]
	if !exists {
		localizer = l.localizers[l.defaultLanguage]
	}

	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}

// Has reports whether messageID exists in the default language.
func (l *Localizer) Has(messageID string) bool {
	_, err := l.localizers[l.defaultLanguage].Localize(&i18n.LocalizeConfig{MessageID: messageID})
	return err == nil
}

func (l *Localizer) DefaultLanguage() string {
	return l.defaultLanguage
}

// Message IDs
const (
	MsgWelcomePrefix  = "welcome_"
	MsgWelcomeGeneric = "welcome_generic"
	MsgApology        = "chat_apology"
	MsgGenericReply   = "generic_reply_"
	GenericReplyCount = 5
)
