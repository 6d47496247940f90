package i18n

import "context"

type languageKey struct{}

// WithLanguage stores the caller's preferred language in ctx.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, languageKey{}, lang)
}

// LanguageFrom returns the language stored by WithLanguage, or fallback.
func LanguageFrom(ctx context.Context, fallback string) string {
	if lang, ok := ctx.Value(languageKey{}).(string); ok && lang != "" {
		return lang
	}
	return fallback
}
