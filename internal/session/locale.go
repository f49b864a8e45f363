package session

import "golang.org/x/text/language"

const (
	// DefaultLocale is used when negotiation yields nothing.
	DefaultLocale = "en"
	// DefaultTheme is the theme for fresh guest sessions.
	DefaultTheme = "light"
)

var supportedLocales = []string{"en", "zh"}

var localeMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Chinese,
})

// NegotiateLocale picks the best supported locale for an Accept-Language
// header value, falling back to the default.
func NegotiateLocale(header string) string {
	if header == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, index, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return DefaultLocale
	}
	return supportedLocales[index]
}
