package model

// Locale is one of the two display languages the bot speaks.
type Locale string

const (
	LocaleUz Locale = "uz"
	LocaleRu Locale = "ru"
)

// ParseLocale validates a stored or user-selected locale value.
func ParseLocale(s string) (Locale, bool) {
	switch Locale(s) {
	case LocaleUz, LocaleRu:
		return Locale(s), true
	}
	return "", false
}

// User holds per-chat settings. A record is created the first time a user
// picks a language and is never deleted.
type User struct {
	ID        int64
	Locale    Locale
	FirstTime bool
}
