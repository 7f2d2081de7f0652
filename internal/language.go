package internal

import "unicode"

// Language is the answer language selected for a turn
type Language string

const (
	LanguageRussian Language = "ru"
	LanguageEnglish Language = "en"
)

// DetectLanguage returns ru when text contains any Cyrillic letter, en otherwise.
func DetectLanguage(text string) Language {
	for _, r := range text {
		if unicode.Is(unicode.Cyrillic, r) {
			return LanguageRussian
		}
	}
	return LanguageEnglish
}
