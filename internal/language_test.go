package internal

import "testing"

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		text string
		want Language
	}{
		{"курс биткоина", LanguageRussian},
		{"bitcoin price", LanguageEnglish},
		{"price of BTC в долларах", LanguageRussian},
		{"Ёлка", LanguageRussian},
		{"", LanguageEnglish},
		{"123 ?!", LanguageEnglish},
	}
	for _, tt := range tests {
		if got := DetectLanguage(tt.text); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
