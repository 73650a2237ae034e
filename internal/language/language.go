// Package language lists the languages the live transcriber accepts.
package language

import "strings"

// Language represents a supported transcription language
type Language struct {
	Code       string // BCP-47 tag as the listen endpoint expects it (e.g. "en", "pt-BR")
	Name       string // English name
	NativeName string
	// Fillers reports whether filler words ("um", "uh") are transcribed.
	// Filler counts in the report are only meaningful when true.
	Fillers bool
}

// Multi lets the model switch between languages mid-stream.
var Multi = Language{Code: "multi", Name: "Multilingual", NativeName: "Multilingual"}

var languages = []Language{
	{Code: "en", Name: "English", NativeName: "English", Fillers: true},
	{Code: "en-US", Name: "English (US)", NativeName: "English", Fillers: true},
	{Code: "en-GB", Name: "English (UK)", NativeName: "English", Fillers: true},
	{Code: "en-AU", Name: "English (Australia)", NativeName: "English", Fillers: true},
	{Code: "en-IN", Name: "English (India)", NativeName: "English", Fillers: true},
	{Code: "en-NZ", Name: "English (New Zealand)", NativeName: "English", Fillers: true},
	{Code: "es", Name: "Spanish", NativeName: "Español"},
	{Code: "es-419", Name: "Spanish (Latin America)", NativeName: "Español"},
	{Code: "fr", Name: "French", NativeName: "Français"},
	{Code: "fr-CA", Name: "French (Canada)", NativeName: "Français"},
	{Code: "de", Name: "German", NativeName: "Deutsch"},
	{Code: "de-CH", Name: "German (Switzerland)", NativeName: "Deutsch"},
	{Code: "it", Name: "Italian", NativeName: "Italiano"},
	{Code: "pt", Name: "Portuguese", NativeName: "Português"},
	{Code: "pt-BR", Name: "Portuguese (Brazil)", NativeName: "Português"},
	{Code: "pt-PT", Name: "Portuguese (Portugal)", NativeName: "Português"},
	{Code: "nl", Name: "Dutch", NativeName: "Nederlands"},
	{Code: "nl-BE", Name: "Flemish", NativeName: "Vlaams"},
	{Code: "sv", Name: "Swedish", NativeName: "Svenska"},
	{Code: "da", Name: "Danish", NativeName: "Dansk"},
	{Code: "no", Name: "Norwegian", NativeName: "Norsk"},
	{Code: "fi", Name: "Finnish", NativeName: "Suomi"},
	{Code: "pl", Name: "Polish", NativeName: "Polski"},
	{Code: "ru", Name: "Russian", NativeName: "Русский"},
	{Code: "uk", Name: "Ukrainian", NativeName: "Українська"},
	{Code: "tr", Name: "Turkish", NativeName: "Türkçe"},
	{Code: "hi", Name: "Hindi", NativeName: "हिन्दी"},
	{Code: "ja", Name: "Japanese", NativeName: "日本語"},
	{Code: "ko", Name: "Korean", NativeName: "한국어"},
	{Code: "zh-CN", Name: "Chinese (Simplified)", NativeName: "简体中文"},
	{Code: "zh-TW", Name: "Chinese (Traditional)", NativeName: "繁體中文"},
	{Code: "id", Name: "Indonesian", NativeName: "Bahasa Indonesia"},
	{Code: "vi", Name: "Vietnamese", NativeName: "Tiếng Việt"},
}

// codeIndex is keyed by lower-cased code; tags are case-insensitive.
var codeIndex map[string]Language

func init() {
	codeIndex = make(map[string]Language, len(languages)+1)
	codeIndex[Multi.Code] = Multi
	for _, lang := range languages {
		codeIndex[strings.ToLower(lang.Code)] = lang
	}
}

// Lookup returns the Language for code and whether it is supported.
func Lookup(code string) (Language, bool) {
	lang, ok := codeIndex[strings.ToLower(strings.TrimSpace(code))]
	return lang, ok
}

// FromCode returns the Language for the given code, or a Language that
// only carries the code when it is unknown.
func FromCode(code string) Language {
	if lang, ok := Lookup(code); ok {
		return lang
	}
	return Language{Code: code, Name: code}
}

// List returns all supported languages (excluding Multi)
func List() []Language {
	result := make([]Language, len(languages))
	copy(result, languages)
	return result
}

// Codes returns all language codes (excluding Multi)
func Codes() []string {
	codes := make([]string, len(languages))
	for i, lang := range languages {
		codes[i] = lang.Code
	}
	return codes
}

// IsValidCode returns true if the code is recognized, including "multi".
func IsValidCode(code string) bool {
	_, ok := Lookup(code)
	return ok
}
