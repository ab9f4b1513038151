package translate

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageName returns the English name for a language code such as "fr" or
// "pt-BR". Unknown codes are returned unchanged.
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	tag, err := language.Parse(code)
	if err != nil || tag == language.Und {
		return code
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return code
	}
	return name
}

// detectable limits the detector to languages users commonly select. Loading
// every model costs several hundred megabytes.
var detectable = []lingua.Language{
	lingua.Arabic,
	lingua.Chinese,
	lingua.Dutch,
	lingua.English,
	lingua.French,
	lingua.German,
	lingua.Italian,
	lingua.Japanese,
	lingua.Korean,
	lingua.Portuguese,
	lingua.Russian,
	lingua.Spanish,
}

var detector = sync.OnceValue(func() lingua.LanguageDetector {
	return lingua.NewLanguageDetectorBuilder().
		FromLanguages(detectable...).
		WithMinimumRelativeDistance(0.25).
		Build()
})

// DetectLanguage returns the ISO 639-1 code of text's language when the
// detector is confident.
func DetectLanguage(text string) (string, bool) {
	lang, ok := detector().DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
