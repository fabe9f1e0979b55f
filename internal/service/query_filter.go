package service

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// QueryFilter decides whether a prompt plausibly asks for real estate.
// It runs before any network call.
type QueryFilter interface {
	Allow(prompt string) bool
}

// QueryFilterFunc adapts a plain function to QueryFilter
type QueryFilterFunc func(prompt string) bool

// Allow calls f(prompt)
func (f QueryFilterFunc) Allow(prompt string) bool {
	return f(prompt)
}

const minPromptRunes = 5

var greetings = map[string]struct{}{
	"привет":       {},
	"hello":        {},
	"hi":           {},
	"здравствуйте": {},
	"добрый день":  {},
	"добрый вечер": {},
	"доброе утро":  {},
}

var realEstateKeywords = []string{
	// property
	"квартира", "дом", "комната", "студия", "жилье", "недвижимость",
	// transaction
	"купить", "снять", "аренда", "продажа",
	// money
	"цена", "стоимость", "рубл", "₽", "млн", "тыс", "миллион", "тысяч",
	// location and layout
	"район", "город", "метро", "этаж", "площадь", "м2", "кв.м",
	// cities
	"москва", "спб", "санкт-петербург", "краснодар", "сочи", "екатеринбург",
}

// KeywordFilter is the default heuristic: it rejects short prompts, greetings,
// bare numbers, bare punctuation and prompts without any real-estate keyword.
// Matching is substring based, so "квартиру" does not match "квартира" while
// "рублей" matches "рубл".
type KeywordFilter struct {
	keywords []string
}

// NewKeywordFilter returns the filter with the built-in vocabulary
func NewKeywordFilter() *KeywordFilter {
	return &KeywordFilter{keywords: realEstateKeywords}
}

// Allow implements QueryFilter
func (f *KeywordFilter) Allow(prompt string) bool {
	p := strings.ToLower(strings.TrimSpace(prompt))

	if utf8.RuneCountInString(p) < minPromptRunes {
		return false
	}
	if _, ok := greetings[p]; ok {
		return false
	}
	if allRunes(p, unicode.IsDigit) {
		return false
	}
	if allRunes(p, isSymbol) {
		return false
	}

	for _, kw := range f.keywords {
		if strings.Contains(p, kw) {
			return true
		}
	}
	return false
}

// isSymbol reports runes that are neither word characters nor whitespace
func isSymbol(r rune) bool {
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r))
}

func allRunes(s string, pred func(rune) bool) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}

var _ QueryFilter = (*KeywordFilter)(nil)
