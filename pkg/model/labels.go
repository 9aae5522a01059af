package model

import (
	"regexp"
	"strings"
	"unicode"
)

var labelSeparators = regexp.MustCompile(`[_\-\s]+`)

var labelAcronyms = map[string]string{
	"id":  "ID",
	"url": "URL",
	"api": "API",
}

// DefaultLabeler turns a field name segment into a display label, splitting
// on separators and camelCase boundaries ("relatedEntities" -> "Related
// Entities", "source_url" -> "Source URL").
func DefaultLabeler(name string) string {
	if name == "" {
		return ""
	}
	var words []string
	for _, chunk := range labelSeparators.Split(name, -1) {
		for _, word := range splitCamelWords(chunk) {
			words = append(words, labelWord(word))
		}
	}
	return strings.Join(words, " ")
}

func splitCamelWords(input string) []string {
	if input == "" {
		return nil
	}
	runes := []rune(input)
	var (
		words []string
		start int
	)
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := (unicode.IsLower(prev) && unicode.IsUpper(cur)) ||
			(unicode.IsLetter(prev) && unicode.IsDigit(cur)) ||
			(unicode.IsDigit(prev) && unicode.IsLetter(cur))
		if boundary {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	return append(words, string(runes[start:]))
}

func labelWord(word string) string {
	lower := strings.ToLower(word)
	if acronym, ok := labelAcronyms[lower]; ok {
		return acronym
	}
	runes := []rune(lower)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
