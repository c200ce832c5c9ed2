package htmlutil

import (
	"regexp"
	"strings"
	"unicode"
)

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText collapses the whitespace noise scraped out of rendered
// markup (non-printable runes, inner runs of spaces, surrounding
// padding) into a display-ready string.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = strings.Trim(s, " \t\n")
	return innerWhitespace.ReplaceAllString(s, " ")
}

var firstNumber = regexp.MustCompile(`(\d+\.?\d*)`)

// FirstNumber extracts the first embedded decimal number in a string,
// returning ok=false when the string contains none.
func FirstNumber(s string) (string, bool) {
	m := firstNumber.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}
