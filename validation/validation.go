package validation

import (
	"errors"
	"net/url"
	"strings"
	"unicode"
)

const (
	MaxQueryLength = 4000

	invalidDBNameChars = `/\. "$*<>:|?`
)

var (
	ErrEmptyQuery   = errors.New("query is empty")
	ErrQueryTooLong = errors.New("query is too long")
	ErrGibberish    = errors.New("query does not look like a question or instruction")
	ErrURIScheme    = errors.New("connection string must start with mongodb:// or mongodb+srv://")
	ErrURIMalformed = errors.New("connection string is malformed")
	ErrDatabaseName = errors.New("invalid database name")
)

// ValidateQuery rejects empty, oversized and obviously meaningless chat input.
// It is lenient: queries may contain JSON, operators and field paths.
func ValidateQuery(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return ErrEmptyQuery
	}
	if len([]rune(trimmed)) > MaxQueryLength {
		return ErrQueryTooLong
	}

	words := strings.Fields(trimmed)
	if len(words) == 1 && isRepeatedCharacters(words[0]) {
		return ErrGibberish
	}
	if hasLongRun(trimmed, 6) || isKeyboardMashing(trimmed) {
		return ErrGibberish
	}

	letters := 0
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters == 0 {
		return ErrGibberish
	}
	return nil
}

// ValidateMongoURI checks the scheme and basic shape of a connection string.
// Full parsing is left to the driver.
func ValidateMongoURI(uri string) error {
	uri = strings.TrimSpace(uri)
	if !strings.HasPrefix(uri, "mongodb://") && !strings.HasPrefix(uri, "mongodb+srv://") {
		return ErrURIScheme
	}
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return ErrURIMalformed
	}
	return nil
}

// ValidateDatabaseName applies MongoDB's naming restrictions.
func ValidateDatabaseName(name string) error {
	if name == "" || len(name) > 63 || strings.ContainsAny(name, invalidDBNameChars) {
		return ErrDatabaseName
	}
	return nil
}

// isRepeatedCharacters checks if a string is just repeated characters
func isRepeatedCharacters(s string) bool {
	if len(s) < 3 {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// hasLongRun reports n or more consecutive identical letters. Digits and
// punctuation are ignored since ids and JSON legitimately repeat them.
func hasLongRun(s string, n int) bool {
	var prev rune
	count := 0
	for _, r := range s {
		if unicode.IsLetter(r) && r == prev {
			count++
			if count >= n {
				return true
			}
			continue
		}
		prev, count = r, 1
	}
	return false
}

// isKeyboardMashing checks short inputs made mostly of keyboard rows
func isKeyboardMashing(s string) bool {
	if len(s) >= 30 {
		return false
	}
	lower := strings.ToLower(s)
	for _, pattern := range []string{"asdfghjkl", "qwertyuiop", "zxcvbnm", "asdf", "qwer", "zxcv", "hjkl"} {
		if strings.Count(lower, pattern)*len(pattern) > len(lower)/2 {
			return true
		}
	}
	return false
}
