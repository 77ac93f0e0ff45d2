// Package validate holds the input shape checks applied before any credential
// or storage work happens.
//
// Every function is a pure predicate over the string exactly as supplied. No
// trimming, case folding or Unicode normalization takes place, and invalid
// input is rejected rather than truncated.
package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// UsernameMinLen is the shortest accepted username.
	UsernameMinLen = 3
	// UsernameMaxLen is the longest accepted username.
	UsernameMaxLen = 20
	// PasswordMinLen is the shortest accepted password, counted in characters.
	PasswordMinLen = 8
)

var (
	usernameCharsRe = regexp.MustCompile(`^[A-Za-z0-9 ._]{3,20}$`)
	usernameRunRe   = regexp.MustCompile(`[._]{2}`)
	emailRe         = regexp.MustCompile(`^[^@]+@[^@]*\.[^@]*$`)
)

// Username reports whether s is an acceptable username: 3 to 20 ASCII letters,
// digits, spaces, dots or underscores, not starting or ending with a space,
// dot or underscore, and without two dots/underscores in a row.
func Username(s string) bool {
	if !usernameCharsRe.MatchString(s) {
		return false
	}
	if isUsernameEdge(s[0]) || isUsernameEdge(s[len(s)-1]) {
		return false
	}
	return !usernameRunRe.MatchString(s)
}

func isUsernameEdge(c byte) bool {
	return c == ' ' || c == '.' || c == '_'
}

// Email reports whether s has the shape local@domain with exactly one '@',
// non-empty parts, a '.' somewhere in the domain and no whitespace of any
// kind.
func Email(s string) bool {
	if strings.Count(s, "@") != 1 || strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return false
	}
	return emailRe.MatchString(s)
}

// Password reports whether s meets the password policy: at least eight
// characters including a lowercase letter, an uppercase letter, a digit and a
// special character. Underscore and whitespace do not count as special.
func Password(s string) bool {
	if !utf8.ValidString(s) || utf8.RuneCountInString(s) < PasswordMinLen {
		return false
	}

	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case r == '_' || unicode.IsSpace(r):
		default:
			special = true
		}
	}

	return lower && upper && digit && special
}
