// Package shellwords provides shell-like command line splitting and joining
// that correctly handles quoted arguments, spaces, and escapes.
//
// This is a minimal, dependency-free implementation of POSIX shell word
// splitting rules, similar to Python's shlex.split() function.
package shellwords

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrUnclosedQuote is returned when a quoted string is not properly closed
	ErrUnclosedQuote = errors.New("unclosed quote in command string")

	// ErrTrailingEscape is returned when a backslash appears at the end of input
	ErrTrailingEscape = errors.New("trailing escape character at end of command")
)

// Split parses a command string into words, handling quotes and escapes.
//
// Parsing rules:
//   - Words are separated by whitespace
//   - Single quotes preserve literal values (no escapes)
//   - Double quotes preserve literal values except for backslash escapes
//   - Backslash escapes the next character outside quotes
//   - Empty input returns empty slice
//
// Examples:
//
//	Split(`cmd arg1 arg2`) => ["cmd", "arg1", "arg2"]
//	Split(`cmd "arg with spaces"`) => ["cmd", "arg with spaces"]
//	Split(`cmd 'single quotes'`) => ["cmd", "single quotes"]
//	Split(`cmd arg\ with\ spaces`) => ["cmd", "arg with spaces"]
//	Split(`python3 -c "print('hello')"`) => ["python3", "-c", "print('hello')"]
func Split(input string) ([]string, error) {
	if input == "" {
		return []string{}, nil
	}

	var words []string
	var word strings.Builder
	var inSingleQuote, inDoubleQuote bool
	var quoted bool // A quoted empty string still yields a word

	runes := []rune(input)
	length := len(runes)

	for i := 0; i < length; i++ {
		ch := runes[i]

		// Escape sequences (single quotes take everything literally)
		if ch == '\\' && !inSingleQuote {
			if i+1 >= length {
				return nil, ErrTrailingEscape
			}
			i++
			next := runes[i]

			if inDoubleQuote {
				// In double quotes, backslash only escapes special characters
				switch next {
				case '"', '\\', '$', '`':
					word.WriteRune(next)
				default:
					word.WriteRune('\\')
					word.WriteRune(next)
				}
			} else {
				// Outside quotes, backslash escapes any character
				word.WriteRune(next)
			}
			continue
		}

		if ch == '\'' && !inDoubleQuote {
			if inSingleQuote {
				quoted = true
			}
			inSingleQuote = !inSingleQuote
			continue
		}

		if ch == '"' && !inSingleQuote {
			if inDoubleQuote {
				quoted = true
			}
			inDoubleQuote = !inDoubleQuote
			continue
		}

		// Word separators
		if unicode.IsSpace(ch) && !inSingleQuote && !inDoubleQuote {
			if word.Len() > 0 || quoted {
				words = append(words, word.String())
				word.Reset()
				quoted = false
			}
			continue
		}

		word.WriteRune(ch)
	}

	if inSingleQuote || inDoubleQuote {
		quoteType := "single"
		if inDoubleQuote {
			quoteType = "double"
		}
		return nil, fmt.Errorf("%w: unclosed %s quote", ErrUnclosedQuote, quoteType)
	}

	if word.Len() > 0 || quoted {
		words = append(words, word.String())
	}

	return words, nil
}

// MustSplit is like Split but panics on error.
// Useful for static command strings that are known to be valid.
func MustSplit(input string) []string {
	words, err := Split(input)
	if err != nil {
		panic(fmt.Sprintf("shellwords.MustSplit: %v", err))
	}
	return words
}

// Join combines words into a shell command string, quoting as necessary.
// Words containing spaces, quotes, or special characters are quoted.
func Join(words []string) string {
	if len(words) == 0 {
		return ""
	}

	parts := make([]string, 0, len(words))
	for _, word := range words {
		parts = append(parts, quote(word))
	}

	return strings.Join(parts, " ")
}

// quote wraps a word in quotes if it contains special characters
func quote(word string) string {
	if word == "" {
		return "''"
	}

	needsQuote := false
	for _, ch := range word {
		if unicode.IsSpace(ch) || ch == '\'' || ch == '"' || ch == '\\' || ch == '$' || ch == '`' {
			needsQuote = true
			break
		}
	}

	if !needsQuote {
		return word
	}

	// Single quotes are simplest when the word contains none
	if !strings.Contains(word, "'") {
		return "'" + word + "'"
	}

	// Otherwise double quote and escape the shell-special characters
	var quoted strings.Builder
	quoted.WriteRune('"')
	for _, ch := range word {
		if ch == '"' || ch == '\\' || ch == '$' || ch == '`' {
			quoted.WriteRune('\\')
		}
		quoted.WriteRune(ch)
	}
	quoted.WriteRune('"')

	return quoted.String()
}
