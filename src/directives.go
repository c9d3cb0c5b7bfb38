package h2

import (
	"strconv"
	"strings"
)

// parseDirectives consumes the leading directive* prologue of source and
// returns the resulting limits, the 1-based line number of the first byte
// after the prologue, and the remaining source text. Directive names and
// values never appear in the main token alphabet (§3), so they are
// recognized and stripped line-by-line before the body reaches the Lexer.
func parseDirectives(source string) (Limits, int, string, []*phaseError) {
	limits := DefaultLimits()
	var errs []*phaseError
	line := 1
	pos := 0

	for pos < len(source) {
		lineEnd := strings.IndexByte(source[pos:], '\n')
		if lineEnd < 0 {
			lineEnd = len(source)
		} else {
			lineEnd += pos
		}
		rawLine := source[pos:lineEnd]
		trimmed := strings.TrimLeft(stripLineComment(rawLine), " \t")
		trimmed = strings.TrimRight(trimmed, " \t\r")

		name, value, ok := splitDirective(trimmed)
		if !ok {
			break
		}

		col := len(rawLine) - len(strings.TrimLeft(rawLine, " \t")) + 1
		sp := Span{Start: pos, End: lineEnd, Line: line, Column: col}
		if err := applyDirective(&limits, name, value, sp); err != nil {
			errs = append(errs, err)
		}

		pos = lineEnd
		if pos < len(source) && source[pos] == '\n' {
			pos++
		}
		line++
	}

	return limits, line, source[pos:], errs
}

// stripLineComment applies §4.1's comment rule (a '#' or '//' extends to,
// but does not consume, the end of the line) to a directive line, so a
// trailing comment doesn't get folded into the directive's value.
func stripLineComment(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "//"); i >= 0 {
		s = s[:i]
	}
	return s
}

// splitDirective recognizes a trimmed line of the form NAME=VALUE where
// NAME is one or more uppercase letters or underscores.
func splitDirective(s string) (name, value string, ok bool) {
	i := 0
	for i < len(s) && (isUpperLetter(s[i]) || s[i] == '_') {
		i++
	}
	if i == 0 || i >= len(s) || s[i] != '=' {
		return "", "", false
	}
	value = s[i+1:]
	if value == "" {
		return "", "", false
	}
	return s[:i], value, true
}

func applyDirective(limits *Limits, name, value string, sp Span) *phaseError {
	switch name {
	case "MAX_STEP":
		n, err := strconv.Atoi(value)
		if err != nil || n < minMaxStep || n > maxMaxStep {
			return errInvalidDirectiveValue(name, "must be an integer in [1, 10000000]", sp)
		}
		limits.MaxStep = n
	case "MAX_DEPTH":
		n, err := strconv.Atoi(value)
		if err != nil || n < minMaxDepth || n > maxMaxDepth {
			return errInvalidDirectiveValue(name, "must be an integer in [1, 10000]", sp)
		}
		limits.MaxDepth = n
	case "ON_LIMIT":
		switch value {
		case "ERROR":
			limits.OnLimit = OnLimitError
		case "TRUNCATE":
			limits.OnLimit = OnLimitTruncate
		default:
			return errInvalidDirectiveValue(name, "must be ERROR or TRUNCATE", sp)
		}
	default:
		return errUnknownDirective(name, sp)
	}
	return nil
}
