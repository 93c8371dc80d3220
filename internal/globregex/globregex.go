// Package globregex translates file globs into POSIX extended regular
// expressions. Every component that needs glob matching in shell output goes
// through Compile so escaping and alternation behave identically everywhere.
package globregex

import (
	"regexp"
	"strings"
)

// Compile converts glob into an unanchored ERE fragment:
//
//	.        → \.
//	{a,b,c}  → (a|b|c)
//	**       → .*
//	*        → [^/]*
//	?        → .
//
// Other ERE metacharacters are escaped so they match literally.
func Compile(glob string) string {
	var b strings.Builder
	depth := 0
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '.':
			b.WriteString(`\.`)
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteByte('.')
		case '{':
			depth++
			b.WriteByte('(')
		case '}':
			if depth > 0 {
				depth--
				b.WriteByte(')')
			} else {
				b.WriteString(`\}`)
			}
		case ',':
			if depth > 0 {
				b.WriteByte('|')
			} else {
				b.WriteByte(',')
			}
		case '+', '(', ')', '|', '^', '$', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	// An unterminated group cannot be a valid alternation; close it so the
	// expression still compiles.
	for ; depth > 0; depth-- {
		b.WriteByte(')')
	}
	return b.String()
}

// CompileAnchored returns the fragment for glob anchored to a path-segment
// boundary on the left and end of input on the right, suitable for matching
// absolute paths against a project-relative glob.
func CompileAnchored(glob string) string {
	return "(^|/)" + Compile(glob) + "$"
}

// Match reports whether path matches glob using the anchored translation.
func Match(glob string, path string) (bool, error) {
	re, err := regexp.Compile(CompileAnchored(glob))
	if err != nil {
		return false, err
	}
	return re.MatchString(path), nil
}
