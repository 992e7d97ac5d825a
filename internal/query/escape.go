package query

import "strings"

// Escape encodes free text for embedding into a command line.
// Backslash must be replaced first so the sequences it introduces
// are not escaped again.
func Escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, " ", `\s`)
	s = strings.ReplaceAll(s, "/", `\/`)
	return s
}

// Unescape reverses Escape for values read out of response rows. It
// consumes one escape pair per step; chained substitutions would let
// a later pattern match across a decoded backslash.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case '\\':
			b.WriteByte('\\')
		case 's':
			b.WriteByte(' ')
		case '/':
			b.WriteByte('/')
		default:
			b.WriteByte(s[i])
			continue
		}
		i++
	}
	return b.String()
}
