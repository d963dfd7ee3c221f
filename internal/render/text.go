package render

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

// SanitizeForTerminal replaces rich-text glyphs with ASCII-safe equivalents
// and drops control characters other than newline and tab
func SanitizeForTerminal(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\u00A0', '\u202F': // NBSP, narrow NBSP
			b.WriteRune(' ')
		case '\u200B', '\u200C', '\u200D', '\uFEFF', '\u034F', '\u2060', '\u00AD':
			// zero-width, BOM, joiners and soft hyphen
		case '\u2000', '\u2001', '\u2002', '\u2003', '\u2004', '\u2005', '\u2006', '\u2007', '\u2008', '\u2009', '\u200A':
			b.WriteRune(' ')
		case '\u2013', '\u2014':
			b.WriteRune('-')
		case '\u2018', '\u2019':
			b.WriteRune('\'')
		case '\u201C', '\u201D':
			b.WriteRune('"')
		case '\u2026':
			b.WriteString("...")
		default:
			if unicode.IsControl(r) && r != '\n' && r != '\t' {
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SingleLine flattens s for a table cell
func SingleLine(s string) string {
	s = SanitizeForTerminal(s)
	return strings.Join(strings.Fields(s), " ")
}

// FitWidth truncates and pads on the right to fit a fixed width
func FitWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	// Truncate by display width with ellipsis
	s = runewidth.Truncate(s, width, "...")
	// Pad on the right to exact width
	pad := width - runewidth.StringWidth(s)
	if pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

// RightFit keeps the rightmost width columns of s, padding on the left
func RightFit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if over := runewidth.StringWidth(s) - width; over > 0 {
		s = runewidth.TruncateLeft(s, over, "")
	}
	// Pad on the left
	pad := width - runewidth.StringWidth(s)
	if pad > 0 {
		s = strings.Repeat(" ", pad) + s
	}
	return s
}

// WrapText wraps each paragraph of input to width display columns. Words
// longer than width are cut.
func WrapText(input string, width int) string {
	if width <= 0 {
		return input
	}
	input = strings.ReplaceAll(input, "\r\n", "\n")
	lines := strings.Split(input, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		cur := ""
		for _, w := range words {
			for runewidth.StringWidth(w) > width {
				if cur != "" {
					out = append(out, cur)
					cur = ""
				}
				head := runewidth.Truncate(w, width, "")
				if head == "" {
					head = string([]rune(w)[:1])
				}
				out = append(out, head)
				w = w[len(head):]
			}
			switch {
			case w == "":
			case cur == "":
				cur = w
			case runewidth.StringWidth(cur)+1+runewidth.StringWidth(w) <= width:
				cur += " " + w
			default:
				out = append(out, cur)
				cur = w
			}
		}
		if cur != "" {
			out = append(out, cur)
		}
	}
	return strings.Join(out, "\n")
}
