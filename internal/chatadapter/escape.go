package chatadapter

import "strings"

// markupSpecial is the set of characters Telegram's MarkdownV2 parser treats
// as special and requires backslash-escaped in plain text. Code-block bodies
// get the same treatment; there is one escaper, used everywhere, rather than
// one per call site.
const markupSpecial = "_*[]()~`>#+-=|{}.!\\"

// EscapeMarkup backslash-escapes every MarkdownV2 special character in s.
func EscapeMarkup(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		if strings.ContainsRune(markupSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// unescapeMarkup reverses EscapeMarkup, dropping every backslash that
// precedes a markupSpecial character. Used to recover an agent id embedded
// in a previously-escaped agentIDTag.
func unescapeMarkup(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) && strings.ContainsRune(markupSpecial, runes[i+1]) {
			continue
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}
