package contentprocessor

import (
	"regexp"

	"yana/internal/domain/entity"
)

// applyRegexReplacements handles step 9. Each
// entity.RegexReplacement carries a compiled-at-use pattern and its
// replacement text; a pattern that fails to compile is skipped rather than
// aborting the remaining replacements.
func applyRegexReplacements(html string, replacements []entity.RegexReplacement) string {
	for _, r := range replacements {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			continue
		}
		html = re.ReplaceAllString(html, r.Replacement)
	}
	return html
}

// parseRegexReplacementLines tokenizes the raw `pattern|replacement` config
// format feeds store their regex replacements in: one rule per line, `#`
// prefixed or blank lines are comments, and a literal `|` in the pattern or
// replacement is escaped as `\|`. This is deliberately hand-rolled rather
// than reused from a shell-style quoting library, since the escaping rules
// here are narrower than POSIX quoting.
func parseRegexReplacementLines(raw string) []entity.RegexReplacement {
	var out []entity.RegexReplacement
	lines := splitLines(raw)
	for _, line := range lines {
		trimmed := trimSpace(line)
		if trimmed == "" || trimmed[0] == '#' {
			continue
		}
		pattern, replacement, ok := splitUnescapedPipe(trimmed)
		if !ok {
			continue
		}
		if _, err := regexp.Compile(pattern); err != nil {
			continue
		}
		out = append(out, entity.RegexReplacement{Pattern: pattern, Replacement: replacement})
	}
	return out
}

func splitLines(raw string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\n' {
			lines = append(lines, raw[start:i])
			start = i + 1
		}
	}
	lines = append(lines, raw[start:])
	return lines
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r'
}

// splitUnescapedPipe splits "pattern|replacement" on the first unescaped
// `|`, unescaping `\|` to `|` in both halves.
func splitUnescapedPipe(line string) (pattern, replacement string, ok bool) {
	var buf []byte
	for i := 0; i < len(line); i++ {
		if line[i] == '\\' && i+1 < len(line) && line[i+1] == '|' {
			buf = append(buf, '|')
			i++
			continue
		}
		if line[i] == '|' {
			return string(buf), unescapePipe(line[i+1:]), true
		}
		buf = append(buf, line[i])
	}
	return "", "", false
}

func unescapePipe(s string) string {
	var buf []byte
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == '|' {
			buf = append(buf, '|')
			i++
			continue
		}
		buf = append(buf, s[i])
	}
	return string(buf)
}
