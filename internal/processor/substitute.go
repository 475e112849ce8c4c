package processor

import (
	"regexp"
	"strings"
)

// labelCatalog lists the label texts that may precede a value in a
// template. Short forms come after the long ones so "Bank Code" is tried
// before "Bank".
var labelCatalog = []string{
	"File Number",
	"Property Type",
	"Location",
	"Customer Name",
	"Bank Code",
	"Reference Code",
	"Inspection Date",
	"Inspection Time",
	"Valuer Name",
	"Property Value",
	"Remarks",
	"File No",
	"Type",
	"Customer",
	"Bank",
	"Reference",
	"Date",
	"Time",
	"Valuer",
	"Value",
}

const (
	// textOpen matches <w:t> and <w:t xml:space="preserve"> but not
	// <w:tab/>, <w:tbl> or <w:tc>.
	textOpen = `<w:t(?:\s[^>]*)?>`
	// runProperties matches a <w:rPr> block made only of property elements,
	// so it can never reach past the end of its own run.
	runProperties = `<w:rPr>(?:\s*(?:<w:[^>]*/>|<w:[^/>][^>]*>[^<]*</w:[^>]*>))*\s*</w:rPr>`
	// runBoundary is the markup between two adjacent runs, including the
	// optional run properties of the second one.
	runBoundary = `\s*</w:r>\s*<w:r(?:\s[^>]*)?>\s*(?:` + runProperties + `)?\s*`
)

var textRunPattern = regexp.MustCompile(`(` + textOpen + `)([^<]*)(</w:t>)`)

// replaceLabeledValue finds "Label:" in one text run and rewrites the text
// of the run that follows it, whether in the same run element or the next
// adjacent one. Any other markup between label and value (tabs, proofing
// marks, bookmarks) leaves the body untouched. value must already be
// XML-escaped.
func replaceLabeledValue(body, label, value string) string {
	escapedLabel := regexp.QuoteMeta(escapeXMLText(label))
	pattern, err := regexp.Compile(`(?i)(` + textOpen + `[^<]*` + escapedLabel + `\s*:?\s*</w:t>(?:` + runBoundary + `)?` + textOpen + `)([^<]*)(</w:t>)`)
	if err != nil {
		return body
	}
	return replaceSubmatch(pattern, body, 2, value)
}

// replaceBankCode swaps the bracketed bank code inside text runs. When no
// bracketed form is present it falls back to whole-word matches of the old
// code, case-sensitive.
func replaceBankCode(body, oldCode, newCode string) string {
	if oldCode == "" || newCode == "" || oldCode == newCode {
		return body
	}

	bracketed, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(escapeXMLText("["+oldCode+"]")))
	if err != nil {
		return body
	}
	replacement := escapeXMLText("[" + newCode + "]")
	out := rewriteTextRuns(body, func(text string) string {
		return bracketed.ReplaceAllLiteralString(text, replacement)
	})
	if out != body {
		return out
	}

	bare, err := regexp.Compile(`\b` + regexp.QuoteMeta(escapeXMLText(oldCode)) + `\b`)
	if err != nil {
		return body
	}
	replacement = escapeXMLText(newCode)
	return rewriteTextRuns(body, func(text string) string {
		return bare.ReplaceAllLiteralString(text, replacement)
	})
}

// rewriteTextRuns passes the content of every <w:t> element through fn.
func rewriteTextRuns(body string, fn func(text string) string) string {
	matches := textRunPattern.FindAllStringSubmatchIndex(body, -1)
	if matches == nil {
		return body
	}

	var b strings.Builder
	b.Grow(len(body))
	last := 0
	for _, m := range matches {
		start, end := m[4], m[5]
		b.WriteString(body[last:start])
		b.WriteString(fn(body[start:end]))
		last = end
	}
	b.WriteString(body[last:])
	return b.String()
}

// replaceSubmatch replaces only capture group n of every match with repl,
// inserted verbatim.
func replaceSubmatch(re *regexp.Regexp, s string, n int, repl string) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, m := range matches {
		start, end := m[2*n], m[2*n+1]
		if start < 0 {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(repl)
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

// replaceXMLSafe replaces a {{placeholder}} even when Word has split it
// across several runs. The markup between the pieces is dropped along with
// the placeholder text.
func replaceXMLSafe(content, placeholder, value string) string {
	if strings.Contains(content, placeholder) {
		return strings.ReplaceAll(content, placeholder, value)
	}

	contentRunes := []rune(content)
	placeholderRunes := []rune(placeholder)
	if len(placeholderRunes) == 0 {
		return content
	}

	result := make([]rune, 0, len(contentRunes))
	valueRunes := []rune(value)
	i := 0
	for i < len(contentRunes) {
		if match, end := matchAcrossTags(contentRunes, i, placeholderRunes); match {
			result = append(result, valueRunes...)
			i = end
			continue
		}
		result = append(result, contentRunes[i])
		i++
	}
	return string(result)
}

// matchAcrossTags reports whether placeholder starts at startPos when
// markup is ignored, and where the match ends.
func matchAcrossTags(content []rune, startPos int, placeholder []rune) (bool, int) {
	if startPos >= len(content) || content[startPos] != placeholder[0] {
		return false, startPos
	}

	idx := 0
	pos := startPos
	inTag := false
	for pos < len(content) && idx < len(placeholder) {
		switch char := content[pos]; {
		case char == '<':
			inTag = true
		case char == '>':
			inTag = false
		case !inTag:
			if char != placeholder[idx] {
				return false, startPos
			}
			idx++
		}
		pos++

		if pos-startPos > len(placeholder)*10 {
			return false, startPos
		}
	}

	return idx == len(placeholder), pos
}

// placeholdersIn lists distinct {{...}} tokens in the visible text of body.
func placeholdersIn(body string) []string {
	text := stripTags(body)

	var placeholders []string
	seen := make(map[string]bool)
	for cursor := 0; ; {
		start := strings.Index(text[cursor:], "{{")
		if start == -1 {
			break
		}
		start += cursor
		end := strings.Index(text[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2

		placeholder := text[start:end]
		if !seen[placeholder] {
			seen[placeholder] = true
			placeholders = append(placeholders, placeholder)
		}
		cursor = end
	}
	return placeholders
}

func stripTags(content string) string {
	var b strings.Builder
	b.Grow(len(content))
	inTag := false
	for _, char := range content {
		switch {
		case char == '<':
			inTag = true
		case char == '>':
			inTag = false
		case !inTag:
			b.WriteRune(char)
		}
	}
	return b.String()
}
