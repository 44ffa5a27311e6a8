package snippet

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Parse scans input for snippet directives and returns the rendered
// text plus the ordered snippet list.
//
// The scan is left to right and non-overlapping. Directives inside
// code spans or code blocks are left untouched: the input is parsed as
// markdown first and matches inside code regions are discarded. Parse
// is deterministic except for snippet id generation; callers must not
// assert on literal ids.
func Parse(input string) Document {
	excluded := codeRanges([]byte(input))

	var (
		snippets []Snippet
		rendered strings.Builder
	)

	idx := 0

	for idx < len(input) {
		rel := strings.Index(input[idx:], "::")
		if rel == -1 {
			break
		}

		start := idx + rel

		match, end, ok := matchDirective(input, start)
		if !ok || overlapsRange(excluded, start, end) {
			// Not a directive (or inside code); emit the marker verbatim
			// and keep scanning after it.
			rendered.WriteString(input[idx : start+2])
			idx = start + 2

			continue
		}

		snip := buildSnippet(match)
		snippets = append(snippets, snip)

		rendered.WriteString(input[idx:start])
		rendered.WriteString(Placeholder(snip.ID))
		idx = end
	}

	rendered.WriteString(input[idx:])

	return Document{Rendered: rendered.String(), Snippets: snippets}
}

// directiveMatch is one raw grammar match before snippet construction.
type directiveMatch struct {
	snippetType string
	label       string
	attrs       []Attr
}

func buildSnippet(match directiveMatch) Snippet {
	snip := Snippet{
		ID:    newID(match.snippetType),
		Type:  match.snippetType,
		Text:  match.label,
		Attrs: match.attrs,
	}

	// Unknown types parse but carry no action; the caller decides
	// whether to render them as empty placeholders or drop them.
	snip.Action, _ = ActionFor(match.snippetType)

	if snip.Type == TypeSmartSection {
		snip.Prompt = snip.Attr("prompt")
		snip.Body = snip.Attr("body")
	}

	return snip
}

// matchDirective attempts to match a directive starting at input[start]
// (which is known to be "::"). Returns the match and the offset just
// past it.
func matchDirective(input string, start int) (directiveMatch, int, bool) {
	pos := start + 2

	typeStart := pos
	for pos < len(input) && isTypeChar(input[pos]) {
		pos++
	}

	if pos == typeStart || pos >= len(input) || input[pos] != '[' {
		return directiveMatch{}, 0, false
	}

	snippetType := input[typeStart:pos]
	pos++ // consume '['

	// Labels end at the first ']' and may not contain one, or a newline.
	labelEnd := strings.IndexAny(input[pos:], "]\n")
	if labelEnd == -1 || input[pos+labelEnd] != ']' {
		return directiveMatch{}, 0, false
	}

	label := input[pos : pos+labelEnd]
	pos += labelEnd + 1

	attrs, attrEnd, ok := parseAttrs(input, pos)
	if !ok {
		// Malformed or absent attribute block: the directive still
		// matches, the braces (if any) stay in the surrounding text.
		return directiveMatch{snippetType: snippetType, label: label}, pos, true
	}

	return directiveMatch{snippetType: snippetType, label: label, attrs: attrs}, attrEnd, true
}

func isTypeChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-'
}

// parseAttrs parses a "{key=value, key="quoted"}" block at input[pos].
// Unquoted values stop at comma, closing brace, or whitespace; quoted
// values may contain all of those. An empty block yields an empty,
// non-nil list.
func parseAttrs(input string, pos int) ([]Attr, int, bool) {
	if pos >= len(input) || input[pos] != '{' {
		return nil, 0, false
	}

	pos++
	attrs := []Attr{}

	for {
		for pos < len(input) && (input[pos] == ' ' || input[pos] == '\t' || input[pos] == ',') {
			pos++
		}

		if pos >= len(input) {
			return nil, 0, false
		}

		if input[pos] == '}' {
			return attrs, pos + 1, true
		}

		keyStart := pos
		for pos < len(input) && input[pos] != '=' && input[pos] != '}' && input[pos] != ',' && input[pos] != '\n' {
			pos++
		}

		if pos >= len(input) || input[pos] != '=' {
			return nil, 0, false
		}

		key := strings.TrimSpace(input[keyStart:pos])
		if key == "" {
			return nil, 0, false
		}

		pos++ // consume '='

		var value string

		if pos < len(input) && input[pos] == '"' {
			pos++

			end := strings.IndexByte(input[pos:], '"')
			if end == -1 {
				return nil, 0, false
			}

			value = input[pos : pos+end]
			pos += end + 1
		} else {
			valueStart := pos
			for pos < len(input) && input[pos] != ',' && input[pos] != '}' && input[pos] != ' ' && input[pos] != '\t' && input[pos] != '\n' {
				pos++
			}

			value = input[valueStart:pos]
		}

		attrs = append(attrs, Attr{Key: key, Value: value})
	}
}

// codeRanges returns the byte ranges of the source covered by code
// spans and code blocks, per the markdown AST.
func codeRanges(source []byte) [][2]int {
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var ranges [][2]int

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for idx := 0; idx < lines.Len(); idx++ {
				seg := lines.At(idx)
				ranges = append(ranges, [2]int{seg.Start, seg.Stop})
			}
		case *ast.CodeSpan:
			for child := n.FirstChild(); child != nil; child = child.NextSibling() {
				if txt, ok := child.(*ast.Text); ok {
					ranges = append(ranges, [2]int{txt.Segment.Start, txt.Segment.Stop})
				}
			}
		}

		return ast.WalkContinue, nil
	})

	return ranges
}

func overlapsRange(ranges [][2]int, start, end int) bool {
	for _, r := range ranges {
		if start < r[1] && end > r[0] {
			return true
		}
	}

	return false
}
