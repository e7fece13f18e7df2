// Package render turns a raw message body into safe HTML. The pipeline is
// fixed: quote blocks, then image links, then file links, then escaping of
// whatever text the earlier stages did not consume, then optional search
// highlighting over the finished markup. Rendering never fails; unparseable
// markup comes out as escaped literal text.
package render

import (
	"regexp"
	"strings"
)

// segment is a run of output: either literal text still to be escaped, or
// markup generated by an earlier stage that must not be touched again.
type segment struct {
	text string
	html bool
}

// Render transforms a raw message body into safe markup. searchTerm, when
// non-empty, wraps case-insensitive literal matches in a highlight mark as a
// final pass over the whole output; matches inside attribute values are
// wrapped too, which mirrors the observed behavior of the wire format this
// serves.
func Render(text, searchTerm string) string {
	segs := renderSegments(text, 0)

	var b strings.Builder
	for _, seg := range segs {
		if seg.html {
			b.WriteString(seg.text)
		} else {
			b.WriteString(EscapeText(seg.text))
		}
	}

	return highlight(b.String(), searchTerm)
}

// renderSegments runs stages 1-3 of the pipeline, producing the segment list
// that the escape stage consumes.
func renderSegments(text string, depth int) []segment {
	return renderNodes(parseQuotes(text, depth))
}

func renderNodes(nodes []node) []segment {
	var segs []segment
	for _, n := range nodes {
		switch n.kind {
		case literalKind:
			segs = append(segs, renderLinks(n.text)...)
		case quoteKind:
			segs = append(segs, segment{
				text: `<blockquote class="quote-block"><div class="quote-meta">` +
					EscapeText(n.timestamp) + `</div><div class="quote-body">`,
				html: true,
			})
			segs = append(segs, renderNodes(n.children)...)
			segs = append(segs, segment{text: `</div></blockquote>`, html: true})
		}
	}
	return segs
}

// entityPattern matches an already-encoded character entity. EscapeText leaves
// these alone so that rendered output fed back through the engine keeps the
// same visible text instead of growing &amp;amp; chains.
var entityPattern = regexp.MustCompile(`^&(?:[a-zA-Z]{2,10}|#[0-9]{1,6}|#x[0-9a-fA-F]{1,5});`)

// EscapeText neutralizes angle brackets, quotes and ampersands in a literal
// run so they cannot be interpreted as markup.
func EscapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			if loc := entityPattern.FindString(s[i:]); loc != "" {
				b.WriteString(loc)
				i += len(loc) - 1
			} else {
				b.WriteString("&amp;")
			}
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#39;")
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// highlight wraps case-insensitive literal occurrences of term in a highlight
// mark. The term is regex-quoted first; a term that still fails to compile
// skips the stage.
func highlight(html, term string) string {
	if term == "" {
		return html
	}
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(term))
	if err != nil {
		return html
	}
	return re.ReplaceAllStringFunc(html, func(m string) string {
		return `<mark class="search-highlight">` + m + `</mark>`
	})
}
