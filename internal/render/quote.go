package render

import "strings"

// Quote markup: [quote=TIMESTAMP]body[/quote], nesting allowed. The parser is
// a recursive descent over the raw text producing a tree of literal spans and
// quote blocks, so adjacent or overlapping markers resolve deterministically.
// Anything malformed (an opener with no ']', a '[' inside the timestamp, a
// missing closer) stays literal text and gets escaped downstream.

const (
	quoteOpen  = "[quote="
	quoteClose = "[/quote]"

	// maxQuoteDepth caps nesting; markers beyond it are literal text so
	// adversarial input cannot recurse unboundedly.
	maxQuoteDepth = 8
)

type nodeKind int

const (
	literalKind nodeKind = iota
	quoteKind
)

type node struct {
	kind      nodeKind
	text      string // literalKind
	timestamp string // quoteKind
	children  []node // quoteKind
}

func parseQuotes(s string, depth int) []node {
	if depth >= maxQuoteDepth {
		if s == "" {
			return nil
		}
		return []node{{kind: literalKind, text: s}}
	}

	var nodes []node
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			nodes = append(nodes, node{kind: literalKind, text: lit.String()})
			lit.Reset()
		}
	}

	i := 0
	for i < len(s) {
		rel := strings.Index(s[i:], quoteOpen)
		if rel < 0 {
			lit.WriteString(s[i:])
			break
		}
		start := i + rel
		lit.WriteString(s[i:start])

		if ts, bodyStart, ok := parseOpenMarker(s, start); ok {
			if bodyEnd, next, closed := findClose(s, bodyStart); closed {
				flush()
				nodes = append(nodes, node{
					kind:      quoteKind,
					timestamp: ts,
					children:  parseQuotes(s[bodyStart:bodyEnd], depth+1),
				})
				i = next
				continue
			}
		}

		// Malformed or unterminated: the marker text stays literal and
		// scanning resumes right behind it.
		lit.WriteString(quoteOpen)
		i = start + len(quoteOpen)
	}
	flush()

	return nodes
}

// parseOpenMarker reads the timestamp of an opener starting at start. The
// timestamp runs to the next ']' and may not contain '['.
func parseOpenMarker(s string, start int) (ts string, bodyStart int, ok bool) {
	for j := start + len(quoteOpen); j < len(s); j++ {
		switch s[j] {
		case ']':
			return s[start+len(quoteOpen) : j], j + 1, true
		case '[':
			return "", 0, false
		}
	}
	return "", 0, false
}

// findClose locates the closer matching an opener whose body starts at from,
// counting well-formed nested openers along the way.
func findClose(s string, from int) (bodyEnd, next int, ok bool) {
	level := 1
	i := from
	for i < len(s) {
		openRel := strings.Index(s[i:], quoteOpen)
		closeRel := strings.Index(s[i:], quoteClose)
		if closeRel < 0 {
			return 0, 0, false
		}
		if openRel >= 0 && openRel < closeRel {
			if _, after, wellFormed := parseOpenMarker(s, i+openRel); wellFormed {
				level++
				i = after
			} else {
				i = i + openRel + len(quoteOpen)
			}
			continue
		}
		level--
		if level == 0 {
			at := i + closeRel
			return at, at + len(quoteClose), true
		}
		i = i + closeRel + len(quoteClose)
	}
	return 0, 0, false
}

// WrapQuote prefixes body with quote markup referencing a prior message, so
// callers can render a reply and its quoted context as one unit.
func WrapQuote(timestamp, quoted, body string) string {
	return quoteOpen + timestamp + "]" + quoted + quoteClose + body
}
