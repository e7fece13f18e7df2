package render

import (
	"path"
	"regexp"
	"strings"
)

// Link markup: ![alt](url) for images, [label](url) for file attachments.
// URLs are accepted only with an http://, https:// or site-relative / prefix;
// a rejected span stays literal text in its entirety.

var (
	imagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]*)\)`)
	filePattern  = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)
)

var audioExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".ogg": true, ".m4a": true, ".flac": true, ".aac": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".webm": true, ".mov": true, ".avi": true, ".mkv": true,
}

var fileKinds = map[string]string{
	".pdf": "pdf",
	".doc": "doc", ".docx": "doc", ".txt": "doc", ".md": "doc",
	".xls": "sheet", ".xlsx": "sheet", ".csv": "sheet",
	".zip": "archive", ".rar": "archive", ".7z": "archive", ".tar": "archive", ".gz": "archive",
}

func urlAllowed(url string) bool {
	return strings.HasPrefix(url, "http://") ||
		strings.HasPrefix(url, "https://") ||
		strings.HasPrefix(url, "/")
}

// renderLinks runs the image pass then the file pass over one literal span,
// returning generated markup and leftover literal runs in order.
func renderLinks(text string) []segment {
	var segs []segment
	for _, part := range splitMatches(text, imagePattern, renderImage) {
		if part.html {
			segs = append(segs, part)
			continue
		}
		segs = append(segs, splitMatches(part.text, filePattern, renderFile)...)
	}
	return segs
}

// splitMatches cuts text around the pattern's matches. build returns the
// generated markup for a match, or false to reject it and keep the span
// literal.
func splitMatches(text string, pattern *regexp.Regexp, build func(label, url string) (string, bool)) []segment {
	var segs []segment
	rest := text
	for {
		loc := pattern.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		html, ok := build(rest[loc[2]:loc[3]], rest[loc[4]:loc[5]])
		if !ok {
			// Rejected span: emit everything through the span as literal so
			// the reader sees exactly what was typed.
			segs = append(segs, segment{text: rest[:loc[1]]})
			rest = rest[loc[1]:]
			continue
		}
		if loc[0] > 0 {
			segs = append(segs, segment{text: rest[:loc[0]]})
		}
		segs = append(segs, segment{text: html, html: true})
		rest = rest[loc[1]:]
	}
	if rest != "" {
		segs = append(segs, segment{text: rest})
	}
	return segs
}

func renderImage(alt, url string) (string, bool) {
	if !urlAllowed(url) {
		return "", false
	}
	escURL := EscapeText(url)
	return `<a href="` + escURL + `" target="_blank" rel="noopener">` +
		`<img class="chat-image" src="` + escURL + `" alt="` + EscapeText(alt) + `"></a>`, true
}

func renderFile(label, url string) (string, bool) {
	if !urlAllowed(url) {
		return "", false
	}
	escURL := EscapeText(url)
	ext := strings.ToLower(path.Ext(strings.TrimRight(url, "/")))

	kind := "generic"
	switch {
	case audioExtensions[ext]:
		kind = "audio"
	case videoExtensions[ext]:
		kind = "video"
	case fileKinds[ext] != "":
		kind = fileKinds[ext]
	}

	html := `<a class="file-link file-` + kind + `" href="` + escURL +
		`" target="_blank" rel="noopener">` + EscapeText(label) + `</a>`
	switch kind {
	case "audio":
		html += `<audio class="inline-player" controls src="` + escURL + `"></audio>`
	case "video":
		html += `<video class="inline-player" controls src="` + escURL + `"></video>`
	}
	return html, true
}
