package ingest

import (
	"strings"

	"golang.org/x/net/html"
)

// blockTags start a new paragraph in the extracted text so the chunk
// splitter sees the same structure a reader would.
var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "ul": true, "ol": true, "table": true, "tr": true,
	"blockquote": true, "pre": true, "br": true,
}

// skipTags never contribute visible text.
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"nav": true, "footer": true, "aside": true,
}

// ExtractText returns the visible text of an HTML document with
// paragraph breaks preserved, plus the page title.
func ExtractText(htmlContent string) (text, title string, err error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipTags[n.Data] {
				return
			}
			if n.Data == "title" && title == "" && n.FirstChild != nil {
				title = strings.TrimSpace(n.FirstChild.Data)
				return
			}
			if blockTags[n.Data] {
				buf.WriteString("\n\n")
			}
		}
		if n.Type == html.TextNode {
			t := strings.TrimSpace(n.Data)
			if t != "" {
				if buf.Len() > 0 && !strings.HasSuffix(buf.String(), "\n") {
					buf.WriteString(" ")
				}
				buf.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return normalizeBreaks(buf.String()), title, nil
}

// normalizeBreaks collapses runs of blank lines to one paragraph break
// and trims the edges.
func normalizeBreaks(s string) string {
	lines := strings.Split(s, "\n")
	var paras []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			paras = append(paras, line)
		}
	}
	return strings.Join(paras, "\n\n")
}
