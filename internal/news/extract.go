package news

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// articleContainers are tried in order; the first match wins. A page with
// none of them falls back to all paragraphs.
var articleContainers = []string{
	"article",
	"div.article-body",
	"div.content-body",
	"div.story-content",
}

// ExtractBody pulls readable paragraph text out of an article page. Short
// fragments (menus, bylines, share buttons) are dropped.
func ExtractBody(html []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", err
	}

	for _, sel := range articleContainers {
		if root := doc.Find(sel); root.Length() > 0 {
			if text := paragraphs(root); text != "" {
				return text, nil
			}
		}
	}
	return paragraphs(doc.Selection), nil
}

func paragraphs(sel *goquery.Selection) string {
	var parts []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if len(text) > 20 {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}
