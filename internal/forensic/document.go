package forensic

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractText returns the visible text of an HTML document with whitespace
// collapsed, so block elements never glue two words together. Plain text
// passes through unchanged apart from whitespace.
func ExtractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse document: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	var parts []string
	doc.Find("*").Contents().Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) != "#text" {
			return
		}
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " "), nil
}

func looksLikeHTML(s string) bool {
	i := strings.IndexByte(s, '<')
	return i >= 0 && strings.IndexByte(s[i:], '>') > 0
}
