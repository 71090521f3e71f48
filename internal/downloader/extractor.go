// internal/downloader/extractor.go
package downloader

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	urlutil "github.com/law-makers/lotwatch/internal/utils/url"
)

// ExtractImages returns the absolute src of every element matching selector, in
// document order and without duplicates. Inline data URLs are skipped.
func ExtractImages(html, baseURL, selector string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var urls []string
	doc.Find(selector).Each(func(i int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			if resolved := resolveImageURL(baseURL, src); resolved != "" {
				urls = append(urls, resolved)
			}
		}
	})
	return Dedupe(urls), nil
}

// Dedupe drops repeated entries, keeping first occurrences in order.
func Dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

func resolveImageURL(baseURL, src string) string {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(src, "data:") {
		return ""
	}
	resolved := urlutil.ResolveURL(baseURL, src)
	if !isValidImageURL(resolved) {
		return ""
	}
	return resolved
}

// isValidImageURL accepts any http(s) URL; gallery images are often served
// from CDN paths without a file extension.
func isValidImageURL(u string) bool {
	return urlutil.ValidateURL(u) == nil
}
