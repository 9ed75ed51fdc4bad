package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
)

const (
	userAgent        = "newsboy/1.0 (digest fetcher)"
	maxItemTextRunes = 500
)

func (f *LiveFetcher) fetchFeed(ctx context.Context, feedURL string) (string, error) {
	parser := gofeed.NewParser()
	parser.Client = f.http
	parser.UserAgent = userAgent

	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return "", fmt.Errorf("parse feed: %w", err)
	}

	var b strings.Builder
	n := 0
	for _, item := range feed.Items {
		if n >= itemsPerSource {
			break
		}
		if item == nil || strings.TrimSpace(item.Title) == "" {
			continue
		}
		body := item.Content
		if body == "" {
			body = item.Description
		}
		fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(item.Title))
		if item.Link != "" {
			fmt.Fprintf(&b, "  %s\n", item.Link)
		}
		if text := truncateRunes(StripHTML(body), maxItemTextRunes); text != "" {
			fmt.Fprintf(&b, "  %s\n", text)
		}
		n++
	}
	return strings.TrimSpace(b.String()), nil
}

func (f *LiveFetcher) fetchArticle(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("get article: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("get article: %s", resp.Status)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	parsedURL, _ := url.Parse(articleURL)
	article, err := readability.FromReader(strings.NewReader(string(raw)), parsedURL)
	if err != nil {
		return "", fmt.Errorf("extract article: %w", err)
	}
	return strings.TrimSpace(article.TextContent), nil
}

// StripHTML reduces an HTML fragment to whitespace-normalised text.
func StripHTML(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
