// Package feeds discovers candidate article URLs from RSS/Atom feeds so
// new content can be queued for classification without manual entry.
package feeds

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/ignite/content-signals/internal/pkg/logger"
)

// Article is one discovered feed item.
type Article struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
	FeedURL     string    `json:"feed_url"`
}

// Discoverer pulls article URLs from configured feeds.
type Discoverer struct {
	parser *gofeed.Parser
	feeds  []string
}

// NewDiscoverer creates a discoverer over the given feed URLs.
func NewDiscoverer(feedURLs []string) *Discoverer {
	return &Discoverer{
		parser: gofeed.NewParser(),
		feeds:  feedURLs,
	}
}

// Discover fetches every configured feed and returns the discovered
// articles, de-duplicated by URL and ordered newest first. A failing feed
// is logged and skipped; one dead feed must not block discovery from the
// rest. An error is returned only when every feed fails.
func (d *Discoverer) Discover(ctx context.Context) ([]Article, error) {
	var articles []Article
	seen := map[string]bool{}
	failures := 0

	for _, feedURL := range d.feeds {
		feed, err := d.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			logger.Warn("feed fetch failed", "feed", feedURL, "error", err.Error())
			failures++
			continue
		}

		for _, item := range feed.Items {
			link := strings.TrimSpace(item.Link)
			if link == "" || seen[link] {
				continue
			}
			seen[link] = true
			articles = append(articles, Article{
				URL:         link,
				Title:       strings.TrimSpace(item.Title),
				PublishedAt: itemTime(item),
				FeedURL:     feedURL,
			})
		}
	}

	if len(d.feeds) > 0 && failures == len(d.feeds) {
		return nil, fmt.Errorf("feeds: all %d feeds failed", failures)
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})

	logger.Info("feed discovery complete", "feeds", len(d.feeds), "articles", len(articles), "failed_feeds", failures)
	return articles, nil
}

// itemTime picks the best timestamp a feed item offers.
func itemTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}
