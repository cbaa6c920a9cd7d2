package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Feed</title>
    <item>
      <title>Marathon Training Guide</title>
      <link>https://ex.com/marathon-guide</link>
      <pubDate>Mon, 24 Aug 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Older Post</title>
      <link>https://ex.com/older</link>
      <pubDate>Sun, 23 Aug 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Duplicate</title>
      <link>https://ex.com/marathon-guide</link>
    </item>
  </channel>
</rss>`

func TestDiscover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody)
	}))
	defer srv.Close()

	d := NewDiscoverer([]string{srv.URL})
	articles, err := d.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 2, "duplicate links collapse")

	assert.Equal(t, "https://ex.com/marathon-guide", articles[0].URL, "newest first")
	assert.Equal(t, "Marathon Training Guide", articles[0].Title)
	assert.Equal(t, srv.URL, articles[0].FeedURL)
}

func TestDiscoverSkipsDeadFeeds(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody)
	}))
	defer good.Close()
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer dead.Close()

	d := NewDiscoverer([]string{dead.URL, good.URL})
	articles, err := d.Discover(context.Background())
	require.NoError(t, err, "one dead feed does not block discovery")
	assert.Len(t, articles, 2)
}

func TestDiscoverAllFeedsFailing(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer dead.Close()

	d := NewDiscoverer([]string{dead.URL})
	_, err := d.Discover(context.Background())
	assert.Error(t, err)
}

func TestDiscoverNoFeeds(t *testing.T) {
	d := NewDiscoverer(nil)
	articles, err := d.Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, articles)
}
