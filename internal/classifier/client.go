// Package classifier is the HTTP client for the external AI classification
// service that assigns IAB taxonomy codes to article URLs. The pipeline
// itself is out of scope; this package only invokes it, caches results, and
// normalizes its "Label (CODE)" response fields into code slots.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/content-signals/internal/pkg/httpretry"
)

const (
	DefaultTimeout = 60 * time.Second
)

// Classification is the normalized result for one URL.
type Classification struct {
	URL string `json:"url"`

	IABCategory    string `json:"iab_category"`
	IABCode        string `json:"iab_code"`
	IABSubcategory string `json:"iab_subcategory"`
	IABSubcode     string `json:"iab_subcode"`

	SecondaryCategory    string `json:"iab_secondary_category"`
	SecondaryCode        string `json:"iab_secondary_code"`
	SecondarySubcategory string `json:"iab_secondary_subcategory"`
	SecondarySubcode     string `json:"iab_secondary_subcode"`

	Tone         string `json:"tone"`
	Intent       string `json:"intent"`
	Audience     string `json:"audience"`
	Keywords     string `json:"keywords"`
	BuyingIntent string `json:"buying_intent"`

	ClassifiedAt time.Time `json:"classified_at"`
}

// Client calls the classification service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpretry.HTTPDoer
	dryRun     bool // when true, returns simulated data instead of calling the API
}

// NewClient creates a classification service client.
func NewClient(baseURL, apiKey string, dryRun bool) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: DefaultTimeout,
		}, 3),
		dryRun: dryRun,
	}
}

// Classify submits a URL for classification and returns the normalized result.
func (c *Client) Classify(ctx context.Context, url string) (*Classification, error) {
	if c.dryRun {
		return simulatedClassification(url), nil
	}

	body, _ := json.Marshal(map[string]string{"url": url})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("classifier: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier: classify %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("classifier: classify returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var result Classification
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("classifier: decode response: %w", err)
	}
	result.URL = url
	if result.ClassifiedAt.IsZero() {
		result.ClassifiedAt = time.Now().UTC()
	}
	return &result, nil
}

// ParseLabelCode splits the service's "Label (CODE)" composite into its
// parts. A value without parentheses is all label with an "N/A" code, which
// is how the service reports an undetermined slot.
func ParseLabelCode(value string) (label, code string) {
	value = strings.TrimSpace(value)
	open := strings.LastIndex(value, "(")
	close := strings.LastIndex(value, ")")
	if open >= 0 && close > open {
		return strings.TrimSpace(value[:open]), strings.TrimSpace(value[open+1 : close])
	}
	return value, "N/A"
}

// simulatedClassification backs dry-run mode so the dashboard can be
// exercised without the classification service.
func simulatedClassification(url string) *Classification {
	return &Classification{
		URL:            url,
		IABCategory:    "Sports",
		IABCode:        "IAB9",
		IABSubcategory: "Running/Jogging",
		IABSubcode:     "IAB9-30",
		Tone:           "informational",
		Intent:         "research",
		Audience:       "general",
		Keywords:       "simulated",
		BuyingIntent:   "Low",
		ClassifiedAt:   time.Now().UTC(),
	}
}
