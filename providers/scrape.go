package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrScrapeFailed = errors.New("scrape failed")

// ScrapeClient fetches page markup through a Firecrawl-compatible scraping
// API. The API token is supplied per call.
type ScrapeClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewScrapeClient(baseURL string) *ScrapeClient {
	return &ScrapeClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		HTML    string `json:"html"`
		RawHTML string `json:"rawHtml"`
	} `json:"data"`
}

// Scrape returns the HTML of pageURL.
func (c *ScrapeClient) Scrape(ctx context.Context, apiKey, pageURL string) (string, error) {
	b, err := json.Marshal(scrapeRequest{URL: pageURL, Formats: []string{"html"}})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/scrape", bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: scrape API status %d: %s", ErrScrapeFailed, resp.StatusCode, string(respBytes))
	}

	var out scrapeResponse
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if !out.Success {
		return "", fmt.Errorf("%w: %s", ErrScrapeFailed, out.Error)
	}
	if out.Data.HTML != "" {
		return out.Data.HTML, nil
	}
	return out.Data.RawHTML, nil
}
