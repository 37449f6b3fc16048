// Package catalog is the thin client for the external food-facts catalog.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Item is one catalog food with its per-serving nutrition facts.
type Item struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	ServingGrams float64 `json:"servingGrams"`
	Kcal         float64 `json:"kcal"`
	Protein      float64 `json:"protein"`
	Carbs        float64 `json:"carbs"`
	Fats         float64 `json:"fats"`
}

// Provider looks up catalog foods by name.
type Provider interface {
	Search(ctx context.Context, query string) ([]Item, error)
}

// HTTPProvider fetches the catalog from a JSON endpoint shaped as a keyed
// object of food facts, the way realtime-database exports look.
type HTTPProvider struct {
	URL        string
	HTTPClient *http.Client
}

func NewHTTPProvider(url string) *HTTPProvider {
	return &HTTPProvider{URL: url, HTTPClient: &http.Client{Timeout: 10 * time.Second}}
}

type itemDoc struct {
	Name         string  `json:"name"`
	ServingGrams float64 `json:"servingGrams"`
	Kcal         float64 `json:"kcal"`
	Protein      float64 `json:"protein"`
	Carbs        float64 `json:"carbs"`
	// catalog payloads use the singular form
	Fat float64 `json:"fat"`
}

// Search fetches the full catalog and filters by case-insensitive substring
// match on the name. An empty query returns everything.
func (p *HTTPProvider) Search(ctx context.Context, query string) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create catalog request: %w", err)
	}
	client := p.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("catalog request failed with status %d", resp.StatusCode)
	}

	var docs map[string]itemDoc
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	q := strings.ToLower(strings.TrimSpace(query))
	items := make([]Item, 0, len(docs))
	for id, d := range docs {
		if q != "" && !strings.Contains(strings.ToLower(d.Name), q) {
			continue
		}
		items = append(items, Item{
			ID:           id,
			Name:         d.Name,
			ServingGrams: d.ServingGrams,
			Kcal:         d.Kcal,
			Protein:      d.Protein,
			Carbs:        d.Carbs,
			Fats:         d.Fat,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}
