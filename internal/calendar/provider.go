package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// BusyInterval is one block of provider-side unavailability for a calendar.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Provider is the scheduling vendor behind specialist calendars.
// Availability computation intersects its busy data with our own bookings.
type Provider interface {
	// BusyIntervals returns the busy blocks for a calendar in [from, to).
	BusyIntervals(ctx context.Context, calendarID string, from, to time.Time) ([]BusyInterval, error)
}

// Config holds the provider API settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPProvider talks to the vendor's REST API.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPProvider builds the default provider client.
func NewHTTPProvider(cfg Config) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type busyResponse struct {
	Busy []BusyInterval `json:"busy"`
}

// BusyIntervals calls GET /calendars/{id}/busy on the provider.
func (p *HTTPProvider) BusyIntervals(ctx context.Context, calendarID string, from, to time.Time) ([]BusyInterval, error) {
	endpoint := fmt.Sprintf("%s/calendars/%s/busy?%s",
		p.baseURL,
		url.PathEscape(calendarID),
		url.Values{
			"from": {from.UTC().Format(time.RFC3339)},
			"to":   {to.UTC().Format(time.RFC3339)},
		}.Encode(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar provider request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar provider returned status %d", res.StatusCode)
	}

	var body busyResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("calendar provider response decode failed: %w", err)
	}

	return body.Busy, nil
}
