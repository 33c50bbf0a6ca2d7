package phoneintel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Validation is the upstream NumVerify response shape this service reads.
// It is ephemeral; only derived views (SpamVerdict, CallerInfo) leave this
// package in API responses.
type Validation struct {
	Valid       bool   `json:"valid"`
	LineType    string `json:"line_type"`
	Carrier     string `json:"carrier"`
	CountryName string `json:"country_name"`
	Location    string `json:"location"`
}

// SpamVerdict is the spam-check projection of a validation response.
type SpamVerdict struct {
	IsSpam     bool   `json:"is_spam"`
	IsValid    bool   `json:"is_valid"`
	LineType   string `json:"line_type"`
	Carrier    string `json:"carrier"`
	Country    string `json:"country"`
	SpamReason string `json:"spam_reason"`
}

// CallerInfo is the lookup projection of a validation response.
type CallerInfo struct {
	Valid       bool   `json:"valid"`
	CountryName string `json:"country_name"`
	Location    string `json:"location"`
	Carrier     string `json:"carrier"`
	LineType    string `json:"line_type"`
}

// Cache is an optional read-through cache for validation responses.
// Implementations must be best-effort: a cache failure is a miss, never an
// error, and Put failures are dropped.
type Cache interface {
	Get(ctx context.Context, phoneNumber string) (Validation, bool)
	Put(ctx context.Context, phoneNumber string, v Validation)
}

// Client wraps the NumVerify phone-validation API.
//
// Failure policy: the upstream is advisory. CheckSpam and CallerInfo fail
// open on transport/HTTP errors and return degraded defaults; the only error
// either can return is a credential failure (ErrSecretUnavailable), which
// is an infrastructure fault and must propagate.
type Client struct {
	http    *http.Client
	baseURL string
	keys    KeySource
	cache   Cache
}

// NewClient builds a validation client. cache may be nil.
func NewClient(baseURL string, timeout time.Duration, keys KeySource, cache Cache) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		keys:    keys,
		cache:   cache,
	}
}

// CheckSpam validates a phone number and derives a spam verdict.
//
// Verdict rules, in order:
//  1. invalid (or unknown-valid) numbers are spam: "invalid_number"
//  2. voip numbers are higher risk but are NOT blocked:
//     "voip_number_flagged_for_review"
//  3. everything else: not spam, empty reason
func (c *Client) CheckSpam(ctx context.Context, phoneNumber string) (SpamVerdict, error) {
	key, err := c.keys.APIKey(ctx)
	if err != nil {
		return SpamVerdict{}, err
	}

	data, err := c.lookup(ctx, key, phoneNumber)
	if err != nil {
		// Fail open: an upstream outage must never block a legitimate caller.
		return SpamVerdict{
			IsSpam:     false,
			IsValid:    true,
			LineType:   "unknown",
			Carrier:    "unknown",
			Country:    "unknown",
			SpamReason: fmt.Sprintf("api_error: %v", err),
		}, nil
	}

	v := SpamVerdict{
		IsValid:  data.Valid,
		LineType: orUnknown(data.LineType),
		Carrier:  orUnknown(data.Carrier),
		Country:  orUnknown(data.CountryName),
	}
	switch {
	case !data.Valid:
		v.IsSpam = true
		v.SpamReason = "invalid_number"
	case data.LineType == "voip":
		// Flagged for review only; still reaches the owner.
		v.SpamReason = "voip_number_flagged_for_review"
	}
	return v, nil
}

// CallerInfo looks up carrier/location details for a phone number.
// Upstream failure yields an all-unknown record, never an error.
func (c *Client) CallerInfo(ctx context.Context, phoneNumber string) (CallerInfo, error) {
	key, err := c.keys.APIKey(ctx)
	if err != nil {
		return CallerInfo{}, err
	}

	data, err := c.lookup(ctx, key, phoneNumber)
	if err != nil {
		return CallerInfo{
			Valid:       false,
			CountryName: "unknown",
			Location:    "unknown",
			Carrier:     "unknown",
			LineType:    "unknown",
		}, nil
	}

	return CallerInfo{
		Valid:       data.Valid,
		CountryName: orUnknown(data.CountryName),
		Location:    orUnknown(data.Location),
		Carrier:     orUnknown(data.Carrier),
		LineType:    orUnknown(data.LineType),
	}, nil
}

func (c *Client) lookup(ctx context.Context, apiKey, phoneNumber string) (Validation, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(ctx, phoneNumber); ok {
			return v, nil
		}
	}

	q := url.Values{}
	q.Set("access_key", apiKey)
	q.Set("number", phoneNumber)
	q.Set("country_code", "")
	q.Set("format", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Validation{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Validation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Validation{}, fmt.Errorf("numverify: unexpected status %d", resp.StatusCode)
	}

	var data Validation
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Validation{}, fmt.Errorf("numverify: decode response: %w", err)
	}

	if c.cache != nil {
		c.cache.Put(ctx, phoneNumber, data)
	}
	return data, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
