package mlapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"sjsage522/promolink/helpers"
	"sjsage522/promolink/internal/extractor"
	"sjsage522/promolink/logger"
	"sjsage522/promolink/pkg/errors"
)

// HintAPI is the parse hint of records built from the item API
const HintAPI = "ml_api"

var itemIDPattern = regexp.MustCompile(`\b(MLB)-?(\d{6,})`)

// Client talks to the Mercado Livre items API
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *logger.Logger
}

// New creates a client for the API at baseURL. token may be empty.
func New(baseURL, token string, timeout time.Duration) *Client {
	return NewWithClient(baseURL, token, &http.Client{Timeout: timeout})
}

// NewWithClient creates a client using the given HTTP client
func NewWithClient(baseURL, token string, httpClient *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
		log:     logger.ForComponent("mlapi"),
	}
}

// item is the subset of the items resource we read
type item struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Price           *float64 `json:"price"`
	OriginalPrice   *float64 `json:"original_price"`
	SecureThumbnail string   `json:"secure_thumbnail"`
	Thumbnail       string   `json:"thumbnail"`
	Pictures        []struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
	} `json:"pictures"`
}

// ItemID finds an MLB item id in the final URL, then in the page HTML.
// Ids are returned without the dash, e.g. "MLB1234567890".
func (c *Client) ItemID(finalURL, html string) string {
	for _, s := range []string{finalURL, html} {
		if m := itemIDPattern.FindStringSubmatch(s); m != nil {
			return m[1] + m[2]
		}
	}
	return ""
}

// LookupByID fetches one item and maps it to a product record
func (c *Client) LookupByID(ctx context.Context, id string) (extractor.ProductRecord, error) {
	endpoint := c.baseURL + "/items/" + id

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return extractor.ProductRecord{}, errors.NewAPI(endpoint, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", helpers.RandomUserAgent())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return extractor.ProductRecord{}, errors.NewAPI(endpoint, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return extractor.ProductRecord{}, errors.NewAPI(endpoint, resp.StatusCode, nil)
	}

	var it item
	if err := json.NewDecoder(io.LimitReader(resp.Body, helpers.MaxBodySize)).Decode(&it); err != nil {
		return extractor.ProductRecord{}, errors.NewAPI(endpoint, resp.StatusCode, fmt.Errorf("decode item: %w", err))
	}

	c.log.Debug().
		Str("item_id", id).
		Bool("has_price", it.Price != nil).
		Msg("item fetched")

	return it.record(), nil
}

func (it item) record() extractor.ProductRecord {
	rec := extractor.ProductRecord{
		Title:     it.Title,
		Price:     positive(it.Price),
		OldPrice:  positive(it.OriginalPrice),
		Image:     it.SecureThumbnail,
		ParseHint: HintAPI,
	}
	if len(it.Pictures) > 0 {
		if it.Pictures[0].SecureURL != "" {
			rec.Image = it.Pictures[0].SecureURL
		} else if rec.Image == "" {
			rec.Image = it.Pictures[0].URL
		}
	}
	if rec.Image == "" {
		rec.Image = it.Thumbnail
	}
	return rec.Normalize()
}

func positive(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}
