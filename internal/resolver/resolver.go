package resolver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"sjsage522/promolink/helpers"
	"sjsage522/promolink/logger"
	"sjsage522/promolink/pkg/errors"
)

// Signatures of pages served instead of the product when a store suspects automation.
var botCheckPattern = regexp.MustCompile(`(?i)Robot Check|captcha|Are you a human\??|To discuss automated access`)

var socialPath = regexp.MustCompile(`(?i)/social/`)

// ResolvedPage is the fully redirected page body and the URL it landed on.
type ResolvedPage struct {
	HTML     string
	FinalURL string
}

// Resolver follows short links to the product page they point at.
type Resolver struct {
	client *http.Client
	log    *logger.Logger
}

// New creates a resolver whose requests give up after timeout and follow at most maxRedirects hops.
func New(timeout time.Duration, maxRedirects int) *Resolver {
	return NewWithClient(&http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	})
}

// NewWithClient creates a resolver around an existing client
func NewWithClient(client *http.Client) *Resolver {
	return &Resolver{
		client: client,
		log:    logger.ForComponent("resolver"),
	}
}

// Resolve fetches rawURL following every redirect. It fails with a fetch error
// when the final status is not 2xx and with a blocked error when the body is a
// bot check.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*ResolvedPage, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.NewParsing(rawURL, "not an absolute http(s) URL", err)
	}

	req, err := helpers.NewBrowserRequest(ctx, u.String())
	if err != nil {
		return nil, errors.NewParsing(rawURL, "invalid request", err)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errors.NewFetch(rawURL, 0, err)
	}
	defer resp.Body.Close()

	finalURL := u.String()
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	body, readErr := helpers.ReadBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewFetch(finalURL, resp.StatusCode, nil)
	}
	if readErr != nil {
		return nil, errors.NewFetch(finalURL, resp.StatusCode, readErr)
	}

	html := string(body)
	if signature := botCheckPattern.FindString(html); signature != "" {
		return nil, errors.NewBlocked(finalURL, signature)
	}

	r.log.Debug().
		Str("url", rawURL).
		Str("final_url", finalURL).
		Int("status", resp.StatusCode).
		Int("size", len(body)).
		Dur("duration", time.Since(start)).
		Msg("page resolved")

	return &ResolvedPage{HTML: html, FinalURL: finalURL}, nil
}

// FollowCanonical re-resolves page against its canonical link when the link
// points elsewhere or the page is a known social landing page. The original
// page is returned when there is nothing to follow or the second fetch fails.
func (r *Resolver) FollowCanonical(ctx context.Context, page *ResolvedPage) *ResolvedPage {
	canonical := Canonical(page.HTML, page.FinalURL)
	if canonical == "" {
		return page
	}
	if canonical == page.FinalURL && !IsSocialLanding(page.FinalURL) {
		return page
	}

	again, err := r.Resolve(ctx, canonical)
	if err != nil {
		r.log.Warn().
			Err(err).
			Str("canonical", canonical).
			Msg("canonical fetch failed, keeping first page")
		return page
	}
	return again
}

// IsSocialLanding reports whether finalURL is a Mercado Livre social/share
// landing page that sits in front of the real listing.
func IsSocialLanding(finalURL string) bool {
	u, err := url.Parse(finalURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return strings.Contains(host, "mercadolivre") && socialPath.MatchString(u.Path)
}
