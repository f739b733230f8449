package pipeline

import (
	stderrors "errors"

	"sjsage522/promolink/internal/extractor"
	"sjsage522/promolink/internal/store"
	"sjsage522/promolink/pkg/errors"
)

// HintError marks envelopes built after an unrecoverable failure
const HintError = "error"

// Envelope is the response returned for one share link
type Envelope struct {
	Store       string   `json:"store"`
	Title       string   `json:"title"`
	Price       *float64 `json:"price"`
	OldPrice    *float64 `json:"oldPrice"`
	Installment string   `json:"installment"`
	Image       string   `json:"image"`
	ShareURL    string   `json:"shareUrl"`
	FinalURL    string   `json:"finalUrl"`
	ParseHint   string   `json:"parseHint"`
	Note        string   `json:"note,omitempty"`
}

// Failed reports whether the envelope describes a failure
func (e Envelope) Failed() bool {
	return e.ParseHint == HintError
}

// Assemble merges an extractor record with the request context. shareURL is
// kept exactly as received.
func Assemble(storeLabel, shareURL, finalURL string, rec extractor.ProductRecord) Envelope {
	rec = rec.Normalize()

	hint := rec.ParseHint
	if hint == "" {
		hint = "n/a"
	}
	if storeLabel == "" {
		storeLabel = store.Unknown
	}

	return Envelope{
		Store:       storeLabel,
		Title:       rec.Title,
		Price:       rec.Price,
		OldPrice:    rec.OldPrice,
		Installment: rec.Installment,
		Image:       rec.Image,
		ShareURL:    shareURL,
		FinalURL:    finalURL,
		ParseHint:   hint,
	}
}

// ErrorEnvelope builds the well-formed envelope returned when a link could not be parsed
func ErrorEnvelope(shareURL string, err error) Envelope {
	return Envelope{
		Store:     store.Unknown,
		ShareURL:  shareURL,
		ParseHint: HintError,
		Note:      describe(err),
	}
}

func describe(err error) string {
	if err == nil {
		return "unknown error"
	}
	var se *errors.ScrapeError
	if stderrors.As(err, &se) {
		switch se.Type {
		case errors.ErrorTypeFetch:
			if se.StatusCode != 0 {
				return se.Message
			}
			if se.Err != nil {
				return se.Message + ": " + se.Err.Error()
			}
		case errors.ErrorTypeBlocked:
			return se.Message
		}
	}
	return err.Error()
}
