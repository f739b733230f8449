package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeValidation represents missing or malformed request input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeFetch represents a non-success HTTP status or transport failure while resolving a page
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeBlocked represents a bot-check or captcha page served instead of content
	ErrorTypeBlocked ErrorType = "blocked"
	// ErrorTypeParsing represents HTML/URL parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRender represents headless browser failures
	ErrorTypeRender ErrorType = "render"
	// ErrorTypeAPI represents failures of the store item-lookup API
	ErrorTypeAPI ErrorType = "api"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError represents a failure while turning a link into a product record
type ScrapeError struct {
	Type       ErrorType
	URL        string
	Message    string
	StatusCode int
	Err        error
	Time       time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s - %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// New creates a new ScrapeError
func New(errType ErrorType, url, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		URL:     url,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewMissingInput creates the error returned when no URL was supplied
func NewMissingInput(message string) *ScrapeError {
	return New(ErrorTypeValidation, "", message, nil)
}

// NewFetch creates a fetch error. statusCode is 0 for transport failures.
func NewFetch(url string, statusCode int, err error) *ScrapeError {
	message := "request failed"
	if statusCode != 0 {
		message = fmt.Sprintf("HTTP %d while fetching page", statusCode)
	}
	e := New(ErrorTypeFetch, url, message, err)
	e.StatusCode = statusCode
	return e
}

// NewBlocked creates a bot-check detection error
func NewBlocked(url, signature string) *ScrapeError {
	return New(ErrorTypeBlocked, url, fmt.Sprintf("bot check detected (%s)", signature), nil)
}

// NewParsing creates a new parsing error
func NewParsing(url, message string, err error) *ScrapeError {
	return New(ErrorTypeParsing, url, message, err)
}

// NewRender creates a new render error
func NewRender(url, message string, err error) *ScrapeError {
	return New(ErrorTypeRender, url, message, err)
}

// NewAPI creates a new item-lookup API error
func NewAPI(url string, statusCode int, err error) *ScrapeError {
	e := New(ErrorTypeAPI, url, fmt.Sprintf("item lookup failed with status %d", statusCode), err)
	e.StatusCode = statusCode
	return e
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsType reports whether err wraps a ScrapeError of the given type
func IsType(err error, errType ErrorType) bool {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se.Type == errType
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
