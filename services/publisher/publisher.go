package publisher

import "context"

// MessageField is the stream entry field holding the JSON envelope
const MessageField = "envelope"

// Publisher represents a service for publishing parsed envelopes
type Publisher interface {
	// Publish appends a message to one of the streams and returns its message id
	Publish(ctx context.Context, message []byte) (string, error)

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}
