package notify

import "context"

// Sink delivers post events to a downstream target (HTTP hook, SQS, etc).
type Sink interface {
	ID() string
	Type() string
	Send(ctx context.Context, evt Event) error
}
