package poster

import (
	"context"

	"github.com/photogram-hq/photogram-poster/internal/domain"
	"github.com/photogram-hq/photogram-poster/pkg/notify"
)

// ImageSupplier returns one candidate image for a collection reference.
type ImageSupplier interface {
	FetchRandom(ctx context.Context, collections string) (domain.ImageDescriptor, error)
}

// PublishingClient is the two-step remote publishing surface.
type PublishingClient interface {
	CreateContainer(ctx context.Context, userID, imageURL, caption string) (string, error)
	Publish(ctx context.Context, userID, containerID string) error
}

// EventNotifier fans a post event out to downstream sinks.
type EventNotifier interface {
	Send(ctx context.Context, evt notify.Event) (int, error)
}
