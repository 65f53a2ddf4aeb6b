package notify

import "time"

// Event is the payload delivered to downstream sinks after a successful post.
type Event struct {
	UserID      string    `json:"user_id"`
	AccountName string    `json:"account_name"`
	ImageID     string    `json:"image_id"`
	ImageURL    string    `json:"image_url"`
	Caption     string    `json:"caption"`
	ContainerID string    `json:"container_id"`
	PostedAt    time.Time `json:"posted_at"`
}

// NewEvent constructs an Event for one published post.
func NewEvent(userID, accountName, imageID, imageURL, caption, containerID string) Event {
	return Event{
		UserID:      userID,
		AccountName: accountName,
		ImageID:     imageID,
		ImageURL:    imageURL,
		Caption:     caption,
		ContainerID: containerID,
		PostedAt:    time.Now().UTC(),
	}
}
