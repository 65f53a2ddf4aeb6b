// Package unsplash implements the stock-photo supplier client.
package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/photogram-hq/photogram-poster/internal/domain"
	"github.com/photogram-hq/photogram-poster/internal/logger"
	"github.com/photogram-hq/photogram-poster/pkg/httpclient"
)

// Target crop applied to every returned image URL (portrait post format).
const cropParams = "&fit=crop&w=1080&h=1350"

// SupplierError describes a failed image fetch: transport error, non-2xx
// status, or a response missing required fields.
type SupplierError struct {
	Op     string
	Status int
	Err    error
}

func (e *SupplierError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unsplash %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("unsplash %s: status %d", e.Op, e.Status)
}

func (e *SupplierError) Unwrap() error { return e.Err }

// Client calls the Unsplash-compatible API.
type Client struct {
	http       httpclient.Client
	baseURL    string
	accessKey  string
	apiVersion string
	log        logger.Logger
}

// NewClient wires a supplier client. The base URL must end with a slash.
func NewClient(http httpclient.Client, baseURL, accessKey, apiVersion string, log logger.Logger) *Client {
	return &Client{
		http:       http,
		baseURL:    baseURL,
		accessKey:  accessKey,
		apiVersion: apiVersion,
		log:        logger.Ensure(log),
	}
}

type randomPhotoResponse struct {
	ID   string `json:"id"`
	URLs struct {
		Raw string `json:"raw"`
	} `json:"urls"`
	User struct {
		Name string `json:"name"`
	} `json:"user"`
}

// FetchRandom requests one random image from the given collection set. The
// supplier-side content filter is always set to high; the returned URL is
// adjusted to the target crop before the descriptor is handed back.
func (c *Client) FetchRandom(ctx context.Context, collections string) (domain.ImageDescriptor, error) {
	query := url.Values{
		"collections":    {collections},
		"content_filter": {"high"},
	}
	headers := map[string]string{
		"Authorization":  "Client-ID " + c.accessKey,
		"Accept-Version": c.apiVersion,
	}

	resp, err := c.http.Get(ctx, c.baseURL+"photos/random", query, headers)
	if err != nil {
		return domain.ImageDescriptor{}, &SupplierError{Op: "fetch random photo", Err: err}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return domain.ImageDescriptor{}, &SupplierError{Op: "fetch random photo", Status: resp.StatusCode()}
	}

	var photo randomPhotoResponse
	if err := json.Unmarshal(resp.Body(), &photo); err != nil {
		return domain.ImageDescriptor{}, &SupplierError{Op: "decode random photo", Err: err}
	}
	if photo.URLs.Raw == "" {
		return domain.ImageDescriptor{}, &SupplierError{Op: "decode random photo", Err: fmt.Errorf("response missing urls.raw")}
	}
	if photo.User.Name == "" {
		c.log.WarnObj("random photo response has no author name", "collections", collections)
	}

	imageURL := photo.URLs.Raw + cropParams
	desc := domain.ImageDescriptor{
		ID:     DeriveImageID(imageURL, photo.ID),
		URL:    imageURL,
		Author: photo.User.Name,
	}

	c.log.InfoObj("image fetched", "image", map[string]any{
		"image_id":    desc.ID,
		"collections": collections,
		"author":      desc.Author,
	})
	return desc, nil
}

// DeriveImageID extracts the stable image identifier from the final
// (crop-adjusted) image URL: the substring between the first "photo-" marker
// and the next "?". Hosts that do not use the photo- URL scheme fall back to
// the API's own photo id so duplicate detection stays stable across runs.
func DeriveImageID(imageURL, fallbackID string) string {
	_, after, found := strings.Cut(imageURL, "photo-")
	if !found {
		return fallbackID
	}
	id, _, _ := strings.Cut(after, "?")
	if id == "" {
		return fallbackID
	}
	return id
}
