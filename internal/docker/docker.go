// Package docker wraps the Docker Engine SDK behind a narrow interface:
// normalized summaries in, engine errors out. Handlers never touch raw
// SDK types.
package docker

import (
	"context"
	"io"

	"github.com/portside-sh/portside/internal/models"
)

// Client abstracts the engine operations the dashboard needs.
type Client interface {
	// ListRunningContainers returns summaries for running containers,
	// excluding those created from an image that no longer has a tag.
	// Ports and environment come from a per-container inspect; an
	// inspect failure degrades to empty lists, never fails the listing.
	ListRunningContainers(ctx context.Context) ([]models.ContainerSummary, error)

	// ListImages returns locally cached images that carry at least one
	// real (non-placeholder) tag.
	ListImages(ctx context.Context) ([]models.ImageSummary, error)

	// ImageInfo inspects an image and returns its declared exposed
	// ports and baked-in environment defaults, both sorted.
	ImageInfo(ctx context.Context, imageRef string) (*models.ImageInfo, error)

	// CreateAndStart creates a container from the request and starts it
	// immediately. The returned ID is valid even when the start step
	// fails, so the caller can locate the orphaned container.
	CreateAndStart(ctx context.Context, req models.CreateContainerRequest) (string, error)

	// StartContainer, StopContainer, and RestartContainer are thin
	// pass-throughs; engine errors surface verbatim.
	StartContainer(ctx context.Context, idOrName string) error
	StopContainer(ctx context.Context, idOrName string) error
	RestartContainer(ctx context.Context, idOrName string) error

	// ContainerLogs returns a log reader: a bounded recent-lines
	// snapshot, or with follow an open-ended stream that ends only when
	// ctx is cancelled. The caller must close the reader.
	ContainerLogs(ctx context.Context, id string, tail string, follow bool) (io.ReadCloser, error)

	// ContainerMetrics samples resource usage for every running
	// container. Containers whose stats call fails are skipped.
	ContainerMetrics(ctx context.Context) ([]models.ContainerMetrics, error)

	// SystemMetrics returns host-wide counts and the engine version.
	SystemMetrics(ctx context.Context) (models.SystemMetrics, error)

	// Close releases the underlying connection.
	Close() error
}

// NewClient returns a mock client when mock is true (for development and
// tests without a daemon socket), otherwise an SDK client.
func NewClient(mock bool, socketPath string) (Client, error) {
	if mock {
		return NewMockClient(), nil
	}
	return NewSDKClient(socketPath)
}
