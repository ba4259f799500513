package docker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/pkg/archive"
)

// ImageExists reports whether an image with exactly this tag is present
// in the engine's local store.
func (c *Client) ImageExists(ctx context.Context, tag string) (bool, error) {
	args := filters.NewArgs()
	args.Add("reference", tag)

	images, err := c.cli.ImageList(ctx, image.ListOptions{Filters: args})
	if err != nil {
		return false, &RuntimeUnavailableError{Cause: err}
	}

	return len(images) > 0, nil
}

// BuildImage tars contextDir, submits it as a build for tag, and writes
// the engine's build output to logw as it arrives. A non-zero build
// outcome is returned as an error carrying the engine's message; the
// full log is whatever was written to logw. Labels are stamped onto the
// resulting image.
func (c *Client) BuildImage(ctx context.Context, contextDir, tag string, labels map[string]string, logw io.Writer) error {
	buildCtx, err := archive.TarWithOptions(contextDir, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("failed to create build context: %w", err)
	}
	defer buildCtx.Close()

	resp, err := c.cli.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:       []string{tag},
		Dockerfile: "Dockerfile",
		Remove:     true,
		Labels:     labels,
	})
	if err != nil {
		return fmt.Errorf("image build request failed: %w", err)
	}
	defer resp.Body.Close()

	return parseBuildOutput(resp.Body, logw)
}

// ImageRecord is the daemon's view of one locally stored image.
type ImageRecord struct {
	ID      string
	Tag     string
	Size    int64
	Created time.Time
	Labels  map[string]string
}

// ListImages returns images carrying the given label key, one record
// per tag, sorted by tag.
func (c *Client) ListImages(ctx context.Context, labelKey string) ([]ImageRecord, error) {
	args := filters.NewArgs()
	args.Add("label", labelKey)

	images, err := c.cli.ImageList(ctx, image.ListOptions{Filters: args})
	if err != nil {
		return nil, fmt.Errorf("error listing images: %w", err)
	}

	records := make([]ImageRecord, 0, len(images))
	for _, img := range images {
		for _, tag := range img.RepoTags {
			records = append(records, ImageRecord{
				ID:      img.ID,
				Tag:     tag,
				Size:    img.Size,
				Created: time.Unix(img.Created, 0),
				Labels:  img.Labels,
			})
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Tag < records[j].Tag })
	return records, nil
}

// RemoveImage untags and removes an image by tag.
func (c *Client) RemoveImage(ctx context.Context, tag string) error {
	if _, err := c.cli.ImageRemove(ctx, tag, image.RemoveOptions{}); err != nil {
		return fmt.Errorf("failed to remove image %s: %w", tag, err)
	}
	return nil
}

// parseBuildOutput consumes the engine's JSON message stream, copying
// human-readable output to logw and surfacing the first build error.
func parseBuildOutput(r io.Reader, logw io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Build steps can emit long lines (pip, npm progress).
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		var message struct {
			Stream      string `json:"stream"`
			Error       string `json:"error"`
			ErrorDetail struct {
				Message string `json:"message"`
			} `json:"errorDetail"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &message); err != nil {
			continue
		}

		if message.Stream != "" && logw != nil {
			_, _ = io.WriteString(logw, message.Stream)
		}

		if message.Error != "" {
			if logw != nil {
				_, _ = io.WriteString(logw, message.Error+"\n")
			}
			return fmt.Errorf("%s", message.Error)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading build output: %w", err)
	}
	return nil
}
