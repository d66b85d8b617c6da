package advisor

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const defaultVideoModel = "veo-2.0-generate-001"

// ErrGenerationFailed is returned when a video job finishes without a result.
var ErrGenerationFailed = errors.New("advisor: video generation failed")

// AnimateImage starts a video-generation job from a prompt, optionally seeded
// with a base64-encoded image, then polls the long-running operation until it
// completes or ctx is cancelled. It returns the URI of the generated video.
func (c *Client) AnimateImage(ctx context.Context, prompt, imageBase64, mimeType string) (string, error) {
	var img *genai.Image
	if imageBase64 != "" {
		raw, err := base64.StdEncoding.DecodeString(imageBase64)
		if err != nil {
			return "", fmt.Errorf("decode image: %w", err)
		}
		img = &genai.Image{ImageBytes: raw, MIMEType: mimeType}
	}

	op, err := c.genai.Models.GenerateVideos(ctx, defaultVideoModel, prompt, img, nil)
	if err != nil {
		return "", fmt.Errorf("start job: %w", err)
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for !op.Done {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
		op, err = c.genai.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return "", fmt.Errorf("poll job: %w", err)
		}
	}

	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video == nil {
		return "", ErrGenerationFailed
	}
	return op.Response.GeneratedVideos[0].Video.URI, nil
}
