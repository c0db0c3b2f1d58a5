package bedtime

import (
	"context"
	"fmt"

	"github.com/opd-ai/horde"
)

// HordeClient generates posters through the crowdsourced AI Horde.
type HordeClient struct {
	*horde.Client
}

// NewHordeClient builds a poster backend on the AI Horde. An empty key
// uses the anonymous queue.
func NewHordeClient(apiKey string) *HordeClient {
	return &HordeClient{
		Client: horde.NewClient(apiKey),
	}
}

// GeneratePoster runs the request/wait/download sequence. The horde API
// is synchronous, so cancellation is only observed between the blocking
// steps, never inside them.
func (c *HordeClient) GeneratePoster(ctx context.Context, prompt string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := horde.GenerationRequest{
		Prompt: prompt,
		Params: horde.Params{
			Steps:     horde.DefaultSteps,
			Width:     horde.DefaultWidth,
			Height:    horde.DefaultHeight,
			ModelName: horde.DefaultModel,
		},
	}

	resp, err := c.RequestGeneration(req)
	if err != nil {
		return nil, fmt.Errorf("requesting generation: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	status, err := c.WaitForCompletion(resp.ID)
	if err != nil {
		return nil, fmt.Errorf("waiting for completion: %w", err)
	}
	if len(status.Generation) == 0 {
		return nil, fmt.Errorf("no results returned")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	image, err := c.DownloadImage(status.Generation[0].Image)
	if err != nil {
		return nil, fmt.Errorf("downloading image: %w", err)
	}
	return image, nil
}
