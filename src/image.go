package bedtime

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// posterEssenceLength bounds the story excerpt embedded in the poster
// prompt.
const posterEssenceLength = 200

// ImageClient generates a single poster image for a prompt. Backends:
// DALL-E 3, the AI Horde, or a local Stable Diffusion WebUI.
type ImageClient interface {
	GeneratePoster(ctx context.Context, prompt string) ([]byte, error)
}

// PosterPrompt composes the image prompt for a completed story: a
// shortened story essence wrapped in text-free illustration instructions.
func PosterPrompt(scenes []string) string {
	essence := shorten(strings.Join(scenes, " "), posterEssenceLength)
	return fmt.Sprintf(
		"A fantasy scene with %s\n\n"+
			"Medium: Digital painting\n"+
			"Style: Soft, dreamlike, no text\n\n"+
			"Rule: Image only. Zero text. No words. No letters. No writing. "+
			"No labels. No captions. Visual only.",
		essence,
	)
}

// shorten truncates text to width at a word boundary, appending an
// ellipsis when anything was cut.
func shorten(text string, width int) string {
	fields := strings.Fields(text)
	joined := strings.Join(fields, " ")
	if len([]rune(joined)) <= width {
		return joined
	}
	out := ""
	for _, f := range fields {
		next := out
		if next != "" {
			next += " "
		}
		next += f
		if len([]rune(next))+2 > width {
			break
		}
		out = next
	}
	return out + " …"
}

// DallEClient generates posters with DALL-E 3.
type DallEClient struct {
	client *openai.Client
}

// NewDallEClient builds a poster backend on the OpenAI image API.
func NewDallEClient(client *openai.Client) *DallEClient {
	return &DallEClient{client: client}
}

func (d *DallEClient) GeneratePoster(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := d.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          openai.CreateImageModelDallE3,
		Size:           openai.CreateImageSize1024x1024,
		Quality:        openai.CreateImageQualityStandard,
		N:              1,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("dall-e request: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no images generated")
	}
	image, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return image, nil
}

// LocalClient generates posters against a self-hosted Stable Diffusion
// WebUI instance.
type LocalClient struct {
	baseURL string
	http    *http.Client
}

// NewLocalClient builds a poster backend on the SD-WebUI txt2img API.
func NewLocalClient(baseURL string) *LocalClient {
	return &LocalClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		// SD generation can take a while.
		http: &http.Client{Timeout: 5 * time.Minute},
	}
}

type sdWebUIRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Steps          int     `json:"steps"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	CFGScale       float64 `json:"cfg_scale,omitempty"`
	BatchSize      int     `json:"batch_size,omitempty"`
}

type sdWebUIResponse struct {
	Images []string `json:"images"`
	Info   string   `json:"info"`
	Error  string   `json:"error,omitempty"`
}

func (l *LocalClient) GeneratePoster(ctx context.Context, prompt string) ([]byte, error) {
	if l.baseURL == "" {
		return nil, fmt.Errorf("sd-webui url not configured")
	}

	payload, err := json.Marshal(sdWebUIRequest{
		Prompt:    prompt,
		Steps:     20,
		Width:     1024,
		Height:    1024,
		CFGScale:  3.0,
		BatchSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		l.baseURL+"/sdapi/v1/txt2img", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sd-webui request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var sdResp sdWebUIResponse
	if err := json.Unmarshal(body, &sdResp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(sdResp.Images) == 0 {
		return nil, fmt.Errorf("no images generated")
	}

	image, err := base64.StdEncoding.DecodeString(sdResp.Images[0])
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return image, nil
}
