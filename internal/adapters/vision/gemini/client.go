// Package gemini implements clients.VisionClient on the Gemini generativelanguage API.
package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/SscSPs/smartlens_backend/internal/apperrors"
	"github.com/SscSPs/smartlens_backend/internal/core/domain"
	"github.com/SscSPs/smartlens_backend/internal/core/ports/clients"
	generativelanguage "google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-2.0-flash"

const detectPrompt = "Identify all major blocks of text in this image. " +
	"Grouping Rule: Do not separate individual paragraphs if they are clearly one after another. " +
	"Group adjacent paragraphs into a single logical region. " +
	"Only create separate regions when there are clear, wide separations. " +
	"Coordinates must be in normalized range (0 to 1000). " +
	"Return ONLY valid JSON array with objects containing: description, ymin, xmin, ymax, xmax. " +
	"No markdown, no code blocks, just raw JSON."

const extractPromptFormat = `Perform OCR on the provided image following the sequence of regions below.
Return ONLY the extracted text, separated by double newlines between regions.
Do not include any explanations, markdown, or metadata.

Regions to process (in order):
%s

Extract text exactly as it appears, maintaining formatting where possible.`

// Client calls Gemini models through the REST API.
type Client struct {
	svc          *generativelanguage.Service
	detectModel  string
	extractModel string
}

var _ clients.VisionClient = (*Client)(nil)

// NewClient creates a client authenticated with apiKey. Extra options are
// appended after the key, so tests can point the client at another endpoint.
func NewClient(ctx context.Context, apiKey, detectModel, extractModel string, opts ...option.ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if detectModel == "" {
		detectModel = DefaultModel
	}
	if extractModel == "" {
		extractModel = DefaultModel
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := generativelanguage.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create service: %w", err)
	}
	return &Client{svc: svc, detectModel: detectModel, extractModel: extractModel}, nil
}

// DetectRegions asks the detect model for text blocks and parses its JSON answer.
func (c *Client) DetectRegions(ctx context.Context, img domain.Image) ([]domain.DetectedRegion, error) {
	text, err := c.generate(ctx, c.detectModel, detectPrompt, img, "application/json")
	if err != nil {
		return nil, err
	}
	regions, err := parseRegions(text)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid response format: %v", apperrors.ErrUpstream, err)
	}
	return regions, nil
}

// ExtractText runs OCR over regions in the order given.
func (c *Client) ExtractText(ctx context.Context, img domain.Image, regions []domain.Region) (string, error) {
	text, err := c.generate(ctx, c.extractModel, extractPrompt(regions), img, "")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) generate(ctx context.Context, model, prompt string, img domain.Image, responseType string) (string, error) {
	req := &generativelanguage.GenerateContentRequest{
		Contents: []*generativelanguage.Content{{
			Role: "user",
			Parts: []*generativelanguage.Part{
				{Text: prompt},
				{InlineData: &generativelanguage.Blob{
					MimeType: img.MIMEType,
					Data:     base64.StdEncoding.EncodeToString(img.Data),
				}},
			},
		}},
	}
	if responseType != "" {
		req.GenerationConfig = &generativelanguage.GenerationConfig{ResponseMimeType: responseType}
	}

	resp, err := c.svc.Models.GenerateContent("models/"+model, req).Context(ctx).Do()
	if err != nil {
		return "", mapError(model, err)
	}
	return responseText(resp)
}

func responseText(resp *generativelanguage.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		reason := "no candidates"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = "prompt blocked: " + resp.PromptFeedback.BlockReason
		}
		return "", fmt.Errorf("%w: gemini returned no content (%s)", apperrors.ErrUpstream, reason)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

func mapError(model string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return fmt.Errorf("%w: gemini %s returned %d: %s", apperrors.ErrUpstream, model, gErr.Code, gErr.Message)
	}
	return fmt.Errorf("%w: gemini %s: %v", apperrors.ErrUpstream, model, err)
}

func extractPrompt(regions []domain.Region) string {
	lines := make([]string, len(regions))
	for i, r := range regions {
		lines[i] = fmt.Sprintf("Region %d: coordinates [%s, %s, %s, %s] - %s",
			r.Order, fmtCoord(r.Box.YMin), fmtCoord(r.Box.XMin), fmtCoord(r.Box.YMax), fmtCoord(r.Box.XMax), r.Description)
	}
	return fmt.Sprintf(extractPromptFormat, strings.Join(lines, "\n"))
}

func fmtCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// regionJSON is one element of the detect model's answer. Missing coordinates
// default to the full page.
type regionJSON struct {
	Description string   `json:"description"`
	YMin        *float64 `json:"ymin"`
	XMin        *float64 `json:"xmin"`
	YMax        *float64 `json:"ymax"`
	XMax        *float64 `json:"xmax"`
}

func parseRegions(text string) ([]domain.DetectedRegion, error) {
	var raw []regionJSON
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &raw); err != nil {
		return nil, err
	}

	regions := make([]domain.DetectedRegion, len(raw))
	for i, r := range raw {
		regions[i] = domain.DetectedRegion{
			Description: r.Description,
			Box: domain.BoundingBox{
				YMin: orDefault(r.YMin, domain.FullPageBox.YMin),
				XMin: orDefault(r.XMin, domain.FullPageBox.XMin),
				YMax: orDefault(r.YMax, domain.FullPageBox.YMax),
				XMax: orDefault(r.XMax, domain.FullPageBox.XMax),
			},
		}
	}
	return regions, nil
}

// stripCodeFence removes a surrounding markdown code block, with or without a language tag.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	if i := strings.LastIndex(text, "```"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
