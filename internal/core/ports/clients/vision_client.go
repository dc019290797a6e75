package clients

import (
	"context"

	"github.com/SscSPs/smartlens_backend/internal/core/domain"
)

// VisionClient is the narrow contract of the external vision/OCR model.
type VisionClient interface {
	// DetectRegions finds the major blocks of text in img.
	DetectRegions(ctx context.Context, img domain.Image) ([]domain.DetectedRegion, error)

	// ExtractText performs OCR over regions, which are already filtered to the active ones
	// and sorted by Order. The result separates regions with a blank line.
	ExtractText(ctx context.Context, img domain.Image, regions []domain.Region) (string, error)
}
