package services

import (
	"context"

	"github.com/SscSPs/smartlens_backend/internal/dto"
)

// UsageSvcFacade fronts the vision API and charges credits for paid operations.
type UsageSvcFacade interface {
	// DetectRegions finds text regions in a base64 image. Free unless a detection price is configured.
	DetectRegions(ctx context.Context, accountID string, req dto.DetectRegionsRequest) (*dto.DetectRegionsResponse, error)

	// ExtractText runs OCR over the active regions and debits the extraction cost afterwards.
	ExtractText(ctx context.Context, accountID string, requestID string, req dto.ExtractTextRequest) (*dto.ExtractTextResponse, error)

	// ProcessDocument detects regions in an uploaded file and echoes the image back as base64.
	ProcessDocument(ctx context.Context, accountID string, contents []byte) (*dto.DetectRegionsResponse, error)
}
