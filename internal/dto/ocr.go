package dto

import "github.com/SscSPs/smartlens_backend/internal/core/domain"

// DetectRegionsRequest is the request model for region detection.
type DetectRegionsRequest struct {
	ImageBase64 string `json:"imageBase64" binding:"required"`
}

// RegionResponse is a detected region. Base64Data is only set by process-document.
type RegionResponse struct {
	domain.Region
	Base64Data string `json:"base64Data,omitempty"`
}

// DetectRegionsResponse wraps detected regions.
type DetectRegionsResponse struct {
	Regions []RegionResponse `json:"regions"`
}

// ExtractTextRequest is the request model for text extraction.
type ExtractTextRequest struct {
	ImageBase64 string          `json:"imageBase64" binding:"required"`
	Regions     []domain.Region `json:"regions" binding:"required,dive"`
}

// ExtractTextResponse returns the OCR result and the account state after charging.
type ExtractTextResponse struct {
	ExtractedText  string           `json:"extractedText"`
	CreditsCharged int64            `json:"creditsCharged"`
	User           *AccountResponse `json:"user,omitempty"`
}
