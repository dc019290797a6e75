package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/SscSPs/smartlens_backend/internal/apperrors"
	portssvc "github.com/SscSPs/smartlens_backend/internal/core/ports/services"
	"github.com/SscSPs/smartlens_backend/internal/dto"
	"github.com/SscSPs/smartlens_backend/internal/middleware"
	"github.com/SscSPs/smartlens_backend/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// requestOverhead leaves room for JSON or multipart framing around the image.
const requestOverhead = 1 << 20

// ocrHandler proxies region detection and text extraction for authenticated users.
type ocrHandler struct {
	usageService portssvc.UsageSvcFacade
	maxImageSize int64
}

func newOCRHandler(us portssvc.UsageSvcFacade, maxImageSize int64) *ocrHandler {
	return &ocrHandler{usageService: us, maxImageSize: maxImageSize}
}

func registerOCRRoutes(api *gin.RouterGroup, cfg *config.Config, us portssvc.UsageSvcFacade) {
	h := newOCRHandler(us, cfg.MaxImageSize)

	ocr := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret))
	{
		ocr.POST("/detect-regions", h.detectRegions)
		ocr.POST("/extract-text", h.extractText)
		ocr.POST("/process-document", h.processDocument)
	}
}

// base64Limit bounds a JSON body carrying a base64 image of at most maxImageSize bytes.
func (h *ocrHandler) base64Limit() int64 {
	return (h.maxImageSize+2)/3*4 + requestOverhead
}

// detectRegions godoc
// @Summary Detect text regions
// @Description Finds the major blocks of text in a base64 image. Coordinates are normalized to 0-1000.
// @Tags ocr
// @Accept json
// @Produce json
// @Param request body dto.DetectRegionsRequest true "Image"
// @Success 200 {object} dto.DetectRegionsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/detect-regions [post]
func (h *ocrHandler) detectRegions(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized, "Authentication required")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.base64Limit())
	var req dto.DetectRegionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.usageService.DetectRegions(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err, "Failed to detect regions")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// extractText godoc
// @Summary Extract text
// @Description Runs OCR over the active regions in order and charges the extraction cost. Fails with 402 before calling the model if the balance is too low.
// @Tags ocr
// @Accept json
// @Produce json
// @Param request body dto.ExtractTextRequest true "Image and regions"
// @Success 200 {object} dto.ExtractTextResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 402 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/extract-text [post]
func (h *ocrHandler) extractText(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized, "Authentication required")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.base64Limit())
	var req dto.ExtractTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	requestID := middleware.GetRequestIDFromCtx(c.Request.Context())
	resp, err := h.usageService.ExtractText(c.Request.Context(), userID, requestID, req)
	if err != nil {
		respondError(c, err, "Failed to extract text")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// processDocument godoc
// @Summary Detect regions in an uploaded file
// @Description Accepts a multipart image upload, detects its text regions and returns each region with the image as base64.
// @Tags ocr
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Success 200 {object} dto.DetectRegionsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/process-document [post]
func (h *ocrHandler) processDocument(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized, "Authentication required")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImageSize+requestOverhead)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondBindError(c, err)
		return
	}
	if fileHeader.Size > h.maxImageSize {
		respondError(c, fmt.Errorf("%w: file exceeds %d bytes", apperrors.ErrValidation, h.maxImageSize), "File too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, fmt.Errorf("%w: cannot read upload: %v", apperrors.ErrValidation, err), "Failed to read upload")
		return
	}
	defer file.Close()

	contents, err := io.ReadAll(io.LimitReader(file, h.maxImageSize+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		respondError(c, err, "Failed to read upload")
		return
	}

	resp, err := h.usageService.ProcessDocument(c.Request.Context(), userID, contents)
	if err != nil {
		respondError(c, err, "Failed to process document")
		return
	}
	c.JSON(http.StatusOK, resp)
}
