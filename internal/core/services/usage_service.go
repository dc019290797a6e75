package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/smartlens_backend/internal/apperrors"
	"github.com/SscSPs/smartlens_backend/internal/core/domain"
	"github.com/SscSPs/smartlens_backend/internal/core/ports/clients"
	portssvc "github.com/SscSPs/smartlens_backend/internal/core/ports/services"
	"github.com/SscSPs/smartlens_backend/internal/dto"
	"github.com/SscSPs/smartlens_backend/internal/middleware"
	"github.com/SscSPs/smartlens_backend/internal/platform/metrics"
	"github.com/gabriel-vasile/mimetype"
)

const (
	DefaultExtractionCost int64 = 1
	DefaultMaxImageSize   int64 = 20 * 1024 * 1024

	extractionDescription = "text extraction"
	detectionDescription  = "region detection"
	untitledRegion        = "Untitled"

	opDetect  = "detect"
	opExtract = "extract"
)

var supportedImageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// errVisionDisabled is returned by every OCR operation when no vision client is configured.
var errVisionDisabled = apperrors.NewAppError(http.StatusServiceUnavailable, "vision API key not configured", apperrors.ErrUpstream)

// usageService proxies the vision API and charges for paid operations through the ledger.
type usageService struct {
	BaseService
	vision         clients.VisionClient
	ledger         portssvc.LedgerWriterSvc
	accounts       portssvc.AccountReaderSvc
	extractionCost int64
	detectionCost  int64
	maxImageSize   int64
}

// UsageOption is a functional option for configuring the usage service
type UsageOption func(*usageService)

// WithExtractionCost sets the credits charged per successful extraction.
func WithExtractionCost(credits int64) UsageOption {
	return func(s *usageService) {
		if credits >= 0 {
			s.extractionCost = credits
		}
	}
}

// WithDetectionCost sets the credits charged per region detection. Zero keeps detection free.
func WithDetectionCost(credits int64) UsageOption {
	return func(s *usageService) {
		if credits >= 0 {
			s.detectionCost = credits
		}
	}
}

// WithMaxImageSize bounds the decoded image size in bytes.
func WithMaxImageSize(n int64) UsageOption {
	return func(s *usageService) {
		if n > 0 {
			s.maxImageSize = n
		}
	}
}

// WithUsageMetrics adds metrics recording
func WithUsageMetrics(m *metrics.Metrics) UsageOption {
	return func(s *usageService) {
		s.Metrics = m
	}
}

// WithUsageClock overrides the time source used for region ids.
func WithUsageClock(now func() time.Time) UsageOption {
	return func(s *usageService) {
		s.Now = now
	}
}

// NewUsageService creates the OCR gateway service. vision may be nil, in which
// case every OCR call fails with a 503 and nothing is charged.
func NewUsageService(vision clients.VisionClient, ledger portssvc.LedgerWriterSvc, accounts portssvc.AccountReaderSvc, options ...UsageOption) portssvc.UsageSvcFacade {
	svc := &usageService{
		vision:         vision,
		ledger:         ledger,
		accounts:       accounts,
		extractionCost: DefaultExtractionCost,
		maxImageSize:   DefaultMaxImageSize,
	}

	for _, option := range options {
		option(svc)
	}

	return svc
}

var _ portssvc.UsageSvcFacade = (*usageService)(nil)

func (s *usageService) DetectRegions(ctx context.Context, accountID string, req dto.DetectRegionsRequest) (*dto.DetectRegionsResponse, error) {
	img, err := s.decodeBase64Image(req.ImageBase64)
	if err != nil {
		return nil, err
	}
	regions, err := s.detect(ctx, accountID, img)
	if err != nil {
		return nil, err
	}
	return &dto.DetectRegionsResponse{Regions: regions}, nil
}

// ProcessDocument detects regions on an uploaded file and attaches the file,
// base64 encoded, to every region.
func (s *usageService) ProcessDocument(ctx context.Context, accountID string, contents []byte) (*dto.DetectRegionsResponse, error) {
	img, err := s.checkImage(contents)
	if err != nil {
		return nil, err
	}
	regions, err := s.detect(ctx, accountID, img)
	if err != nil {
		return nil, err
	}

	encoded := base64.StdEncoding.EncodeToString(contents)
	for i := range regions {
		regions[i].Base64Data = encoded
	}
	return &dto.DetectRegionsResponse{Regions: regions}, nil
}

func (s *usageService) detect(ctx context.Context, accountID string, img domain.Image) ([]dto.RegionResponse, error) {
	if s.vision == nil {
		return nil, errVisionDisabled
	}
	if err := s.precheck(ctx, accountID, s.detectionCost); err != nil {
		return nil, err
	}

	start := time.Now()
	detected, err := s.vision.DetectRegions(ctx, img)
	s.Metrics.RecordVisionCall(opDetect, time.Since(start), upstreamErr(err))
	if err != nil {
		s.LogError(ctx, err, "Region detection failed", slog.String("account_id", accountID))
		return nil, upstreamErr(err)
	}

	if s.detectionCost > 0 {
		ref := middleware.GetRequestIDFromCtx(ctx)
		if _, err := s.charge(ctx, accountID, s.detectionCost, detectionDescription, ref); err != nil {
			return nil, err
		}
	}

	millis := s.now().UnixMilli()
	regions := make([]dto.RegionResponse, len(detected))
	for idx, d := range detected {
		description := strings.TrimSpace(d.Description)
		if description == "" {
			description = untitledRegion
		}
		regions[idx] = dto.RegionResponse{Region: domain.Region{
			ID:          fmt.Sprintf("region_%d_%d", idx, millis),
			Box:         d.Box,
			Order:       idx + 1,
			Description: description,
			IsActive:    true,
		}}
	}

	s.LogInfo(ctx, "Regions detected",
		slog.String("account_id", accountID),
		slog.Int("regions", len(regions)))
	return regions, nil
}

// ExtractText runs OCR over the active regions in order and charges the extraction
// cost once the model has answered. Nothing is charged when no region is active
// or the model fails, and the text is withheld if the charge does not go through.
func (s *usageService) ExtractText(ctx context.Context, accountID string, requestID string, req dto.ExtractTextRequest) (*dto.ExtractTextResponse, error) {
	img, err := s.decodeBase64Image(req.ImageBase64)
	if err != nil {
		return nil, err
	}

	active := activeRegions(req.Regions)
	if len(active) == 0 {
		acc, err := s.accounts.GetAccountByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		user := dto.ToAccountResponse(acc)
		return &dto.ExtractTextResponse{User: &user}, nil
	}

	if s.vision == nil {
		return nil, errVisionDisabled
	}
	if err := s.precheck(ctx, accountID, s.extractionCost); err != nil {
		return nil, err
	}

	start := time.Now()
	text, err := s.vision.ExtractText(ctx, img, active)
	s.Metrics.RecordVisionCall(opExtract, time.Since(start), upstreamErr(err))
	if err != nil {
		s.LogError(ctx, err, "Text extraction failed", slog.String("account_id", accountID))
		return nil, upstreamErr(err)
	}

	resp := &dto.ExtractTextResponse{ExtractedText: text}
	var acc *domain.Account
	if s.extractionCost > 0 {
		acc, err = s.charge(ctx, accountID, s.extractionCost, extractionDescription, requestID)
		if err != nil {
			return nil, err
		}
		resp.CreditsCharged = s.extractionCost
	} else {
		acc, err = s.accounts.GetAccountByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
	}

	user := dto.ToAccountResponse(acc)
	resp.User = &user
	s.LogInfo(ctx, "Text extracted",
		slog.String("account_id", accountID),
		slog.Int("regions", len(active)),
		slog.Int64("credits_charged", resp.CreditsCharged),
		slog.Int64("balance", acc.Balance))
	return resp, nil
}

// precheck fails fast with ErrInsufficientCredits before any model call is made.
func (s *usageService) precheck(ctx context.Context, accountID string, cost int64) error {
	acc, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if cost > 0 && !acc.CanDebit(cost) {
		return fmt.Errorf("%w: balance %d, operation costs %d", apperrors.ErrInsufficientCredits, acc.Balance, cost)
	}
	return nil
}

// charge debits cost, retrying once when the ledger reports a concurrency conflict.
func (s *usageService) charge(ctx context.Context, accountID string, cost int64, description, reference string) (*domain.Account, error) {
	acc, err := s.ledger.Debit(ctx, accountID, cost, description, reference)
	if errors.Is(err, apperrors.ErrConcurrencyConflict) {
		s.LogInfo(ctx, "Retrying debit after conflict", slog.String("account_id", accountID))
		acc, err = s.ledger.Debit(ctx, accountID, cost, description, reference)
	}
	if err != nil {
		s.LogError(ctx, err, "Failed to charge for vision call",
			slog.String("account_id", accountID),
			slog.Int64("cost", cost))
		return nil, err
	}
	return acc, nil
}

// decodeBase64Image accepts raw base64 or a data URL.
func (s *usageService) decodeBase64Image(raw string) (domain.Image, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "data:") {
		if i := strings.Index(raw, ","); i >= 0 {
			raw = raw[i+1:]
		}
	}
	if raw == "" {
		return domain.Image{}, fmt.Errorf("%w: image is empty", apperrors.ErrValidation)
	}
	if int64(base64.StdEncoding.DecodedLen(len(raw))) > s.maxImageSize+2 {
		return domain.Image{}, fmt.Errorf("%w: image exceeds %d bytes", apperrors.ErrValidation, s.maxImageSize)
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: image is not valid base64", apperrors.ErrValidation)
	}
	return s.checkImage(data)
}

func (s *usageService) checkImage(data []byte) (domain.Image, error) {
	if len(data) == 0 {
		return domain.Image{}, fmt.Errorf("%w: image is empty", apperrors.ErrValidation)
	}
	if int64(len(data)) > s.maxImageSize {
		return domain.Image{}, fmt.Errorf("%w: image exceeds %d bytes", apperrors.ErrValidation, s.maxImageSize)
	}
	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), supportedImageTypes...) {
		return domain.Image{}, fmt.Errorf("%w: unsupported image type %s", apperrors.ErrValidation, mtype.String())
	}
	return domain.Image{Data: data, MIMEType: mtype.String()}, nil
}

func activeRegions(regions []domain.Region) []domain.Region {
	active := make([]domain.Region, 0, len(regions))
	for _, r := range regions {
		if r.IsActive {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Order < active[j].Order })
	return active
}

func upstreamErr(err error) error {
	if err == nil || errors.Is(err, apperrors.ErrUpstream) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
}
