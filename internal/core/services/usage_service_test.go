package services_test

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/SscSPs/smartlens_backend/internal/apperrors"
	"github.com/SscSPs/smartlens_backend/internal/core/domain"
	portssvc "github.com/SscSPs/smartlens_backend/internal/core/ports/services"
	"github.com/SscSPs/smartlens_backend/internal/core/services"
	"github.com/SscSPs/smartlens_backend/internal/dto"
	"github.com/SscSPs/smartlens_backend/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// pngBytes is enough of a PNG for content sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

var pngBase64 = base64.StdEncoding.EncodeToString(pngBytes)

// --- Test Suite ---
type UsageServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	vision   *MockVisionClient
	accounts portssvc.AccountSvcFacade
	ledger   portssvc.LedgerSvcFacade
	service  portssvc.UsageSvcFacade
	account  *domain.Account
	clock    time.Time
}

func (suite *UsageServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.clock = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	repos := memory.NewRepositoryProvider(memory.New())
	suite.vision = new(MockVisionClient)
	suite.accounts = services.NewAccountService(repos)
	suite.ledger = services.NewLedgerService(repos)
	suite.service = suite.newService()

	acc, err := suite.accounts.GetOrCreateAccount(suite.ctx, "reader@example.com")
	suite.Require().NoError(err)
	suite.account = acc
}

func (suite *UsageServiceTestSuite) newService(opts ...services.UsageOption) portssvc.UsageSvcFacade {
	opts = append([]services.UsageOption{services.WithUsageClock(func() time.Time { return suite.clock })}, opts...)
	return services.NewUsageService(suite.vision, suite.ledger, suite.accounts, opts...)
}

func (suite *UsageServiceTestSuite) balance() int64 {
	acc, err := suite.accounts.GetAccountByID(suite.ctx, suite.account.AccountID)
	suite.Require().NoError(err)
	return acc.Balance
}

func regions() []domain.Region {
	return []domain.Region{
		{ID: "b", Order: 2, Description: "body", Box: domain.FullPageBox, IsActive: true},
		{ID: "a", Order: 1, Description: "title", Box: domain.BoundingBox{YMax: 100, XMax: 1000}, IsActive: true},
		{ID: "c", Order: 3, Description: "footer", Box: domain.FullPageBox, IsActive: false},
	}
}

// --- ExtractText Tests ---
func (suite *UsageServiceTestSuite) TestExtractText_ChargesAfterSuccess() {
	suite.vision.On("ExtractText", mock.Anything,
		mock.MatchedBy(func(img domain.Image) bool { return img.MIMEType == "image/png" }),
		mock.MatchedBy(func(rs []domain.Region) bool {
			return len(rs) == 2 && rs[0].ID == "a" && rs[1].ID == "b"
		})).Return("Title\n\nBody", nil).Once()

	resp, err := suite.service.ExtractText(suite.ctx, suite.account.AccountID, "req-123", dto.ExtractTextRequest{
		ImageBase64: "data:image/png;base64," + pngBase64,
		Regions:     regions(),
	})

	suite.Require().NoError(err)
	suite.Equal("Title\n\nBody", resp.ExtractedText)
	suite.Equal(int64(1), resp.CreditsCharged)
	suite.Require().NotNil(resp.User)
	suite.Equal(int64(4), resp.User.Credits)
	suite.Equal(int64(4), suite.balance())

	page, err := suite.ledger.ListTransactions(suite.ctx, suite.account.AccountID, dto.ListTransactionsParams{Limit: 1})
	suite.Require().NoError(err)
	suite.Require().Len(page.Transactions, 1)
	last := page.Transactions[0]
	suite.Equal(int64(-1), last.Amount)
	suite.Equal("text extraction", last.Description)
	suite.Require().NotNil(last.Reference)
	suite.Equal("req-123", *last.Reference)
	suite.vision.AssertExpectations(suite.T())
}

func (suite *UsageServiceTestSuite) TestExtractText_NoActiveRegions() {
	rs := regions()
	for i := range rs {
		rs[i].IsActive = false
	}

	resp, err := suite.service.ExtractText(suite.ctx, suite.account.AccountID, "req", dto.ExtractTextRequest{
		ImageBase64: pngBase64,
		Regions:     rs,
	})

	suite.Require().NoError(err)
	suite.Empty(resp.ExtractedText)
	suite.Zero(resp.CreditsCharged)
	suite.Equal(int64(5), suite.balance())
	suite.vision.AssertNotCalled(suite.T(), "ExtractText", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *UsageServiceTestSuite) TestExtractText_InsufficientCreditsSkipsModel() {
	_, err := suite.ledger.Adjust(suite.ctx, suite.account.AccountID, -5, "spent elsewhere")
	suite.Require().NoError(err)

	_, err = suite.service.ExtractText(suite.ctx, suite.account.AccountID, "req", dto.ExtractTextRequest{
		ImageBase64: pngBase64,
		Regions:     regions(),
	})

	suite.ErrorIs(err, apperrors.ErrInsufficientCredits)
	suite.Equal(http.StatusPaymentRequired, apperrors.HTTPStatus(err))
	suite.vision.AssertNotCalled(suite.T(), "ExtractText", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *UsageServiceTestSuite) TestExtractText_ModelFailureIsNotCharged() {
	suite.vision.On("ExtractText", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("quota exceeded")).Once()

	_, err := suite.service.ExtractText(suite.ctx, suite.account.AccountID, "req", dto.ExtractTextRequest{
		ImageBase64: pngBase64,
		Regions:     regions(),
	})

	suite.ErrorIs(err, apperrors.ErrUpstream)
	suite.Equal(int64(5), suite.balance())
}

func (suite *UsageServiceTestSuite) TestExtractText_UnknownAccount() {
	_, err := suite.service.ExtractText(suite.ctx, "missing", "req", dto.ExtractTextRequest{
		ImageBase64: pngBase64,
		Regions:     regions(),
	})
	suite.ErrorIs(err, apperrors.ErrAccountNotFound)
}

func (suite *UsageServiceTestSuite) TestExtractText_FreeWhenCostIsZero() {
	svc := suite.newService(services.WithExtractionCost(0))
	suite.vision.On("ExtractText", mock.Anything, mock.Anything, mock.Anything).Return("text", nil).Once()

	resp, err := svc.ExtractText(suite.ctx, suite.account.AccountID, "req", dto.ExtractTextRequest{
		ImageBase64: pngBase64,
		Regions:     regions(),
	})

	suite.Require().NoError(err)
	suite.Zero(resp.CreditsCharged)
	suite.Equal(int64(5), resp.User.Credits)
}

func (suite *UsageServiceTestSuite) TestImageValidation() {
	small := suite.newService(services.WithMaxImageSize(16))
	tests := []struct {
		name  string
		svc   portssvc.UsageSvcFacade
		image string
	}{
		{"not base64", suite.service, "%%%not-base64%%%"},
		{"empty data url", suite.service, "data:image/png;base64,"},
		{"not an image", suite.service, base64.StdEncoding.EncodeToString([]byte("plain text, not pixels"))},
		{"too large", small, pngBase64},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := tt.svc.ExtractText(suite.ctx, suite.account.AccountID, "req", dto.ExtractTextRequest{
				ImageBase64: tt.image,
				Regions:     regions(),
			})
			suite.ErrorIs(err, apperrors.ErrValidation)

			_, err = tt.svc.DetectRegions(suite.ctx, suite.account.AccountID, dto.DetectRegionsRequest{ImageBase64: tt.image})
			suite.ErrorIs(err, apperrors.ErrValidation)
		})
	}
	suite.vision.AssertNotCalled(suite.T(), "ExtractText", mock.Anything, mock.Anything, mock.Anything)
	suite.vision.AssertNotCalled(suite.T(), "DetectRegions", mock.Anything, mock.Anything)
}

// --- DetectRegions Tests ---
func (suite *UsageServiceTestSuite) TestDetectRegions_BuildsClientRegions() {
	header := domain.BoundingBox{YMin: 10, XMin: 20, YMax: 120, XMax: 980}
	suite.vision.On("DetectRegions", mock.Anything, mock.Anything).Return([]domain.DetectedRegion{
		{Description: "Header", Box: header},
		{Description: "  ", Box: domain.FullPageBox},
	}, nil).Once()

	resp, err := suite.service.DetectRegions(suite.ctx, suite.account.AccountID, dto.DetectRegionsRequest{ImageBase64: pngBase64})

	suite.Require().NoError(err)
	suite.Require().Len(resp.Regions, 2)
	millis := suite.clock.UnixMilli()
	suite.Equal(domain.Region{
		ID: "region_0_" + strconv.FormatInt(millis, 10), Box: header, Order: 1, Description: "Header", IsActive: true,
	}, resp.Regions[0].Region)
	suite.Equal("region_1_"+strconv.FormatInt(millis, 10), resp.Regions[1].ID)
	suite.Equal("Untitled", resp.Regions[1].Description)
	suite.Equal(2, resp.Regions[1].Order)
	suite.Empty(resp.Regions[0].Base64Data)
	suite.Equal(int64(5), suite.balance(), "detection is free by default")
}

func (suite *UsageServiceTestSuite) TestDetectRegions_PricedDetection() {
	svc := suite.newService(services.WithDetectionCost(2))
	suite.vision.On("DetectRegions", mock.Anything, mock.Anything).Return([]domain.DetectedRegion{}, nil).Once()

	_, err := svc.DetectRegions(suite.ctx, suite.account.AccountID, dto.DetectRegionsRequest{ImageBase64: pngBase64})

	suite.Require().NoError(err)
	suite.Equal(int64(3), suite.balance())
}

func (suite *UsageServiceTestSuite) TestDetectRegions_UpstreamFailure() {
	suite.vision.On("DetectRegions", mock.Anything, mock.Anything).Return(nil, errors.New("invalid JSON from model")).Once()

	_, err := suite.service.DetectRegions(suite.ctx, suite.account.AccountID, dto.DetectRegionsRequest{ImageBase64: pngBase64})

	suite.ErrorIs(err, apperrors.ErrUpstream)
	suite.Equal(http.StatusBadGateway, apperrors.HTTPStatus(err))
}

func (suite *UsageServiceTestSuite) TestProcessDocument_AttachesImage() {
	suite.vision.On("DetectRegions", mock.Anything, mock.Anything).Return([]domain.DetectedRegion{
		{Description: "Only block", Box: domain.FullPageBox},
	}, nil).Once()

	resp, err := suite.service.ProcessDocument(suite.ctx, suite.account.AccountID, pngBytes)

	suite.Require().NoError(err)
	suite.Require().Len(resp.Regions, 1)
	suite.Equal(pngBase64, resp.Regions[0].Base64Data)

	_, err = suite.service.ProcessDocument(suite.ctx, suite.account.AccountID, []byte("%PDF-1.4"))
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *UsageServiceTestSuite) TestVisionNotConfigured() {
	svc := services.NewUsageService(nil, suite.ledger, suite.accounts)

	_, err := svc.DetectRegions(suite.ctx, suite.account.AccountID, dto.DetectRegionsRequest{ImageBase64: pngBase64})
	suite.ErrorIs(err, apperrors.ErrUpstream)
	suite.Equal(http.StatusServiceUnavailable, apperrors.HTTPStatus(err))

	_, err = svc.ExtractText(suite.ctx, suite.account.AccountID, "req", dto.ExtractTextRequest{ImageBase64: pngBase64, Regions: regions()})
	suite.Equal(http.StatusServiceUnavailable, apperrors.HTTPStatus(err))
	suite.Equal(int64(5), suite.balance())
}

func TestUsageServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UsageServiceTestSuite))
}

// --- Charging, with a mock ledger ---
func TestUsageService_DebitRetry(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewRepositoryProvider(memory.New())
	accounts := services.NewAccountService(repos)
	acc, err := accounts.GetOrCreateAccount(ctx, "retry@example.com")
	if err != nil {
		t.Fatal(err)
	}
	req := dto.ExtractTextRequest{ImageBase64: pngBase64, Regions: regions()}

	t.Run("conflict is retried once", func(t *testing.T) {
		vision := new(MockVisionClient)
		ledger := new(MockLedgerWriter)
		vision.On("ExtractText", mock.Anything, mock.Anything, mock.Anything).Return("text", nil).Once()
		ledger.On("Debit", mock.Anything, acc.AccountID, int64(1), "text extraction", "req-1").Return(nil, apperrors.ErrLockTimeout).Once()
		ledger.On("Debit", mock.Anything, acc.AccountID, int64(1), "text extraction", "req-1").Return(&domain.Account{AccountID: acc.AccountID, Balance: 4}, nil).Once()

		svc := services.NewUsageService(vision, ledger, accounts)
		resp, err := svc.ExtractText(ctx, acc.AccountID, "req-1", req)

		assert.NoError(t, err)
		assert.Equal(t, "text", resp.ExtractedText)
		assert.Equal(t, int64(4), resp.User.Credits)
		ledger.AssertNumberOfCalls(t, "Debit", 2)
	})

	t.Run("text is withheld when the charge fails", func(t *testing.T) {
		vision := new(MockVisionClient)
		ledger := new(MockLedgerWriter)
		vision.On("ExtractText", mock.Anything, mock.Anything, mock.Anything).Return("secret text", nil).Once()
		ledger.On("Debit", mock.Anything, acc.AccountID, int64(1), "text extraction", "req-2").Return(nil, apperrors.ErrConcurrencyConflict).Twice()

		svc := services.NewUsageService(vision, ledger, accounts)
		resp, err := svc.ExtractText(ctx, acc.AccountID, "req-2", req)

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, apperrors.ErrConcurrencyConflict)
		ledger.AssertNumberOfCalls(t, "Debit", 2)
	})

	t.Run("insufficient credits after the model call is not retried", func(t *testing.T) {
		vision := new(MockVisionClient)
		ledger := new(MockLedgerWriter)
		vision.On("ExtractText", mock.Anything, mock.Anything, mock.Anything).Return("text", nil).Once()
		ledger.On("Debit", mock.Anything, acc.AccountID, int64(1), "text extraction", "req-3").Return(nil, apperrors.ErrInsufficientCredits).Once()

		svc := services.NewUsageService(vision, ledger, accounts)
		_, err := svc.ExtractText(ctx, acc.AccountID, "req-3", req)

		assert.ErrorIs(t, err, apperrors.ErrInsufficientCredits)
		ledger.AssertNumberOfCalls(t, "Debit", 1)
	})
}
