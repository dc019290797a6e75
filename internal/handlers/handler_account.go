package handlers

import (
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/smartlens_backend/internal/core/ports/services"
	"github.com/SscSPs/smartlens_backend/internal/dto"
	"github.com/SscSPs/smartlens_backend/internal/middleware"
	"github.com/SscSPs/smartlens_backend/internal/platform/config"
	"github.com/SscSPs/smartlens_backend/internal/utils"
	"github.com/gin-gonic/gin"
)

const defaultDebitDescription = "credit usage"

// accountHandler handles account and credit ledger requests.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
	ledgerService  portssvc.LedgerSvcFacade
	cfg            *config.Config
}

func newAccountHandler(as portssvc.AccountSvcFacade, ls portssvc.LedgerSvcFacade, cfg *config.Config) *accountHandler {
	return &accountHandler{
		accountService: as,
		ledgerService:  ls,
		cfg:            cfg,
	}
}

// registerAccountRoutes registers login, self-service account routes and admin credit routes.
func registerAccountRoutes(api *gin.RouterGroup, cfg *config.Config, as portssvc.AccountSvcFacade, ls portssvc.LedgerSvcFacade) {
	h := newAccountHandler(as, ls, cfg)

	users := api.Group("/users")
	users.POST("", h.login)

	self := users.Group("/:userID", middleware.AuthMiddleware(cfg.JWTSecret), middleware.RequireSelf("userID"))
	{
		self.GET("", h.getAccount)
		self.GET("/transactions", h.listTransactions)
		self.GET("/summary", h.getSummary)
		self.POST("/debit", h.debit)
	}

	admin := api.Group("/admin", middleware.AdminAuthMiddleware(cfg.AdminTokenHash))
	{
		admin.POST("/users/:userID/credit", h.credit)
		admin.POST("/users/:userID/adjustments", h.adjust)
	}
}

// login godoc
// @Summary Create or get a user
// @Description Returns the account for the email, creating it with the initial credit grant on first login. The response carries a bearer token for the other endpoints.
// @Tags users
// @Accept json
// @Produce json
// @Param request body dto.GetOrCreateAccountRequest true "Login email"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/users [post]
func (h *accountHandler) login(c *gin.Context) {
	var req dto.GetOrCreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	acc, err := h.accountService.GetOrCreateAccount(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err, "Failed to get or create account")
		return
	}

	token, expiresAt, err := utils.GenerateAccessToken(acc.AccountID, h.cfg.JWTSecret, h.cfg.JWTExpiryDuration, h.cfg.JWTIssuer)
	if err != nil {
		respondError(c, err, "Failed to issue access token")
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("User logged in", slog.String("account_id", acc.AccountID))
	c.JSON(http.StatusOK, dto.LoginResponse{
		User:        dto.ToAccountResponse(acc),
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
	})
}

// getAccount godoc
// @Summary Get a user
// @Description Retrieves the caller's account and credit balance.
// @Tags users
// @Produce json
// @Param userID path string true "User ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/users/{userID} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	acc, err := h.accountService.GetAccountByID(c.Request.Context(), c.Param("userID"))
	if err != nil {
		respondError(c, err, "Failed to get account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(acc))
}

// listTransactions godoc
// @Summary List a user's transactions
// @Description Lists the caller's credit transactions, newest first.
// @Tags users
// @Produce json
// @Param userID path string true "User ID"
// @Param limit query int false "Page size (1-500, default 100)"
// @Param nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/users/{userID}/transactions [get]
func (h *accountHandler) listTransactions(c *gin.Context) {
	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.ledgerService.ListTransactions(c.Request.Context(), c.Param("userID"), params)
	if err != nil {
		respondError(c, err, "Failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getSummary godoc
// @Summary Reconcile a user's balance
// @Description Compares the stored balance with the sum of the transaction log.
// @Tags users
// @Produce json
// @Param userID path string true "User ID"
// @Success 200 {object} dto.LedgerSummaryResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/users/{userID}/summary [get]
func (h *accountHandler) getSummary(c *gin.Context) {
	summary, err := h.ledgerService.Reconcile(c.Request.Context(), c.Param("userID"))
	if err != nil {
		respondError(c, err, "Failed to reconcile account")
		return
	}
	c.JSON(http.StatusOK, dto.ToLedgerSummaryResponse(summary))
}

// debit godoc
// @Summary Spend credits
// @Description Removes credits from the caller's account. Fails with 402 if the balance is too low.
// @Tags users
// @Accept json
// @Produce json
// @Param userID path string true "User ID"
// @Param request body dto.DebitRequest true "Debit"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} ErrorResponse
// @Failure 402 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/users/{userID}/debit [post]
func (h *accountHandler) debit(c *gin.Context) {
	var req dto.DebitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Description == "" {
		req.Description = defaultDebitDescription
	}

	ref := middleware.GetRequestIDFromCtx(c.Request.Context())
	acc, err := h.ledgerService.Debit(c.Request.Context(), c.Param("userID"), req.Amount, req.Description, ref)
	if err != nil {
		respondError(c, err, "Failed to debit credits")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(acc))
}

// credit godoc
// @Summary Grant credits
// @Description Adds credits to a user's account. Requires the admin token.
// @Tags admin
// @Accept json
// @Produce json
// @Param userID path string true "User ID"
// @Param request body dto.CreditRequest true "Credit"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security AdminToken
// @Router /api/admin/users/{userID}/credit [post]
func (h *accountHandler) credit(c *gin.Context) {
	var req dto.CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Description == "" {
		req.Description = "credit grant"
	}

	acc, err := h.ledgerService.Credit(c.Request.Context(), c.Param("userID"), req.Amount, req.Description)
	if err != nil {
		respondError(c, err, "Failed to credit account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(acc))
}

// adjust godoc
// @Summary Record a manual adjustment
// @Description Applies a signed correction to a user's balance. Requires the admin token.
// @Tags admin
// @Accept json
// @Produce json
// @Param userID path string true "User ID"
// @Param request body dto.AdjustmentRequest true "Adjustment"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 402 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security AdminToken
// @Router /api/admin/users/{userID}/adjustments [post]
func (h *accountHandler) adjust(c *gin.Context) {
	var req dto.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	acc, err := h.ledgerService.Adjust(c.Request.Context(), c.Param("userID"), req.Amount, req.Description)
	if err != nil {
		respondError(c, err, "Failed to adjust account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(acc))
}
