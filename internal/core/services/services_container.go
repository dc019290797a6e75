package services

import (
	"github.com/SscSPs/smartlens_backend/internal/core/ports/clients"
	portsrepo "github.com/SscSPs/smartlens_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/smartlens_backend/internal/core/ports/services"
	"github.com/SscSPs/smartlens_backend/internal/platform/config"
	"github.com/SscSPs/smartlens_backend/internal/platform/metrics"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// vision may be nil when no API key is configured; m may be nil to disable metrics.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, vision clients.VisionClient, m *metrics.Metrics) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Account = NewAccountService(
		repos,
		WithInitialGrant(cfg.InitialCredits),
		WithAccountMetrics(m),
	)

	container.Ledger = NewLedgerService(
		repos,
		WithLockTimeout(cfg.LedgerLockTimeout),
		WithWriteTimeout(cfg.LedgerWriteTimeout),
		WithLedgerMetrics(m),
	)

	// The usage service only reaches balances through the ledger.
	container.Usage = NewUsageService(
		vision,
		container.Ledger,
		container.Account,
		WithExtractionCost(cfg.CreditsPerExtraction),
		WithDetectionCost(cfg.CreditsPerDetection),
		WithMaxImageSize(cfg.MaxImageSize),
		WithUsageMetrics(m),
	)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.AccountSvcFacade = (*accountService)(nil)
	_ portssvc.LedgerSvcFacade  = (*ledgerService)(nil)
	_ portssvc.UsageSvcFacade   = (*usageService)(nil)
)
