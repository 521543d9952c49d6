package ports

import "github.com/arkade-os/tgpay/internal/core/domain"

type RepoManager interface {
	Ledger() domain.LedgerRepository
	Close()
}
