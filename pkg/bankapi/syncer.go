package bankapi

import (
	"context"

	"k8s.io/klog"

	"github.com/bcaldwell/bistroledger/pkg/financialimporter"
)

// TransactionSource is implemented by Client.
type TransactionSource interface {
	Transactions(ctx context.Context, accountID string) ([]byte, error)
}

// Syncer pulls the latest transactions of one account and imports them.
type Syncer struct {
	source         TransactionSource
	importer       *financialimporter.TransactionImporter
	accountID      string
	includePending bool
}

func NewSyncer(source TransactionSource, importer *financialimporter.TransactionImporter, accountID string, includePending bool) *Syncer {
	return &Syncer{
		source:         source,
		importer:       importer,
		accountID:      accountID,
		includePending: includePending,
	}
}

func (s *Syncer) Sync(ctx context.Context) (financialimporter.ImportStats, error) {
	payload, err := s.source.Transactions(ctx, s.accountID)
	if err != nil {
		return financialimporter.ImportStats{Source: financialimporter.SourceBankAPI}, err
	}

	rows, err := Normalize(payload, s.includePending)
	if err != nil {
		return financialimporter.ImportStats{Source: financialimporter.SourceBankAPI}, err
	}
	klog.V(2).Infof("bank api returned %d transactions for account %s", len(rows), s.accountID)

	return s.importer.Import(ctx, rows, financialimporter.SourceBankAPI)
}

func (s *Syncer) Run() error {
	_, err := s.Sync(context.Background())
	return err
}
