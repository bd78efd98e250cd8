package service

import (
	"context"
	"time"

	"github.com/vibast-solutions/ms-go-billing/app/entity"
	"github.com/vibast-solutions/ms-go-billing/app/repository"
)

const expiredResponseMessage = "Expired before gateway callback"

// RunExpirePendingBatch fails pending transactions the processor never
// called back about. The finalize guard keeps the sweep from racing a late
// callback: whichever writes first wins and the other is a no-op.
func (s *CheckoutService) RunExpirePendingBatch(ctx context.Context) error {
	now := time.Now().UTC()
	cutoff := now.Add(-s.billingCfg.PendingTimeout)

	items, err := s.txnRepo.ListStalePending(ctx, cutoff, s.batchSize())
	if err != nil {
		return err
	}

	var firstErr error
	for _, txn := range items {
		if txn == nil {
			continue
		}

		applied, err := s.txnRepo.Finalize(ctx, txn.Reference, repository.Finalization{
			Status:          entity.TransactionStatusFailed,
			ResponseMessage: stringPtr(expiredResponseMessage),
			RawCallback:     map[string]string{},
			At:              now,
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if applied {
			s.logger.WithField("reference", txn.Reference).Info("Expired stale pending transaction")
		}
	}

	return firstErr
}
