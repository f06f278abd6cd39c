package payout

import (
	"context"
	"time"

	"learn-market/internal/logging"
	"learn-market/internal/metrics"
	"learn-market/internal/model"
)

// Ledger is the slice of the earnings store the payout subsystem needs.
type Ledger interface {
	GroupEarningsByReferrer(ctx context.Context, since time.Time) ([]model.ReferrerBatch, error)
	ApproveAllForReferrer(ctx context.Context, referrerID int64) (int64, error)
	ApproveOne(ctx context.Context, earningID int64) error
}

type Service struct {
	ledger Ledger
}

func NewService(ledger Ledger) *Service {
	return &Service{ledger: ledger}
}

// WeekStart returns the start of the current payout week: last Tuesday
// at midnight local time. Payout reviews run on Tuesdays, so a Tuesday
// "now" still looks a full week back.
func WeekStart(now time.Time) time.Time {
	daysBack := int(now.Weekday() - time.Tuesday)
	if daysBack <= 0 {
		daysBack += 7
	}
	day := now.AddDate(0, 0, -daysBack)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
}

// WeeklyView groups the week's earnings per referrer for operator
// review. A batch is Approved only when every entry in it is Approved;
// anything still pending keeps the whole batch Pending. Read-only.
func (s *Service) WeeklyView(ctx context.Context) ([]model.ReferrerBatch, error) {
	batches, err := s.ledger.GroupEarningsByReferrer(ctx, WeekStart(time.Now()))
	if err != nil {
		return nil, err
	}

	for i := range batches {
		batches[i].Status = deriveStatus(batches[i].Entries)
	}
	return batches, nil
}

func deriveStatus(entries []model.BatchEntry) model.PayoutStatus {
	for _, e := range entries {
		if e.PayoutStatus != model.PayoutApproved {
			return model.PayoutPending
		}
	}
	return model.PayoutApproved
}

// ApproveAllForReferrer advances every pending earning of the referrer
// to Approved. Idempotent: retrying reports zero modified rows.
func (s *Service) ApproveAllForReferrer(ctx context.Context, referrerID int64) (int64, error) {
	modified, err := s.ledger.ApproveAllForReferrer(ctx, referrerID)
	if err != nil {
		return 0, err
	}
	metrics.PayoutApprovalsTotal.Add(float64(modified))
	logging.Logg.Info("Payout approved", "referrer_id", referrerID, "modified_count", modified)
	return modified, nil
}

func (s *Service) ApproveOne(ctx context.Context, earningID int64) error {
	if err := s.ledger.ApproveOne(ctx, earningID); err != nil {
		return err
	}
	metrics.PayoutApprovalsTotal.Inc()
	return nil
}
