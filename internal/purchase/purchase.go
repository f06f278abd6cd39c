package purchase

import (
	"context"
	"errors"
	"fmt"

	"learn-market/internal/commission"
	"learn-market/internal/logging"
	"learn-market/internal/metrics"
	"learn-market/internal/model"
	"learn-market/internal/notify"
)

var (
	ErrNoCourses    = errors.New("no course ids supplied")
	ErrNoReferrer   = errors.New("you cannot proceed")
	ErrAlreadyOwned = errors.New("course already purchased")
	ErrNotAllowed   = errors.New("actor is not allowed to cancel this order")
)

// Store is the persistence surface of the orchestrator. *store.Database
// satisfies it; tests plug in fakes.
type Store interface {
	GetAccountByID(ctx context.Context, id int64) (*model.Account, error)
	CoursesByIDs(ctx context.Context, ids []int64) ([]model.Course, error)
	OwnedCourseIDs(ctx context.Context, accountID int64) ([]int64, error)
	CreatePurchase(ctx context.Context, purchaserID, referrerID int64,
		courses []model.Course, amounts commission.Breakdown) (*model.Order, *model.Earning, error)
	GetOrderByID(ctx context.Context, id int64) (*model.Order, error)
	CancelOrder(ctx context.Context, orderID int64) (*model.Order, error)
}

// Notifier queues a fire-and-forget message. *notify.Dispatcher satisfies it.
type Notifier interface {
	Enqueue(msg notify.Message)
}

type Service struct {
	store    Store
	notifier Notifier
}

func NewService(store Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// CreateOrder validates the purchase, computes the commission split and
// hands every write to the store as one transaction. An account without
// a referrer cannot purchase; that is a hard business rule.
func (s *Service) CreateOrder(ctx context.Context, purchaserID int64, courseIDs []int64) (*model.Order, error) {
	if len(courseIDs) == 0 {
		return nil, ErrNoCourses
	}
	if hasDuplicates(courseIDs) {
		return nil, ErrNoCourses
	}

	purchaser, err := s.store.GetAccountByID(ctx, purchaserID)
	if err != nil {
		return nil, err
	}
	if purchaser.ReferredBy == nil {
		return nil, ErrNoReferrer
	}

	referrer, err := s.store.GetAccountByID(ctx, *purchaser.ReferredBy)
	if err != nil {
		return nil, fmt.Errorf("resolving referrer: %w", err)
	}

	courses, err := s.store.CoursesByIDs(ctx, courseIDs)
	if err != nil {
		return nil, err
	}

	owned, err := s.store.OwnedCourseIDs(ctx, purchaserID)
	if err != nil {
		return nil, err
	}
	ownedSet := make(map[int64]bool, len(owned))
	for _, id := range owned {
		ownedSet[id] = true
	}
	for _, c := range courses {
		if ownedSet[c.ID] {
			return nil, ErrAlreadyOwned
		}
	}

	amounts := make([]commission.CourseAmount, 0, len(courses))
	for _, c := range courses {
		amounts = append(amounts, commission.CourseAmount{
			Price:    c.DiscountedPrice,
			BonusPct: c.ReferralBonusPct,
		})
	}
	breakdown, err := commission.Calculate(amounts)
	if err != nil {
		return nil, err
	}

	order, earning, err := s.store.CreatePurchase(ctx, purchaserID, referrer.ID, courses, *breakdown)
	if err != nil {
		return nil, err
	}

	metrics.PurchasesTotal.Inc()
	credited, _ := earning.AmountCredited.Float64()
	metrics.AmountCreditedTotal.Add(credited)

	logging.Logg.Info("Purchase completed",
		"payment_id", order.PaymentID,
		"purchaser", purchaserID,
		"referrer", referrer.ID,
		"amount_credited", earning.AmountCredited,
	)

	if s.notifier != nil {
		s.notifier.Enqueue(notify.Message{
			To:      purchaser.Email,
			Subject: "Course Purchased! You can start learning.",
			Body:    fmt.Sprintf("Your payment %s for %d course(s) was received.", order.PaymentID, len(courses)),
		})
	}

	return order, nil
}

// CancelOrder sets the order status to Cancelled. An operator may cancel
// any order, a user only their own. The earning and the referrer's
// balance are left untouched.
func (s *Service) CancelOrder(ctx context.Context, orderID int64, actor *model.Account) (*model.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleOperator && order.AccountID != actor.ID {
		return nil, ErrNotAllowed
	}
	return s.store.CancelOrder(ctx, orderID)
}

func hasDuplicates(ids []int64) bool {
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return true
		}
		seen[id] = true
	}
	return false
}
