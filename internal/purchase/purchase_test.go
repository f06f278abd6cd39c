package purchase

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learn-market/internal/commission"
	"learn-market/internal/logging"
	"learn-market/internal/model"
	"learn-market/internal/notify"
	"learn-market/internal/store"
)

func TestMain(m *testing.M) {
	logging.Logg = logging.NewLogger("error")
	os.Exit(m.Run())
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeStore mirrors the store's purchase surface in memory. The mutex
// stands in for the transaction isolation the real store gets from SQL.
type fakeStore struct {
	mu       sync.Mutex
	accounts map[int64]*model.Account
	courses  map[int64]model.Course
	owned    map[int64][]int64
	orders   map[int64]*model.Order

	nextSeq   int64
	purchases int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: make(map[int64]*model.Account),
		courses:  make(map[int64]model.Course),
		owned:    make(map[int64][]int64),
		orders:   make(map[int64]*model.Order),
	}
}

func (f *fakeStore) GetAccountByID(_ context.Context, id int64) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	return acc, nil
}

func (f *fakeStore) CoursesByIDs(_ context.Context, ids []int64) ([]model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Course
	for _, id := range ids {
		c, ok := f.courses[id]
		if !ok {
			return nil, store.ErrCourseNotFound
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) OwnedCourseIDs(_ context.Context, accountID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owned[accountID], nil
}

func (f *fakeStore) CreatePurchase(_ context.Context, purchaserID, referrerID int64,
	courses []model.Course, amounts commission.Breakdown) (*model.Order, *model.Earning, error) {

	f.mu.Lock()
	defer f.mu.Unlock()

	rounded := amounts.Rounded()
	f.nextSeq++
	f.purchases++

	order := &model.Order{
		ID:                   f.nextSeq,
		PaymentID:            fmt.Sprintf("PAY%08d", f.nextSeq),
		AccountID:            purchaserID,
		DiscountedPriceTotal: rounded.DiscountedTotal,
		GSTAmount:            rounded.GSTAmount,
		TotalPrice:           rounded.TotalPaid,
		Commission:           rounded.Commission,
		TDS:                  rounded.TDS,
		AmountCredited:       rounded.AmountCredited,
		Status:               model.OrderActive,
	}
	for _, c := range courses {
		order.CourseIDs = append(order.CourseIDs, c.ID)
		f.owned[purchaserID] = append(f.owned[purchaserID], c.ID)
	}
	f.orders[order.ID] = order

	earning := &model.Earning{
		ID:             f.nextSeq,
		OrderID:        order.ID,
		ReferrerID:     referrerID,
		AmountCredited: rounded.AmountCredited,
		PayoutStatus:   model.PayoutPending,
	}

	referrer := f.accounts[referrerID]
	referrer.EarningsTotal = referrer.EarningsTotal.Add(rounded.AmountCredited)

	return order, earning, nil
}

func (f *fakeStore) GetOrderByID(_ context.Context, id int64) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeStore) CancelOrder(_ context.Context, orderID int64) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	if order.Status == model.OrderCancelled {
		return nil, store.ErrOrderCancelled
	}
	order.Status = model.OrderCancelled
	return order, nil
}

type fakeNotifier struct {
	messages []notify.Message
}

func (f *fakeNotifier) Enqueue(msg notify.Message) {
	f.messages = append(f.messages, msg)
}

func seed(f *fakeStore) {
	root := &model.Account{ID: 1, FullName: "root", Email: "root@example.com", Role: model.RoleUser}
	referred := &model.Account{ID: 2, FullName: "buyer", Email: "buyer@example.com", Role: model.RoleUser, ReferredBy: &root.ID}
	f.accounts[1] = root
	f.accounts[2] = referred
	f.courses[10] = model.Course{ID: 10, Title: "go", DiscountedPrice: d("1000"), ReferralBonusPct: d("50")}
	f.courses[11] = model.Course{ID: 11, Title: "sql", DiscountedPrice: d("500"), ReferralBonusPct: d("20")}
}

func TestCreateOrderCreditsReferrer(t *testing.T) {
	f := newFakeStore()
	seed(f)
	notifier := &fakeNotifier{}
	svc := NewService(f, notifier)

	order, err := svc.CreateOrder(context.Background(), 2, []int64{10})
	require.NoError(t, err)

	assert.Equal(t, "PAY00000001", order.PaymentID)
	assert.True(t, order.GSTAmount.Equal(d("180")))
	assert.True(t, order.TotalPrice.Equal(d("1180")))
	assert.True(t, order.Commission.Equal(d("500")))
	assert.True(t, order.TDS.Equal(d("25")))
	assert.True(t, order.AmountCredited.Equal(d("475")))
	assert.Equal(t, model.OrderActive, order.Status)

	assert.True(t, f.accounts[1].EarningsTotal.Equal(d("475")),
		"referrer balance %s", f.accounts[1].EarningsTotal)

	require.Len(t, notifier.messages, 1)
	assert.Equal(t, "buyer@example.com", notifier.messages[0].To)
}

func TestCreateOrderMultiCourse(t *testing.T) {
	f := newFakeStore()
	seed(f)
	svc := NewService(f, nil)

	order, err := svc.CreateOrder(context.Background(), 2, []int64{10, 11})
	require.NoError(t, err)

	assert.True(t, order.Commission.Equal(d("600")), "per-course commission, %s", order.Commission)
	assert.True(t, order.AmountCredited.Equal(d("570")))
	assert.Equal(t, []int64{10, 11}, order.CourseIDs)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFakeStore()
	seed(f)
	svc := NewService(f, nil)

	_, err := svc.CreateOrder(context.Background(), 2, nil)
	assert.ErrorIs(t, err, ErrNoCourses)

	_, err = svc.CreateOrder(context.Background(), 2, []int64{10, 10})
	assert.ErrorIs(t, err, ErrNoCourses, "duplicate ids in one order")

	_, err = svc.CreateOrder(context.Background(), 2, []int64{99})
	assert.ErrorIs(t, err, store.ErrCourseNotFound)

	// The root has no referrer and cannot purchase.
	_, err = svc.CreateOrder(context.Background(), 1, []int64{10})
	assert.ErrorIs(t, err, ErrNoReferrer)

	_, err = svc.CreateOrder(context.Background(), 77, []int64{10})
	assert.ErrorIs(t, err, store.ErrAccountNotFound)
}

func TestCreateOrderRejectsOwnedCourse(t *testing.T) {
	f := newFakeStore()
	seed(f)
	svc := NewService(f, nil)

	_, err := svc.CreateOrder(context.Background(), 2, []int64{10})
	require.NoError(t, err)

	_, err = svc.CreateOrder(context.Background(), 2, []int64{10})
	assert.ErrorIs(t, err, ErrAlreadyOwned)
	assert.Equal(t, 1, f.purchases, "no second transaction may run")
}

func TestSequentialPaymentIDs(t *testing.T) {
	f := newFakeStore()
	seed(f)
	svc := NewService(f, nil)

	first, err := svc.CreateOrder(context.Background(), 2, []int64{10})
	require.NoError(t, err)
	second, err := svc.CreateOrder(context.Background(), 2, []int64{11})
	require.NoError(t, err)

	assert.Equal(t, "PAY00000001", first.PaymentID)
	assert.Equal(t, "PAY00000002", second.PaymentID)
	assert.True(t, f.accounts[1].EarningsTotal.Equal(d("645")),
		"both credits land on the referrer, got %s", f.accounts[1].EarningsTotal)
}

func TestConcurrentPurchasesShareReferrer(t *testing.T) {
	f := newFakeStore()
	seed(f)
	rootID := int64(1)
	f.accounts[5] = &model.Account{
		ID: 5, FullName: "second buyer", Email: "second@example.com",
		Role: model.RoleUser, ReferredBy: &rootID,
	}
	svc := NewService(f, nil)

	buyers := []int64{2, 5}
	carts := [][]int64{{10}, {11}}
	orders := make([]*model.Order, 2)
	errs := make([]error, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			orders[i], errs[i] = svc.CreateOrder(context.Background(), buyers[i], carts[i])
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	minted := map[string]bool{orders[0].PaymentID: true, orders[1].PaymentID: true}
	assert.True(t, minted["PAY00000001"] && minted["PAY00000002"],
		"distinct sequential payment ids, got %s and %s", orders[0].PaymentID, orders[1].PaymentID)

	// 475 from the 1000/50% course plus 95 from the 500/20% one.
	assert.True(t, f.accounts[1].EarningsTotal.Equal(d("570")),
		"referrer balance reflects both credits, got %s", f.accounts[1].EarningsTotal)
}

func TestCancelOrderAuthorization(t *testing.T) {
	f := newFakeStore()
	seed(f)
	operator := &model.Account{ID: 3, Role: model.RoleOperator}
	stranger := &model.Account{ID: 4, Role: model.RoleUser}
	f.accounts[3] = operator
	f.accounts[4] = stranger

	svc := NewService(f, nil)
	order, err := svc.CreateOrder(context.Background(), 2, []int64{10})
	require.NoError(t, err)

	_, err = svc.CancelOrder(context.Background(), order.ID, stranger)
	assert.ErrorIs(t, err, ErrNotAllowed)

	cancelled, err := svc.CancelOrder(context.Background(), order.ID, f.accounts[2])
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, cancelled.Status)

	_, err = svc.CancelOrder(context.Background(), order.ID, operator)
	assert.ErrorIs(t, err, store.ErrOrderCancelled)

	// Cancellation leaves the referrer's balance untouched.
	assert.True(t, f.accounts[1].EarningsTotal.Equal(d("475")))
}
