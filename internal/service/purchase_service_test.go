package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stylit/internal/domain"
	"stylit/internal/models"
	"stylit/pkg/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurchaseStore struct {
	mu       sync.Mutex
	nextID   uint
	byMtid   map[string]*models.CreditPurchase
	granted  map[uint]int
	grantErr error
}

func newFakePurchaseStore() *fakePurchaseStore {
	return &fakePurchaseStore{
		byMtid:  map[string]*models.CreditPurchase{},
		granted: map[uint]int{},
	}
}

func (f *fakePurchaseStore) Create(p *models.CreditPurchase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	cp := *p
	f.byMtid[p.MerchantTxID] = &cp
	return nil
}

func (f *fakePurchaseStore) GetByID(id uint) (*models.CreditPurchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byMtid {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errors.New("record not found")
}

func (f *fakePurchaseStore) GetByMerchantTxID(mtid string) (*models.CreditPurchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byMtid[mtid]
	if !ok {
		return nil, errors.New("record not found")
	}
	cp := *p
	return &cp, nil
}

func (f *fakePurchaseStore) Update(p *models.CreditPurchase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.byMtid[p.MerchantTxID] = &cp
	return nil
}

// CompleteWithGrant mirrors the repository contract: when the transaction
// fails, neither the status nor the credits land.
func (f *fakePurchaseStore) CompleteWithGrant(p *models.CreditPurchase, credits int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.grantErr != nil {
		return f.grantErr
	}
	f.granted[p.UserID] += credits
	cp := *p
	f.byMtid[p.MerchantTxID] = &cp
	return nil
}

func (f *fakePurchaseStore) grantedTo(userID uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.granted[userID]
}

type fakePackageStore struct {
	pkgs map[uint]*models.CreditPackage
}

func (f *fakePackageStore) GetActive(id uint) (*models.CreditPackage, error) {
	p, ok := f.pkgs[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return p, nil
}

type fakePhoneStore struct {
	mu     sync.Mutex
	phones map[uint]string
}

func (f *fakePhoneStore) SavePhoneIfEmpty(userID uint, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phones == nil {
		f.phones = map[uint]string{}
	}
	if f.phones[userID] == "" {
		f.phones[userID] = phone
	}
	return nil
}

// fakeBalanceReader reports the balance from the grants recorded on the
// purchase store.
type fakeBalanceReader struct {
	store *fakePurchaseStore
}

func (f *fakeBalanceReader) Balance(userID uint) (*Balance, error) {
	total := f.store.grantedTo(userID)
	return &Balance{Purchased: total, Total: total}, nil
}

type blockedProvider struct{ err error }

func (p *blockedProvider) InitiatePayment(ctx context.Context, req payment.Request) (*payment.Response, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &payment.Response{Reference: req.MerchantOrderID, Status: "PENDING"}, nil
}

func starterPackages() *fakePackageStore {
	return &fakePackageStore{pkgs: map[uint]*models.CreditPackage{
		1: {ID: 1, Name: "Starter", Credits: 10, PriceCents: 10000, Currency: "KES", Active: true},
	}}
}

func newPurchaseFixture(t *testing.T) (*PurchaseService, *fakePurchaseStore, *recordingNotifier) {
	t.Helper()
	purchases := newFakePurchaseStore()
	notif := &recordingNotifier{}
	svc := NewPurchaseService(purchases, starterPackages(), &fakePhoneStore{}, &fakeBalanceReader{store: purchases}, &payment.StubProvider{}, notif)
	return svc, purchases, notif
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "0712345678", want: "254712345678"},
		{in: "0112345678", want: "254112345678"},
		{in: "254712345678", want: "254712345678"},
		{in: "+254712345678", want: "254712345678"},
		{in: " 0712345678 ", want: "254712345678"},
		{in: "0812345678", wantErr: true},
		{in: "071234567", wantErr: true},
		{in: "07123456789", wantErr: true},
		{in: "not-a-number", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := NormalizePhone(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, domain.ErrInvalidPhone, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestInitiateCreatesPendingPurchase(t *testing.T) {
	svc, purchases, _ := newPurchaseFixture(t)

	res, err := svc.Initiate(7, 1, "0712345678")
	require.NoError(t, err)
	assert.Equal(t, 10, res.Credits)
	assert.Equal(t, int64(10000), res.PriceCents)
	assert.Contains(t, res.MerchantTxID, "stylit-")

	p, err := purchases.GetByMerchantTxID(res.MerchantTxID)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchasePending, p.Status)
	assert.Equal(t, "254712345678", p.Phone)
	assert.Equal(t, uint(7), p.UserID)
}

func TestInitiateRejectsBadPhone(t *testing.T) {
	svc, purchases, _ := newPurchaseFixture(t)

	_, err := svc.Initiate(7, 1, "12345")
	assert.ErrorIs(t, err, domain.ErrInvalidPhone)
	assert.Empty(t, purchases.byMtid)
}

func TestInitiateRejectsUnknownPackage(t *testing.T) {
	svc, _, _ := newPurchaseFixture(t)

	_, err := svc.Initiate(7, 99, "0712345678")
	assert.ErrorIs(t, err, domain.ErrUnknownPackage)
}

func TestCompleteIsIdempotent(t *testing.T) {
	svc, purchases, notif := newPurchaseFixture(t)
	res, err := svc.Initiate(7, 1, "0712345678")
	require.NoError(t, err)

	first, err := svc.Complete(res.MerchantTxID, "MPESA123")
	require.NoError(t, err)
	assert.Equal(t, 10, first.CreditsAdded)
	assert.Equal(t, 10, first.NewBalance)

	second, err := svc.Complete(res.MerchantTxID, "MPESA123")
	require.NoError(t, err)
	assert.Zero(t, second.CreditsAdded)

	assert.Equal(t, 10, purchases.grantedTo(7), "credits must be granted exactly once")

	p, err := purchases.GetByMerchantTxID(res.MerchantTxID)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseCompleted, p.Status)
	assert.Equal(t, "MPESA123", p.ProviderTxID)
	require.NotNil(t, p.CompletedAt)
	assert.Equal(t, []int{10}, notif.purchases)
}

func TestCompleteUnknownOrder(t *testing.T) {
	svc, purchases, _ := newPurchaseFixture(t)

	_, err := svc.Complete("stylit-missing", "MPESA999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, purchases.grantedTo(7))
}

func TestCompleteGrantFailureLeavesPending(t *testing.T) {
	svc, purchases, notif := newPurchaseFixture(t)
	res, err := svc.Initiate(7, 1, "0712345678")
	require.NoError(t, err)

	purchases.grantErr = errors.New("deadlock found when trying to get lock")
	_, err = svc.Complete(res.MerchantTxID, "MPESA123")
	require.Error(t, err)

	p, err := purchases.GetByMerchantTxID(res.MerchantTxID)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchasePending, p.Status, "a failed settlement must stay pending for redelivery")
	assert.Zero(t, purchases.grantedTo(7))
	assert.Empty(t, notif.purchases)

	// The provider redelivers; this time the settlement lands, once.
	purchases.grantErr = nil
	got, err := svc.Complete(res.MerchantTxID, "MPESA123")
	require.NoError(t, err)
	assert.Equal(t, 10, got.CreditsAdded)
	assert.Equal(t, 10, purchases.grantedTo(7))
}

func TestFailMarksPurchaseFailed(t *testing.T) {
	svc, purchases, _ := newPurchaseFixture(t)
	res, err := svc.Initiate(7, 1, "0712345678")
	require.NoError(t, err)

	require.NoError(t, svc.Fail(res.MerchantTxID, "cancelled by user"))
	p, err := purchases.GetByMerchantTxID(res.MerchantTxID)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseFailed, p.Status)
	assert.Equal(t, "cancelled by user", p.FailureReason)
	assert.Zero(t, purchases.grantedTo(7))

	// Repeat failure deliveries are absorbed without touching the row.
	require.NoError(t, svc.Fail(res.MerchantTxID, "timeout"))
	p, _ = purchases.GetByMerchantTxID(res.MerchantTxID)
	assert.Equal(t, "cancelled by user", p.FailureReason)
}

func TestCompletedIsStickyAgainstLateFailure(t *testing.T) {
	svc, purchases, _ := newPurchaseFixture(t)
	res, err := svc.Initiate(7, 1, "0712345678")
	require.NoError(t, err)

	_, err = svc.Complete(res.MerchantTxID, "MPESA123")
	require.NoError(t, err)

	require.NoError(t, svc.Fail(res.MerchantTxID, "late failure"))
	p, err := purchases.GetByMerchantTxID(res.MerchantTxID)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseCompleted, p.Status)
	assert.Empty(t, p.FailureReason)
	assert.Equal(t, 10, purchases.grantedTo(7))
}

func TestStatusOwnerOnly(t *testing.T) {
	svc, _, _ := newPurchaseFixture(t)
	res, err := svc.Initiate(7, 1, "0712345678")
	require.NoError(t, err)

	p, err := svc.Status(res.PurchaseID, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchasePending, p.Status)

	_, err = svc.Status(res.PurchaseID, 8)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestFailedInitiationMarksPurchase(t *testing.T) {
	purchases := newFakePurchaseStore()
	svc := NewPurchaseService(purchases, starterPackages(), &fakePhoneStore{}, &fakeBalanceReader{store: purchases}, &blockedProvider{err: errors.New("provider down")}, &recordingNotifier{})

	res, err := svc.Initiate(7, 1, "0712345678")
	require.NoError(t, err, "initiation itself does not wait for the provider")

	assert.Eventually(t, func() bool {
		p, err := purchases.GetByMerchantTxID(res.MerchantTxID)
		return err == nil && p.Status == domain.PurchaseFailed
	}, time.Second, 10*time.Millisecond)
}
