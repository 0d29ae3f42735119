package service

import (
	"sync"
	"testing"
	"time"

	"stylit/internal/domain"
	"stylit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreditStore struct {
	mu   sync.Mutex
	user *models.User
}

func (f *fakeCreditStore) GetByID(id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := *f.user
	return &u, nil
}

func (f *fakeCreditStore) UpdateCreditsTx(userID uint, fn func(u *models.User) (map[string]interface{}, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := *f.user
	updates, err := fn(&u)
	if err != nil {
		return err
	}
	for col, v := range updates {
		switch col {
		case "free_credits_used_week":
			f.user.FreeCreditsUsedWeek = v.(int)
		case "purchased_credits":
			f.user.PurchasedCredits = v.(int)
		case "weekly_credits_reset_at":
			f.user.WeeklyCreditsResetAt = v.(time.Time)
		}
	}
	return nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	lowCredit []int
	purchases []int
	lookReady []uint
}

func (r *recordingNotifier) LowCredit(userID uint, remaining int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lowCredit = append(r.lowCredit, remaining)
	return nil
}

func (r *recordingNotifier) PurchaseSuccess(userID uint, credits int, merchantTxID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purchases = append(r.purchases, credits)
	return nil
}

func (r *recordingNotifier) LookReady(userID uint, lookID uint, publicID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookReady = append(r.lookReady, lookID)
	return nil
}

func (r *recordingNotifier) lowCreditCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lowCredit)
}

func newCreditFixture(t *testing.T, u *models.User) (*CreditService, *fakeCreditStore, *recordingNotifier) {
	t.Helper()
	store := &fakeCreditStore{user: u}
	notif := &recordingNotifier{}
	svc := NewCreditService(store, notif)
	return svc, store, notif
}

func TestDeductFreeFirst(t *testing.T) {
	now := time.Now()
	svc, store, _ := newCreditFixture(t, &models.User{
		ID:                   1,
		PurchasedCredits:     3,
		WeeklyCreditsResetAt: now,
	})

	bal, err := svc.Deduct(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, bal.FreeRemaining)
	assert.Equal(t, 3, bal.Purchased)
	assert.Equal(t, 7, bal.Total)
	assert.Equal(t, 1, store.user.FreeCreditsUsedWeek)
	assert.Equal(t, 3, store.user.PurchasedCredits)
}

func TestDeductSpillsIntoPurchased(t *testing.T) {
	now := time.Now()
	svc, store, _ := newCreditFixture(t, &models.User{
		ID:                   1,
		FreeCreditsUsedWeek:  4,
		PurchasedCredits:     3,
		WeeklyCreditsResetAt: now,
	})

	bal, err := svc.Deduct(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, bal.FreeRemaining)
	assert.Equal(t, 2, bal.Purchased)
	assert.Equal(t, domain.FreeWeeklyCredits, store.user.FreeCreditsUsedWeek)
	assert.Equal(t, 2, store.user.PurchasedCredits)
}

func TestDeductInsufficientMutatesNothing(t *testing.T) {
	now := time.Now()
	svc, store, _ := newCreditFixture(t, &models.User{
		ID:                   1,
		FreeCreditsUsedWeek:  5,
		PurchasedCredits:     1,
		WeeklyCreditsResetAt: now,
	})

	_, err := svc.Deduct(1, 2)
	var ice *domain.InsufficientCreditsError
	require.ErrorAs(t, err, &ice)
	assert.Equal(t, 1, ice.Remaining)
	assert.Equal(t, 5, store.user.FreeCreditsUsedWeek)
	assert.Equal(t, 1, store.user.PurchasedCredits)
}

func TestDeductExhaustsBothBuckets(t *testing.T) {
	now := time.Now()
	svc, _, _ := newCreditFixture(t, &models.User{
		ID:                   1,
		PurchasedCredits:     2,
		WeeklyCreditsResetAt: now,
	})

	for i := 0; i < 7; i++ {
		_, err := svc.Deduct(1, 1)
		require.NoError(t, err, "deduction %d", i+1)
	}
	_, err := svc.Deduct(1, 1)
	var ice *domain.InsufficientCreditsError
	require.ErrorAs(t, err, &ice)
	assert.Equal(t, 0, ice.Remaining)
}

func TestDeductLazyWeeklyReset(t *testing.T) {
	eightDaysAgo := time.Now().Add(-8 * 24 * time.Hour)
	svc, store, _ := newCreditFixture(t, &models.User{
		ID:                   1,
		FreeCreditsUsedWeek:  5,
		WeeklyCreditsResetAt: eightDaysAgo,
	})

	bal, err := svc.Deduct(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, bal.FreeRemaining)
	assert.Equal(t, 1, store.user.FreeCreditsUsedWeek)
	assert.True(t, store.user.WeeklyCreditsResetAt.After(eightDaysAgo.Add(24*time.Hour)),
		"reset timestamp should move to the deduction time")
}

func TestDeductWithinWindowNoReset(t *testing.T) {
	threeDaysAgo := time.Now().Add(-3 * 24 * time.Hour)
	svc, store, _ := newCreditFixture(t, &models.User{
		ID:                   1,
		FreeCreditsUsedWeek:  2,
		WeeklyCreditsResetAt: threeDaysAgo,
	})

	bal, err := svc.Deduct(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, bal.FreeRemaining)
	assert.Equal(t, 3, store.user.FreeCreditsUsedWeek)
	assert.Equal(t, threeDaysAgo, store.user.WeeklyCreditsResetAt)
}

func TestDeductLowBalanceNotifies(t *testing.T) {
	now := time.Now()
	svc, _, notif := newCreditFixture(t, &models.User{
		ID:                   1,
		FreeCreditsUsedWeek:  2,
		WeeklyCreditsResetAt: now,
	})

	bal, err := svc.Deduct(1, 1)
	require.NoError(t, err)
	require.Equal(t, 2, bal.Total)
	assert.Eventually(t, func() bool { return notif.lowCreditCount() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestDeductHealthyBalanceDoesNotNotify(t *testing.T) {
	now := time.Now()
	svc, _, notif := newCreditFixture(t, &models.User{
		ID:                   1,
		PurchasedCredits:     10,
		WeeklyCreditsResetAt: now,
	})

	_, err := svc.Deduct(1, 1)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, notif.lowCreditCount())
}

func TestBalanceView(t *testing.T) {
	svc, _, _ := newCreditFixture(t, &models.User{
		ID:                   1,
		FreeCreditsUsedWeek:  3,
		PurchasedCredits:     7,
		WeeklyCreditsResetAt: time.Now(),
	})

	bal, err := svc.Balance(1)
	require.NoError(t, err)
	assert.Equal(t, 2, bal.FreeRemaining)
	assert.Equal(t, 7, bal.Purchased)
	assert.Equal(t, 9, bal.Total)
}
