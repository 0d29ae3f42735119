package service

import (
	"log"
	"time"

	"stylit/internal/domain"
	"stylit/internal/models"
)

// CreditStore is what the ledger needs from user persistence. UpdateCreditsTx
// must run fn under a per-user-row write lock and apply the returned column
// updates in the same transaction.
type CreditStore interface {
	GetByID(id uint) (*models.User, error)
	UpdateCreditsTx(userID uint, fn func(u *models.User) (map[string]interface{}, error)) error
}

// Balance is the dual-bucket credit view.
type Balance struct {
	FreeRemaining int `json:"free_remaining"`
	Purchased     int `json:"purchased"`
	Total         int `json:"total"`
}

// CreditService is the per-user credit ledger: a rolling free weekly ration
// plus a purchased balance, spent free-first.
type CreditService struct {
	users CreditStore
	notif Notifier
	now   func() time.Time
}

func NewCreditService(users CreditStore, notif Notifier) *CreditService {
	return &CreditService{users: users, notif: notif, now: time.Now}
}

// Balance applies the lazy-reset rule without mutating the row.
func (s *CreditService) Balance(userID uint) (*Balance, error) {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &Balance{
		FreeRemaining: u.FreeRemaining(now),
		Purchased:     u.PurchasedCredits,
		Total:         u.TotalCredits(now),
	}, nil
}

// Deduct spends count credits, free bucket first, as a single atomic
// read-modify-write on the user row. On insufficient balance it fails with
// InsufficientCreditsError and mutates nothing.
func (s *CreditService) Deduct(userID uint, count int) (*Balance, error) {
	if count <= 0 {
		count = 1
	}
	var after Balance
	err := s.users.UpdateCreditsTx(userID, func(u *models.User) (map[string]interface{}, error) {
		now := s.now()
		freeUsed := u.FreeCreditsUsedWeek
		resetApplied := false
		if now.Sub(u.WeeklyCreditsResetAt) >= domain.FreeCreditWindow {
			freeUsed = 0
			resetApplied = true
		}
		freeRemaining := domain.FreeWeeklyCredits - freeUsed
		if freeRemaining < 0 {
			freeRemaining = 0
		}
		total := freeRemaining + u.PurchasedCredits
		if total < count {
			return nil, &domain.InsufficientCreditsError{Remaining: total}
		}

		fromFree := count
		if fromFree > freeRemaining {
			fromFree = freeRemaining
		}
		freeUsed += fromFree
		purchased := u.PurchasedCredits - (count - fromFree)

		updates := map[string]interface{}{
			"free_credits_used_week": freeUsed,
			"purchased_credits":      purchased,
		}
		if resetApplied {
			updates["weekly_credits_reset_at"] = now
		}
		after = Balance{
			FreeRemaining: freeRemaining - fromFree,
			Purchased:     purchased,
			Total:         total - count,
		}
		return updates, nil
	})
	if err != nil {
		return nil, err
	}
	if after.Total <= domain.LowCreditThreshold && s.notif != nil {
		// Never blocks or affects the deduction result.
		go func(remaining int) {
			if err := s.notif.LowCredit(userID, remaining); err != nil {
				log.Printf("[CREDITS] low balance notify user=%d: %v", userID, err)
			}
		}(after.Total)
	}
	return &after, nil
}

