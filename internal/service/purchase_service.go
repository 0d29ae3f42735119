package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"stylit/internal/domain"
	"stylit/internal/models"
	"stylit/pkg/payment"

	"github.com/google/uuid"
)

type PurchaseStore interface {
	Create(p *models.CreditPurchase) error
	GetByID(id uint) (*models.CreditPurchase, error)
	GetByMerchantTxID(mtid string) (*models.CreditPurchase, error)
	Update(p *models.CreditPurchase) error
	// CompleteWithGrant must persist the completed purchase and the credit
	// grant atomically.
	CompleteWithGrant(p *models.CreditPurchase, credits int) error
}

type PackageStore interface {
	GetActive(id uint) (*models.CreditPackage, error)
}

type PhoneStore interface {
	SavePhoneIfEmpty(userID uint, phone string) error
}

// Ledger is the slice of the credit service the purchase flow needs: the
// grant itself rides inside CompleteWithGrant, so only the balance read
// remains here.
type Ledger interface {
	Balance(userID uint) (*Balance, error)
}

// Kenyan mobile numbers: 07XXXXXXXX, 01XXXXXXXX, or 254-prefixed.
var kenyanPhone = regexp.MustCompile(`^(?:\+?254|0)(?:7|1)\d{8}$`)

// NormalizePhone rewrites an accepted local number to 254XXXXXXXXX form.
func NormalizePhone(phone string) (string, error) {
	p := strings.TrimSpace(phone)
	if !kenyanPhone.MatchString(p) {
		return "", domain.ErrInvalidPhone
	}
	p = strings.TrimPrefix(p, "+")
	if strings.HasPrefix(p, "0") {
		p = "254" + p[1:]
	}
	return p, nil
}

// PurchaseService orchestrates credit top-ups: it initiates the STK push and
// idempotently settles the purchase from the at-least-once webhook.
type PurchaseService struct {
	purchases PurchaseStore
	packages  PackageStore
	users     PhoneStore
	ledger    Ledger
	provider  payment.Provider
	notif     Notifier
}

func NewPurchaseService(purchases PurchaseStore, packages PackageStore, users PhoneStore, ledger Ledger, provider payment.Provider, notif Notifier) *PurchaseService {
	return &PurchaseService{
		purchases: purchases,
		packages:  packages,
		users:     users,
		ledger:    ledger,
		provider:  provider,
		notif:     notif,
	}
}

type InitiateResult struct {
	PurchaseID   uint   `json:"purchase_id"`
	MerchantTxID string `json:"merchant_tx_id"`
	Credits      int    `json:"credits"`
	PriceCents   int64  `json:"price_cents"`
}

// Initiate creates a pending purchase and fires the STK push without waiting
// for the provider; the outcome arrives via webhook.
func (s *PurchaseService) Initiate(userID, packageID uint, phone string) (*InitiateResult, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	pkg, err := s.packages.GetActive(packageID)
	if err != nil {
		return nil, domain.ErrUnknownPackage
	}
	mtid := "stylit-" + uuid.New().String()
	p := &models.CreditPurchase{
		UserID:       userID,
		PackageID:    pkg.ID,
		CreditAmount: pkg.Credits,
		PriceCents:   pkg.PriceCents,
		Currency:     pkg.Currency,
		Phone:        normalized,
		MerchantTxID: mtid,
		Status:       domain.PurchasePending,
	}
	if err := s.purchases.Create(p); err != nil {
		return nil, err
	}
	if err := s.users.SavePhoneIfEmpty(userID, normalized); err != nil {
		log.Printf("[PURCHASE] save phone user=%d: %v", userID, err)
	}

	go s.firePush(p, pkg)

	return &InitiateResult{
		PurchaseID:   p.ID,
		MerchantTxID: mtid,
		Credits:      pkg.Credits,
		PriceCents:   pkg.PriceCents,
	}, nil
}

func (s *PurchaseService) firePush(p *models.CreditPurchase, pkg *models.CreditPackage) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	_, err := s.provider.InitiatePayment(ctx, payment.Request{
		AmountCents:     p.PriceCents,
		Currency:        p.Currency,
		MerchantOrderID: p.MerchantTxID,
		CustomerPhone:   p.Phone,
		Narration:       fmt.Sprintf("Stylit %s pack (%d credits)", pkg.Name, pkg.Credits),
	})
	if err != nil {
		log.Printf("[PURCHASE] stk initiation order=%s: %v", p.MerchantTxID, err)
		_ = s.Fail(p.MerchantTxID, "stk initiation failed")
	}
}

type CompleteResult struct {
	CreditsAdded int `json:"credits_added"`
	NewBalance   int `json:"new_balance"`
}

// Complete settles a purchase from the provider callback. A repeat delivery
// for an already-completed purchase is an idempotent no-op success with zero
// credits added.
func (s *PurchaseService) Complete(merchantTxID, providerTxID string) (*CompleteResult, error) {
	p, err := s.purchases.GetByMerchantTxID(merchantTxID)
	if err != nil {
		log.Printf("[PURCHASE] callback for unknown order=%s", merchantTxID)
		return nil, domain.ErrNotFound
	}
	if p.Status == domain.PurchaseCompleted {
		log.Printf("[PURCHASE] order=%s already completed, ignoring duplicate callback", merchantTxID)
		return &CompleteResult{CreditsAdded: 0}, nil
	}
	now := time.Now()
	p.Status = domain.PurchaseCompleted
	p.ProviderTxID = providerTxID
	p.CompletedAt = &now
	p.FailureReason = ""
	if err := s.purchases.CompleteWithGrant(p, p.CreditAmount); err != nil {
		// Nothing was written: the purchase stays pending and the provider's
		// redelivery settles it.
		return nil, err
	}
	newBalance := 0
	if bal, err := s.ledger.Balance(p.UserID); err == nil {
		newBalance = bal.Total
	} else {
		log.Printf("[PURCHASE] balance read user=%d: %v", p.UserID, err)
	}
	if err := s.users.SavePhoneIfEmpty(p.UserID, p.Phone); err != nil {
		log.Printf("[PURCHASE] save phone user=%d: %v", p.UserID, err)
	}
	if s.notif != nil {
		_ = s.notif.PurchaseSuccess(p.UserID, p.CreditAmount, merchantTxID)
	}
	log.Printf("[PURCHASE] order=%s completed, +%d credits for user=%d", merchantTxID, p.CreditAmount, p.UserID)
	return &CompleteResult{CreditsAdded: p.CreditAmount, NewBalance: newBalance}, nil
}

// Fail marks a purchase failed. Completed is sticky: a late failure callback
// after completion is absorbed silently.
func (s *PurchaseService) Fail(merchantTxID, reason string) error {
	p, err := s.purchases.GetByMerchantTxID(merchantTxID)
	if err != nil {
		log.Printf("[PURCHASE] fail callback for unknown order=%s", merchantTxID)
		return domain.ErrNotFound
	}
	if p.Status == domain.PurchaseCompleted {
		log.Printf("[PURCHASE] order=%s completed, ignoring late failure callback", merchantTxID)
		return nil
	}
	if p.Status == domain.PurchaseFailed {
		return nil
	}
	p.Status = domain.PurchaseFailed
	p.FailureReason = reason
	return s.purchases.Update(p)
}

// Status is the polling read for a pending purchase; owner only.
func (s *PurchaseService) Status(purchaseID, actorID uint) (*models.CreditPurchase, error) {
	p, err := s.purchases.GetByID(purchaseID)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	if err := domain.Authorize(actorID, p); err != nil {
		return nil, err
	}
	return p, nil
}
