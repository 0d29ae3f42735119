package service

import (
	"context"
	"encoding/json"
	"fmt"

	"stylit/internal/domain"
	"stylit/internal/models"
	"stylit/internal/repository"
)

// Notifier is what the credit, purchase, and generation flows need from
// notifications. Calls are fire-and-forget from the caller's point of view.
type Notifier interface {
	LowCredit(userID uint, remaining int) error
	PurchaseSuccess(userID uint, credits int, merchantTxID string) error
	LookReady(userID uint, lookID uint, publicID string) error
}

type NotificationService struct {
	repo     *repository.NotificationRepository
	userRepo *repository.UserRepository
	fcm      *FCMService
}

func NewNotificationService(repo *repository.NotificationRepository, userRepo *repository.UserRepository, fcm *FCMService) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo, fcm: fcm}
}

func (s *NotificationService) Notify(userID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	err := s.repo.Create(&models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	})
	if err != nil {
		return err
	}
	s.sendPush(userID, notifType, title, body, data)
	return nil
}

func (s *NotificationService) sendPush(userID uint, notifType, title, body string, data map[string]interface{}) {
	if s.fcm == nil || s.userRepo == nil {
		return
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil || u == nil || u.FCMToken == "" {
		return
	}
	_ = s.fcm.SendToUser(context.Background(), u.FCMToken, notifType, title, body, data)
}

func (s *NotificationService) LowCredit(userID uint, remaining int) error {
	return s.Notify(userID, domain.NotifyLowCredit, "Running low on credits",
		fmt.Sprintf("You have %d look credits left. Top up to keep creating.", remaining),
		map[string]interface{}{"remaining": remaining})
}

func (s *NotificationService) PurchaseSuccess(userID uint, credits int, merchantTxID string) error {
	return s.Notify(userID, domain.NotifyPurchaseSuccess, "Credits added",
		fmt.Sprintf("%d credits were added to your account.", credits),
		map[string]interface{}{"credits": credits, "reference": merchantTxID})
}

func (s *NotificationService) LookReady(userID uint, lookID uint, publicID string) error {
	return s.Notify(userID, domain.NotifyLookReady, "Your look is ready",
		"Your generated look is ready to view.",
		map[string]interface{}{"look_id": lookID, "public_id": publicID})
}
