package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"stylit/internal/domain"
	"stylit/internal/service"

	"github.com/gin-gonic/gin"
)

// LiberecMpesaCallback is the webhook payload from TheLiberec after an
// M-Pesa STK payment resolves. Delivery is at-least-once.
type LiberecMpesaCallback struct {
	Amount            string `json:"amount"`
	CheckoutRequestID string `json:"checkout_request_id"`
	Currency          string `json:"currency"`
	CustomerPhone     string `json:"customer_phone"`
	MerchantOrderID   string `json:"merchant_order_id"`
	OrderID           string `json:"order_id"`
	ReceiptNumber     string `json:"receipt_number"`
	ReferenceOrderID  string `json:"reference_order_id"`
	Status            string `json:"status"`
	StatusCode        string `json:"status_code"`
	StatusDescription string `json:"status_description"`
	TransactionUUID   string `json:"transaction_uuid"`
}

type MpesaWebhookHandler struct {
	purchases *service.PurchaseService
}

func NewMpesaWebhookHandler(purchases *service.PurchaseService) *MpesaWebhookHandler {
	return &MpesaWebhookHandler{purchases: purchases}
}

// Handle processes the M-Pesa callback. Unknown orders and duplicate
// deliveries are acknowledged with 200 so the provider stops redelivering;
// completed purchases are never reverted by a later failure callback.
func (h *MpesaWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	var payload LiberecMpesaCallback
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[MPESA callback] json unmarshal error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	orderID := payload.MerchantOrderID
	if orderID == "" {
		orderID = payload.OrderID
	}
	if orderID == "" {
		orderID = payload.ReferenceOrderID
	}
	if orderID == "" {
		log.Printf("[MPESA callback] no order_id in payload, acknowledging")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	log.Printf("[MPESA callback] order=%s status=%s code=%s", orderID, payload.Status, payload.StatusCode)

	if payload.Status == "COMPLETED" {
		providerTx := payload.TransactionUUID
		if providerTx == "" {
			providerTx = payload.ReceiptNumber
		}
		if _, err := h.purchases.Complete(orderID, providerTx); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Unknown order: ack so the provider stops retrying.
				c.JSON(http.StatusOK, gin.H{"received": true})
				return
			}
			// Settlement did not land; a non-2xx makes the provider redeliver.
			log.Printf("[MPESA callback] settle order=%s: %v", orderID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "settlement failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	reason := payload.StatusDescription
	if reason == "" {
		reason = payload.Status
	}
	_ = h.purchases.Fail(orderID, reason)
	c.JSON(http.StatusOK, gin.H{"received": true})
}
