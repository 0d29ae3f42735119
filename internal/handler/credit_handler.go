package handler

import (
	"net/http"
	"strconv"

	"stylit/internal/middleware"
	"stylit/internal/repository"
	"stylit/internal/service"

	"github.com/gin-gonic/gin"
)

type CreditHandler struct {
	credits     *service.CreditService
	purchases   *service.PurchaseService
	packageRepo *repository.PackageRepository
}

func NewCreditHandler(credits *service.CreditService, purchases *service.PurchaseService, packageRepo *repository.PackageRepository) *CreditHandler {
	return &CreditHandler{credits: credits, purchases: purchases, packageRepo: packageRepo}
}

// GetBalance returns the dual-bucket credit view for the caller.
func (h *CreditHandler) GetBalance(c *gin.Context) {
	userID := middleware.GetUserID(c)
	bal, err := h.credits.Balance(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "balance lookup failed"})
		return
	}
	c.JSON(http.StatusOK, bal)
}

func (h *CreditHandler) ListPackages(c *gin.Context) {
	list, err := h.packageRepo.ListActive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "packages lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": list})
}

// InitiatePurchase starts an STK-push top-up. The response is returned before
// the provider resolves; clients poll GetPurchaseStatus.
func (h *CreditHandler) InitiatePurchase(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		PackageID uint   `json:"package_id" binding:"required"`
		Phone     string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	res, err := h.purchases.Initiate(userID, req.PackageID, req.Phone)
	if err != nil {
		flowError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":        true,
		"purchase_id":    res.PurchaseID,
		"merchant_tx_id": res.MerchantTxID,
		"credits":        res.Credits,
		"price_cents":    res.PriceCents,
		"message":        "Check your phone to complete the M-Pesa payment.",
	})
}

func (h *CreditHandler) GetPurchaseStatus(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purchase id"})
		return
	}
	p, err := h.purchases.Status(uint(id), userID)
	if err != nil {
		hardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"purchase_id":    p.ID,
		"status":         p.Status,
		"credits":        p.CreditAmount,
		"failure_reason": p.FailureReason,
	})
}
