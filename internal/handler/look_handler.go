package handler

import (
	"net/http"
	"strconv"

	"stylit/internal/domain"
	"stylit/internal/middleware"
	"stylit/internal/models"
	"stylit/internal/service"

	"github.com/gin-gonic/gin"
)

type LookHandler struct {
	looks *service.LookService
}

func NewLookHandler(looks *service.LookService) *LookHandler {
	return &LookHandler{looks: looks}
}

// Create admits a generation job from an explicit item selection.
func (h *LookHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		ItemIDs  []uint `json:"item_ids" binding:"required"`
		Occasion string `json:"occasion"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	look, err := h.looks.Create(userID, req.ItemIDs, domain.SourceSelection)
	if err != nil {
		flowError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "look": look})
}

func (h *LookHandler) Recreate(c *gin.Context) {
	userID := middleware.GetUserID(c)
	look, err := h.looks.Recreate(c.Param("public_id"), userID)
	if err != nil {
		flowError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "look": look})
}

func (h *LookHandler) Retry(c *gin.Context) {
	userID := middleware.GetUserID(c)
	look, err := h.looks.Retry(c.Param("public_id"), userID)
	if err != nil {
		hardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "look": look})
}

func (h *LookHandler) Status(c *gin.Context) {
	userID := middleware.GetUserID(c)
	res, err := h.looks.GenerationStatus(c.Param("public_id"), userID)
	if err != nil {
		hardError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *LookHandler) Save(c *gin.Context) {
	h.curate(c, h.looks.Save)
}

func (h *LookHandler) Discard(c *gin.Context) {
	h.curate(c, h.looks.Discard)
}

func (h *LookHandler) Restore(c *gin.Context) {
	h.curate(c, h.looks.Restore)
}

func (h *LookHandler) curate(c *gin.Context, op func(publicID string, actorID uint) (*models.Look, error)) {
	userID := middleware.GetUserID(c)
	look, err := op(c.Param("public_id"), userID)
	if err != nil {
		hardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"look": look})
}

func (h *LookHandler) SetSharing(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		IsPublic          bool `json:"is_public"`
		SharedWithFriends bool `json:"shared_with_friends"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	look, err := h.looks.SetSharing(c.Param("public_id"), userID, req.IsPublic, req.SharedWithFriends)
	if err != nil {
		hardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"look": look})
}

func (h *LookHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	look, err := h.looks.Get(c.Param("public_id"), userID)
	if err != nil {
		hardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"look": look})
}

func (h *LookHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.looks.ListMine(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"looks": list})
}
