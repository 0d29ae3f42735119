package ws

import "time"

// LookStatusEvent is pushed to the owner whenever the worker moves a
// generation job through its state machine.
type LookStatusEvent struct {
	Type      string `json:"type"`
	PublicID  string `json:"public_id"`
	Status    string `json:"status"`
	UpdatedAt int64  `json:"updated_at"`
}

// LookHub streams generation-status transitions to a user's connections.
type LookHub struct {
	*Hub
}

func NewLookHub() *LookHub {
	return &LookHub{Hub: NewHub()}
}

// LookStatusChanged satisfies the worker's broadcaster dependency.
func (h *LookHub) LookStatusChanged(userID uint, publicID, status string) {
	h.BroadcastToUser(userID, LookStatusEvent{
		Type:      "look_status",
		PublicID:  publicID,
		Status:    status,
		UpdatedAt: time.Now().Unix(),
	})
}
