package models

import "time"

// Trigger values for RefreshLog.
const (
	TriggerSweep    = "sweep"
	TriggerManual   = "manual"
	TriggerExchange = "exchange"
)

// Outcome values for RefreshLog.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// RefreshLog records one token exchange or refresh attempt.
type RefreshLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ShopID    string    `gorm:"index" json:"shop_id"`
	Trigger   string    `json:"trigger"` // sweep, manual, exchange
	Outcome   string    `json:"outcome"` // ok, failed
	Status    int       `json:"status,omitempty"` // upstream HTTP status, 0 when not applicable
	Detail    string    `json:"detail,omitempty"` // truncated upstream body or error text
	CreatedAt time.Time `json:"created_at"`
}
