package models

import "time"

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionDelete AuditAction = "delete"
	AuditActionReset  AuditAction = "reset"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Request that caused the change (requestid middleware)
	RequestID string `gorm:"size:64;index" json:"request_id"`

	// "inventory" | "waste_log" | "all"
	RecordTable string `gorm:"size:50;index" json:"record_table"`

	// Row position at the time of the change, -1 for whole-table actions
	Position int `json:"position"`

	Action      AuditAction `gorm:"size:20" json:"action"`
	Description string      `gorm:"type:text" json:"description"`

	// Row before / after (JSON)
	BeforeData string `gorm:"type:jsonb" json:"before_data"`
	AfterData  string `gorm:"type:jsonb" json:"after_data"`
}
