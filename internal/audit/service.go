package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"food-dashboard/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Recorder persists audit entries and lists the latest ones.
type Recorder interface {
	Write(ctx context.Context, entry models.AuditLog) error
	Recent(ctx context.Context, table string, limit int) ([]models.AuditLog, error)
}

type LogOptions struct {
	RequestID   string
	Table       string
	Position    int
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// WriteLog turns opts into an AuditLog and hands it to rec.
func WriteLog(ctx context.Context, rec Recorder, opts LogOptions) error {
	// jsonb columns need the JSON literal null, not an empty string
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	entry := models.AuditLog{
		RequestID:   opts.RequestID,
		RecordTable: opts.Table,
		Position:    opts.Position,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}
	if err := rec.Write(ctx, entry); err != nil {
		return fmt.Errorf("audit log not saved: %w", err)
	}
	return nil
}

// DBRecorder stores entries in the audit_logs table.
type DBRecorder struct {
	db *gorm.DB
}

func NewDBRecorder(db *gorm.DB) *DBRecorder {
	return &DBRecorder{db: db}
}

func (r *DBRecorder) Write(ctx context.Context, entry models.AuditLog) error {
	return r.db.WithContext(ctx).Create(&entry).Error
}

func (r *DBRecorder) Recent(ctx context.Context, table string, limit int) ([]models.AuditLog, error) {
	q := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if table != "" {
		q = q.Where("record_table = ?", table)
	}
	var logs []models.AuditLog
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// LogRecorder writes entries to the application log only; it keeps no
// history.
type LogRecorder struct{}

func (LogRecorder) Write(_ context.Context, entry models.AuditLog) error {
	log.WithFields(log.Fields{
		"request_id": entry.RequestID,
		"table":      entry.RecordTable,
		"position":   entry.Position,
		"action":     entry.Action,
		"before":     entry.BeforeData,
		"after":      entry.AfterData,
	}).Info(entry.Description)
	return nil
}

func (LogRecorder) Recent(context.Context, string, int) ([]models.AuditLog, error) {
	return nil, nil
}
