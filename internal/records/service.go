// Package records applies the dashboard's mutations to the table store and
// records each one in the audit trail and metrics.
package records

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"food-dashboard/internal/audit"
	"food-dashboard/internal/backup"
	"food-dashboard/internal/database"
	"food-dashboard/internal/metrics"
	"food-dashboard/internal/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrNoInventory     = errors.New("inventory empty")
	ErrUnknownItem     = errors.New("item is not in the inventory")
)

type Service struct {
	Store   *database.Store
	Audit   audit.Recorder
	Metrics *metrics.Metrics
	Backup  backup.Sink // receives the tables before a reset; nil skips the copy
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Today is the date stamped on new rows.
func (s *Service) Today() time.Time {
	return models.Today(s.now())
}

// AddInventory appends a row received today.
func (s *Service) AddInventory(ctx context.Context, requestID, item string, qty int, expiry time.Time) (models.InventoryRecord, int, error) {
	if qty < 1 {
		return models.InventoryRecord{}, 0, ErrInvalidQuantity
	}
	rec := models.InventoryRecord{
		Item:         item,
		Quantity:     qty,
		DateReceived: s.Today(),
		ExpiryDate:   expiry,
	}
	pos, err := s.Store.AppendInventory(rec)
	if err != nil {
		return models.InventoryRecord{}, 0, err
	}

	s.Metrics.RecordAdded(string(database.Inventory))
	s.writeAudit(ctx, audit.LogOptions{
		RequestID:   requestID,
		Table:       string(database.Inventory),
		Position:    pos,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("inventory added: %s x%d (expires %s)", rec.Item, rec.Quantity, models.FormatDate(rec.ExpiryDate)),
		After:       rec,
	})
	return rec, pos, nil
}

// LogWaste appends a waste row dated today. item must be one of the
// inventory's items.
func (s *Service) LogWaste(ctx context.Context, requestID, item string, qty int, reason string) (models.WasteRecord, int, error) {
	if qty < 1 {
		return models.WasteRecord{}, 0, ErrInvalidQuantity
	}
	inv, err := s.Store.LoadInventory()
	if err != nil {
		return models.WasteRecord{}, 0, err
	}
	if len(inv) == 0 {
		return models.WasteRecord{}, 0, ErrNoInventory
	}
	if !slices.Contains(models.DistinctItems(inv), item) {
		return models.WasteRecord{}, 0, fmt.Errorf("%w: %q", ErrUnknownItem, item)
	}

	rec := models.WasteRecord{
		Item:           item,
		QuantityWasted: qty,
		Reason:         reason,
		WasteDate:      s.Today(),
	}
	pos, err := s.Store.AppendWaste(rec)
	if err != nil {
		return models.WasteRecord{}, 0, err
	}

	s.Metrics.RecordAdded(string(database.WasteLog))
	s.writeAudit(ctx, audit.LogOptions{
		RequestID:   requestID,
		Table:       string(database.WasteLog),
		Position:    pos,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("waste logged: %s x%d", rec.Item, rec.QuantityWasted),
		After:       rec,
	})
	return rec, pos, nil
}

// DeleteRow removes one row of t by position. It serves both the waste
// page and the admin panel.
func (s *Service) DeleteRow(ctx context.Context, requestID string, t database.Table, position int, revision string) ([]string, error) {
	removed, err := s.Store.Delete(t, position, revision)
	if err != nil {
		return nil, err
	}

	s.Metrics.RecordDeleted(string(t))
	s.writeAudit(ctx, audit.LogOptions{
		RequestID:   requestID,
		Table:       string(t),
		Position:    position,
		Action:      models.AuditActionDelete,
		Description: fmt.Sprintf("%s row %d deleted: %s", t.Label(), position, removed[0]),
		Before:      removed,
	})
	return removed, nil
}

// ResetAll empties both tables. When a backup sink is configured the tables
// are copied first, under the same store lock, and a failed copy leaves them
// untouched.
func (s *Service) ResetAll(ctx context.Context, requestID string) ([]string, error) {
	var keys []string
	err := s.Store.ResetWith(func(raw map[database.Table][]byte) error {
		if s.Backup == nil {
			return nil
		}
		// request ids come from a client header and may repeat
		written, err := backup.Snapshot(ctx, s.Backup, raw, backup.Prefix(s.now(), uuid.NewString()))
		if err != nil {
			return fmt.Errorf("reset aborted: %w", err)
		}
		keys = written
		log.WithField("keys", keys).Info("tables backed up before reset")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.RecordReset()
	s.writeAudit(ctx, audit.LogOptions{
		RequestID:   requestID,
		Table:       "all",
		Position:    -1,
		Action:      models.AuditActionReset,
		Description: "all data cleared",
		After:       map[string]any{"backups": keys},
	})
	return keys, nil
}

// History returns the latest audit entries, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if s.Audit == nil {
		return nil, nil
	}
	return s.Audit.Recent(ctx, "", limit)
}

// writeAudit never fails the caller; the table write already happened.
func (s *Service) writeAudit(ctx context.Context, opts audit.LogOptions) {
	if s.Audit == nil {
		return
	}
	if err := audit.WriteLog(ctx, s.Audit, opts); err != nil {
		log.WithError(err).WithField("request_id", opts.RequestID).Warn("audit entry dropped")
	}
}
