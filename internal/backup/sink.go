// Package backup copies the table files somewhere safe before they are
// wiped by a Reset All.
package backup

import (
	"context"
	"fmt"
	"time"

	"food-dashboard/internal/config"
	"food-dashboard/internal/database"

	log "github.com/sirupsen/logrus"
)

// Sink stores one object under key.
type Sink interface {
	Driver() string
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Open builds the sink selected by cfg. A disabled config yields a nil Sink.
func Open(ctx context.Context, cfg config.BackupConfig) (Sink, error) {
	switch cfg.Driver {
	case "":
		return nil, nil
	case "memory":
		log.Warn("[WARN] BACKUP_DRIVER=memory keeps reset backups in process memory only")
		return NewMemory(), nil
	case "fs":
		fs, err := NewFilesystem(cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case "s3":
		s3, err := NewS3(ctx, S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			PathStyle:       cfg.S3PathStyle,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	default:
		return nil, fmt.Errorf("unknown backup driver %q", cfg.Driver)
	}
}

const prefixLayout = "20060102T150405.000000000Z"

// Prefix is the key folder of one snapshot. id tells apart snapshots taken
// at the same instant.
func Prefix(at time.Time, id string) string {
	return "reset-" + at.UTC().Format(prefixLayout) + "-" + id
}

// Snapshot stores raw, the verbatim bytes of every table, under prefix and
// returns the keys written. When a Put fails the objects already written
// are removed again, so a snapshot is stored whole or not at all.
func Snapshot(ctx context.Context, sink Sink, raw map[database.Table][]byte, prefix string) ([]string, error) {
	keys := make([]string, 0, len(database.Tables()))
	for _, t := range database.Tables() {
		data, ok := raw[t]
		if !ok {
			return nil, discard(ctx, sink, keys, fmt.Errorf("backup %s: table not read", t.Filename()))
		}
		key := prefix + "/" + t.Filename()
		if err := sink.Put(ctx, key, data, "text/csv"); err != nil {
			return nil, discard(ctx, sink, keys, fmt.Errorf("backup %s to %s: %w", t.Filename(), sink.Driver(), err))
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func discard(ctx context.Context, sink Sink, keys []string, cause error) error {
	for _, key := range keys {
		if err := sink.Delete(ctx, key); err != nil {
			log.WithError(err).WithField("key", key).Warn("partial backup left behind")
		}
	}
	return cause
}
