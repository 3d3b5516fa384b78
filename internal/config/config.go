package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	HTTPPort string
	DataDir  string
	LogLevel string

	// Admin gate; disabled while AdminPasswordHash is empty
	AdminPasswordHash string
	JWTSecret         string

	// Audit trail database; empty means audit entries only go to the log
	AuditDatabaseDSN string

	MetricsEnabled bool

	Backup BackupConfig
}

// BackupConfig selects where table copies go before a Reset All.
type BackupConfig struct {
	Driver string // "" (off) | "memory" | "fs" | "s3"
	FSRoot string

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3PathStyle       bool
	S3AccessKeyID     string
	S3SecretAccessKey string
}

func (b BackupConfig) Enabled() bool { return b.Driver != "" }

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8501"),
		DataDir:           getEnv("DATA_DIR", "./data"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		AuditDatabaseDSN:  getEnv("AUDIT_DATABASE_DSN", ""),
		MetricsEnabled:    getBool("METRICS_ENABLED", true),
		Backup: BackupConfig{
			Driver:            strings.ToLower(getEnv("BACKUP_DRIVER", "")),
			FSRoot:            getEnv("BACKUP_FS_ROOT", "./backups"),
			S3Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
			S3Region:          getEnv("BACKUP_S3_REGION", "us-east-1"),
			S3Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
			S3PathStyle:       getBool("BACKUP_S3_PATH_STYLE", false),
			S3AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
			S3SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	if cfg.AdminPasswordHash == "" {
		log.Warn("[WARN] ADMIN_PASSWORD_HASH not set, the admin panel is open to every visitor")
	}
	if cfg.AuditDatabaseDSN == "" {
		log.Info("AUDIT_DATABASE_DSN not set, audit entries go to the log only")
	}
	return cfg
}

// Validate rejects settings that cannot work together.
func (c *Config) Validate() error {
	if c.AdminPasswordHash != "" {
		if c.JWTSecret == "" {
			return errConfig("JWT_SECRET is required when ADMIN_PASSWORD_HASH is set")
		}
		if len(c.JWTSecret) < 32 {
			return errConfig("JWT_SECRET must be at least 32 characters")
		}
	}
	switch c.Backup.Driver {
	case "", "memory", "fs":
	case "s3":
		if c.Backup.S3Bucket == "" {
			return errConfig("BACKUP_S3_BUCKET is required for BACKUP_DRIVER=s3")
		}
	default:
		return errConfig("unknown BACKUP_DRIVER " + strconv.Quote(c.Backup.Driver))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errConfig("invalid LOG_LEVEL " + strconv.Quote(c.LogLevel))
	}
	return nil
}

type errConfig string

func (e errConfig) Error() string { return string(e) }

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warnf("[WARN] %s=%q is not a boolean, using %t", key, v, def)
		return def
	}
	return b
}
