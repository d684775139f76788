package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Entry represents an audit log entry.
type Entry struct {
	ID            string
	Actor         string
	Role          string
	Action        string
	ResourceType  string
	ResourceID    string
	Metadata      json.RawMessage
	PayloadDigest string
	IP            string
	UserAgent     string
	CreatedAt     time.Time
}

// Logger writes audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// NewID generates a random audit id.
func NewID() string {
	return "audit-" + uuid.NewString()
}

// DigestJSON computes a SHA256 hex digest for metadata payloads.
func DigestJSON(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// fill sets the generated fields of an entry.
func (e *Entry) fill() {
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.PayloadDigest == "" {
		e.PayloadDigest = DigestJSON(e.Metadata)
	}
}

// ZapLogger writes audit entries to a structured log. It is used when no
// database backs the deployment.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger constructs a log-backed audit logger.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{logger: logger.Named("audit")}
}

// Log writes one entry at info level.
func (l *ZapLogger) Log(_ context.Context, entry Entry) error {
	entry.fill()
	l.logger.Info(entry.Action,
		zap.String("id", entry.ID),
		zap.String("actor", entry.Actor),
		zap.String("role", entry.Role),
		zap.String("resource_type", entry.ResourceType),
		zap.String("resource_id", entry.ResourceID),
		zap.ByteString("metadata", entry.Metadata),
		zap.String("payload_digest", entry.PayloadDigest),
		zap.String("ip", entry.IP),
		zap.Time("created_at", entry.CreatedAt),
	)
	return nil
}
