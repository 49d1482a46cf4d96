package journal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ledger-reconciler/core/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Table is the journal table name.
const Table = "deliveries"

// OutcomeApplied marks a delivery that was folded into storage.
const OutcomeApplied = "applied"

// Entry is one journaled delivery.
type Entry struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	DeliveryID string    `gorm:"size:64;index" json:"deliveryId"`
	Queue      string    `gorm:"size:64;index:idx_queue_digest" json:"queue"`
	Digest     string    `gorm:"size:64;index:idx_queue_digest" json:"digest"`
	Outcome    string    `gorm:"size:32;index" json:"outcome"`
	Error      string    `gorm:"type:text" json:"error,omitempty"`
	ReceivedAt time.Time `json:"receivedAt"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName pins the table name.
func (Entry) TableName() string {
	return Table
}

// Count is the number of deliveries per queue and outcome.
type Count struct {
	Queue   string `json:"queue"`
	Outcome string `json:"outcome"`
	Total   int64  `json:"total"`
}

// Journal records the outcome of every delivery.
type Journal struct {
	db *gorm.DB
}

// New wraps an open database connection.
func New(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

// Migrate creates or updates the journal table.
func (j *Journal) Migrate() error {
	if err := j.db.AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("migrate journal: %w", err)
	}
	return nil
}

// Verify reports journal columns missing from the live table.
func (j *Journal) Verify() ([]string, error) {
	return database.MissingColumns(j.db, Table,
		"id", "delivery_id", "queue", "digest", "outcome", "error", "received_at", "duration_ms", "created_at")
}

// Record inserts e, assigning a row id when it has none.
func (j *Journal) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := j.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("record delivery %s: %w", e.DeliveryID, err)
	}
	return nil
}

// Seen reports whether an identical payload on queue was already applied.
func (j *Journal) Seen(ctx context.Context, queue, digest string) (bool, error) {
	var e Entry
	err := j.db.WithContext(ctx).
		Select("id").
		Where("queue = ? AND digest = ? AND outcome = ?", queue, digest, OutcomeApplied).
		Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup digest on %s: %w", queue, err)
	}
	return true, nil
}

// Recent returns up to limit entries, newest first. An empty queue matches all.
func (j *Journal) Recent(ctx context.Context, queue string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	q := j.db.WithContext(ctx).Order("received_at DESC").Limit(limit)
	if queue != "" {
		q = q.Where("queue = ?", queue)
	}

	var entries []Entry
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	return entries, nil
}

// Summary counts deliveries per queue and outcome.
func (j *Journal) Summary(ctx context.Context) ([]Count, error) {
	var counts []Count
	err := j.db.WithContext(ctx).Model(&Entry{}).
		Select("queue, outcome, COUNT(*) AS total").
		Group("queue, outcome").
		Order("queue, outcome").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("summarize deliveries: %w", err)
	}
	return counts, nil
}

// Digest fingerprints a payload. Map keys are sorted by encoding/json, so equal
// payloads hash equally regardless of field order.
func Digest(payload map[string]any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("digest payload: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
