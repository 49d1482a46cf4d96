package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"ledger-reconciler/core/reconcile"
	"ledger-reconciler/core/storage"

	"github.com/minio/minio-go/v7"
)

// Envelope is an archived delivery.
type Envelope struct {
	ID         string            `json:"id"`
	Queue      string            `json:"queue"`
	Message    reconcile.Payload `json:"message"`
	Outcome    string            `json:"outcome,omitempty"`
	Error      string            `json:"error,omitempty"`
	ReceivedAt time.Time         `json:"receivedAt"`
}

// Archive keeps rejected deliveries in an object store bucket.
type Archive struct {
	client storage.Client
	bucket string
	prefix string
}

// NewArchive creates an archive writing under prefix in bucket.
func NewArchive(client storage.Client, bucket, prefix string) *Archive {
	return &Archive{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Ensure creates the bucket if it does not exist.
func (a *Archive) Ensure(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check archive bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create archive bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Key returns the object name of an envelope: prefix/queue/yyyy/mm/dd/id.json.
func (a *Archive) Key(env Envelope) string {
	return path.Join(a.prefix, env.Queue, env.ReceivedAt.UTC().Format("2006/01/02"), env.ID+".json")
}

// Put writes env and returns its key. Writing the same delivery twice replaces it.
func (a *Archive) Put(ctx context.Context, env Envelope) (string, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("encode envelope %s: %w", env.ID, err)
	}

	key := a.Key(env)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", key, err)
	}
	return key, nil
}

// List returns up to limit envelope keys. A limit of zero lists everything.
func (a *Archive) List(ctx context.Context, limit int) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prefix := a.prefix
	if prefix != "" {
		prefix += "/"
	}

	var keys []string
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list archive: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		keys = append(keys, obj.Key)
		if limit > 0 && len(keys) >= limit {
			break
		}
	}
	return keys, nil
}

// Load reads the envelope stored at key. Numbers stay json.Number.
func (a *Archive) Load(ctx context.Context, key string) (Envelope, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return Envelope{}, fmt.Errorf("read %s: %w", key, err)
	}
	defer obj.Close()

	var env Envelope
	dec := json.NewDecoder(obj)
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return Envelope{}, fmt.Errorf("decode %s: %w", key, err)
	}
	if env.Queue == "" {
		return Envelope{}, fmt.Errorf("decode %s: envelope has no queue", key)
	}
	return env, nil
}

// Remove deletes the envelope stored at key.
func (a *Archive) Remove(ctx context.Context, key string) error {
	if err := a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
