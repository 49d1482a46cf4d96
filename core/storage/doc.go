// Package storage wraps the MinIO client behind a narrow Client interface.
//
// The reconciler uses object storage as a dead-letter archive: every delivery
// rejected for its content is written as a JSON envelope so an operator can
// inspect it and replay it once the producer is fixed. Any S3 compatible
// service works.
//
// The interface exists so the archive can be tested against the testify mock
// in core/storage/mocks.
//
//	client, err := storage.NewClient(cfg)
//	exists, err := client.BucketExists(ctx, cfg.Bucket)
package storage
