package storage

import (
	"context"

	"cian-scraper/models"
)

// RecordWriter is the interface any storage backend must satisfy.
type RecordWriter interface {
	Write(ctx context.Context, records []*models.ListingRecord) error
	Close() error
}
