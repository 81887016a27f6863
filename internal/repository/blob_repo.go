package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"phasetrack/internal/apperr"
)

// BlobRepository is the blob-store collaborator: raw bytes in, a stable key
// out. Backed by a bytea table; any durable keyed store would do.
type BlobRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewBlobRepository(db *pgxpool.Pool, logger *zap.Logger) *BlobRepository {
	return &BlobRepository{
		db:     db,
		logger: logger,
	}
}

func newBlobKey() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Save stores the bytes and returns the key they are retrievable under.
func (r *BlobRepository) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	key := newBlobKey()

	_, err := r.db.Exec(ctx, `
        INSERT INTO blobs (key, name, content_type, data)
        VALUES ($1, $2, $3, $4)
    `, key, name, contentType, data)
	if err != nil {
		r.logger.Error("Failed to save blob", zap.String("name", name), zap.Error(err))
		return "", apperr.Storage(err, "failed to save blob %s", name)
	}

	r.logger.Debug("Blob saved",
		zap.String("key", key),
		zap.String("name", name),
		zap.Int("size", len(data)),
	)
	return key, nil
}

// Load resolves a key back to its name, content type and bytes.
func (r *BlobRepository) Load(ctx context.Context, key string) (name, contentType string, data []byte, err error) {
	err = r.db.QueryRow(ctx, `
        SELECT name, content_type, data FROM blobs WHERE key = $1
    `, key).Scan(&name, &contentType, &data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", nil, apperr.NotFound("blob %s not found", key)
		}
		return "", "", nil, apperr.Storage(err, "failed to load blob %s", key)
	}
	return name, contentType, data, nil
}
