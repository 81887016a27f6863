package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"phasetrack/internal/apperr"
	"phasetrack/internal/model"
	"phasetrack/pkg/metrics"
)

type ArtifactRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewArtifactRepository(db *pgxpool.Pool, logger *zap.Logger) *ArtifactRepository {
	return &ArtifactRepository{
		db:     db,
		logger: logger,
	}
}

func scanArtifact(row pgx.Row) (*model.Artifact, error) {
	var (
		a           model.Artifact
		buildID     *string
		downloadURL *string
	)
	err := row.Scan(
		&a.ID,
		&a.PhaseID,
		&a.Category,
		&a.Mandatory,
		&a.Status,
		&buildID,
		&downloadURL,
		&a.Checklist,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if buildID != nil || downloadURL != nil {
		a.Build = &model.BuildInfo{}
		if buildID != nil {
			a.Build.BuildID = *buildID
		}
		if downloadURL != nil {
			a.Build.DownloadURL = *downloadURL
		}
	}
	return &a, nil
}

func buildFields(a *model.Artifact) (buildID, downloadURL *string) {
	if a.Build != nil {
		buildID = &a.Build.BuildID
		downloadURL = &a.Build.DownloadURL
	}
	return buildID, downloadURL
}

// InsertWithVersion creates the artifact and its version 1 in one transaction.
func (r *ArtifactRepository) InsertWithVersion(ctx context.Context, a *model.Artifact, v *model.ArtifactVersion) error {
	r.logger.Debug("Inserting artifact",
		zap.Int("phase_id", a.PhaseID),
		zap.String("category", a.Category),
	)

	start := time.Now()
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperr.Storage(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if err := insertArtifact(ctx, tx, a); err != nil {
		r.logger.Error("Failed to insert artifact", zap.Error(err))
		return err
	}

	v.ArtifactID = a.ID
	v.Number = 1
	if err := insertVersion(ctx, tx, v); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Storage(err, "failed to commit artifact creation")
	}

	metrics.RecordDBQueryDuration("insert", "artifacts", time.Since(start))
	r.logger.Info("Artifact inserted",
		zap.Int("id", a.ID),
		zap.String("category", a.Category),
	)
	return nil
}

func insertArtifact(ctx context.Context, tx pgx.Tx, a *model.Artifact) error {
	buildID, downloadURL := buildFields(a)
	err := tx.QueryRow(ctx, `
        INSERT INTO artifacts (phase_id, category, mandatory, status, build_id, download_url, checklist)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at
    `,
		a.PhaseID,
		a.Category,
		a.Mandatory,
		a.Status,
		buildID,
		downloadURL,
		nullableJSON(a.Checklist),
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return apperr.Storage(err, "failed to insert artifact")
	}
	return nil
}

const artifactColumns = `id, phase_id, category, mandatory, status, build_id, download_url, checklist, created_at, updated_at`

func (r *ArtifactRepository) FindByID(ctx context.Context, id int) (*model.Artifact, error) {
	query := `SELECT ` + artifactColumns + ` FROM artifacts WHERE id = $1`

	a, err := scanArtifact(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("artifact %d not found", id)
		}
		r.logger.Error("Failed to find artifact", zap.Int("id", id), zap.Error(err))
		return nil, apperr.Storage(err, "failed to find artifact %d", id)
	}
	return a, nil
}

// FindByPhaseAndCategory returns the most recently created artifact of the
// category, or NotFound.
func (r *ArtifactRepository) FindByPhaseAndCategory(ctx context.Context, phaseID int, category string) (*model.Artifact, error) {
	query := `SELECT ` + artifactColumns + `
        FROM artifacts
        WHERE phase_id = $1 AND category = $2
        ORDER BY created_at DESC
        LIMIT 1`

	a, err := scanArtifact(r.db.QueryRow(ctx, query, phaseID, category))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("phase %d has no %s artifact", phaseID, category)
		}
		return nil, apperr.Storage(err, "failed to find %s artifact of phase %d", category, phaseID)
	}
	return a, nil
}

// ListByPhase returns the phase's artifacts with their version counts.
func (r *ArtifactRepository) ListByPhase(ctx context.Context, phaseID int) ([]model.Artifact, error) {
	query := `
        SELECT a.id, a.phase_id, a.category, a.mandatory, a.status, a.build_id,
               a.download_url, a.checklist, a.created_at, a.updated_at,
               COUNT(v.id) AS version_count
        FROM artifacts a
        LEFT JOIN artifact_versions v ON v.artifact_id = a.id
        WHERE a.phase_id = $1
        GROUP BY a.id
        ORDER BY a.created_at ASC
    `

	rows, err := r.db.Query(ctx, query, phaseID)
	if err != nil {
		r.logger.Error("Failed to list artifacts", zap.Int("phase_id", phaseID), zap.Error(err))
		return nil, apperr.Storage(err, "failed to list artifacts of phase %d", phaseID)
	}
	defer rows.Close()

	var artifacts []model.Artifact
	for rows.Next() {
		var (
			a           model.Artifact
			buildID     *string
			downloadURL *string
		)
		if err := rows.Scan(
			&a.ID,
			&a.PhaseID,
			&a.Category,
			&a.Mandatory,
			&a.Status,
			&buildID,
			&downloadURL,
			&a.Checklist,
			&a.CreatedAt,
			&a.UpdatedAt,
			&a.VersionCount,
		); err != nil {
			return nil, apperr.Storage(err, "failed to scan artifact")
		}
		if buildID != nil || downloadURL != nil {
			a.Build = &model.BuildInfo{}
			if buildID != nil {
				a.Build.BuildID = *buildID
			}
			if downloadURL != nil {
				a.Build.DownloadURL = *downloadURL
			}
		}
		artifacts = append(artifacts, a)
	}

	return artifacts, rows.Err()
}

// UpdateArtifact persists mutable artifact fields: status, build info and
// checklist payload. Versions are never touched here.
func (r *ArtifactRepository) UpdateArtifact(ctx context.Context, a *model.Artifact) error {
	buildID, downloadURL := buildFields(a)
	tag, err := r.db.Exec(ctx, `
        UPDATE artifacts
        SET status = $1, build_id = $2, download_url = $3, checklist = $4, updated_at = NOW()
        WHERE id = $5
    `, a.Status, buildID, downloadURL, nullableJSON(a.Checklist), a.ID)
	if err != nil {
		r.logger.Error("Failed to update artifact", zap.Int("id", a.ID), zap.Error(err))
		return apperr.Storage(err, "failed to update artifact %d", a.ID)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("artifact %d not found", a.ID)
	}
	return nil
}

// AppendVersion assigns the next version number and appends the version,
// touching the artifact's updated_at, in one transaction.
func (r *ArtifactRepository) AppendVersion(ctx context.Context, v *model.ArtifactVersion) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperr.Storage(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
        SELECT COALESCE(MAX(number), 0) + 1 FROM artifact_versions WHERE artifact_id = $1
    `, v.ArtifactID).Scan(&v.Number)
	if err != nil {
		return apperr.Storage(err, "failed to compute next version number")
	}

	if err := insertVersion(ctx, tx, v); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
        UPDATE artifacts SET updated_at = NOW() WHERE id = $1
    `, v.ArtifactID)
	if err != nil {
		return apperr.Storage(err, "failed to touch artifact %d", v.ArtifactID)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("artifact %d not found", v.ArtifactID)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Storage(err, "failed to commit version append")
	}

	r.logger.Info("Version appended",
		zap.Int("artifact_id", v.ArtifactID),
		zap.Int("number", v.Number),
	)
	return nil
}

func insertVersion(ctx context.Context, tx pgx.Tx, v *model.ArtifactVersion) error {
	var (
		blobKey, fileName, contentType *string
		sizeBytes                      *int64
	)
	if v.File != nil {
		blobKey = &v.File.BlobKey
		fileName = &v.File.Name
		contentType = &v.File.ContentType
		sizeBytes = &v.File.SizeBytes
	}

	err := tx.QueryRow(ctx, `
        INSERT INTO artifact_versions
            (artifact_id, number, author, change_description, content, blob_key, file_name, content_type, size_bytes, repo_link)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, created_at
    `,
		v.ArtifactID,
		v.Number,
		v.Author,
		v.ChangeDescription,
		nullableString(v.Content),
		blobKey,
		fileName,
		contentType,
		sizeBytes,
		nullableString(v.RepoLink),
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return apperr.Storage(err, "failed to insert version %d of artifact %d", v.Number, v.ArtifactID)
	}
	return nil
}

func (r *ArtifactRepository) ListVersions(ctx context.Context, artifactID int) ([]model.ArtifactVersion, error) {
	query := `
        SELECT id, artifact_id, number, author, change_description, content,
               blob_key, file_name, content_type, size_bytes, repo_link, created_at
        FROM artifact_versions
        WHERE artifact_id = $1
        ORDER BY number ASC
    `

	rows, err := r.db.Query(ctx, query, artifactID)
	if err != nil {
		return nil, apperr.Storage(err, "failed to list versions of artifact %d", artifactID)
	}
	defer rows.Close()

	var versions []model.ArtifactVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, apperr.Storage(err, "failed to scan version")
		}
		versions = append(versions, *v)
	}

	return versions, rows.Err()
}

func (r *ArtifactRepository) FindVersion(ctx context.Context, artifactID, number int) (*model.ArtifactVersion, error) {
	query := `
        SELECT id, artifact_id, number, author, change_description, content,
               blob_key, file_name, content_type, size_bytes, repo_link, created_at
        FROM artifact_versions
        WHERE artifact_id = $1 AND number = $2
    `

	v, err := scanVersion(r.db.QueryRow(ctx, query, artifactID, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("artifact %d has no version %d", artifactID, number)
		}
		return nil, apperr.Storage(err, "failed to find version %d of artifact %d", number, artifactID)
	}
	return v, nil
}

func scanVersion(row pgx.Row) (*model.ArtifactVersion, error) {
	var (
		v                              model.ArtifactVersion
		content, repoLink              *string
		blobKey, fileName, contentType *string
		sizeBytes                      *int64
	)
	err := row.Scan(
		&v.ID,
		&v.ArtifactID,
		&v.Number,
		&v.Author,
		&v.ChangeDescription,
		&content,
		&blobKey,
		&fileName,
		&contentType,
		&sizeBytes,
		&repoLink,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if content != nil {
		v.Content = *content
	}
	if repoLink != nil {
		v.RepoLink = *repoLink
	}
	if blobKey != nil {
		v.File = &model.FileRef{
			BlobKey: *blobKey,
		}
		if fileName != nil {
			v.File.Name = *fileName
		}
		if contentType != nil {
			v.File.ContentType = *contentType
		}
		if sizeBytes != nil {
			v.File.SizeBytes = *sizeBytes
		}
	}
	return &v, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
