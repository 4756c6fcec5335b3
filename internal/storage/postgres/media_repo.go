package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/blogport/media-pipeline/internal/media/domain"
	"github.com/blogport/media-pipeline/internal/media/models"
)

// MediaRepo implements repository.MediaRepository over Postgres. Every write
// runs in a single transaction; state-change rows and their outbox events
// commit or roll back together.
type MediaRepo struct {
	db     *sqlx.DB
	outbox *OutboxRepo
}

func NewMediaRepo(db *sqlx.DB, outbox *OutboxRepo) *MediaRepo {
	return &MediaRepo{db: db, outbox: outbox}
}

const mediaColumns = `id, owner_id, bucket_name, object_key, original_filename,
	mime_type, file_size_bytes, width, height, state, created_at, updated_at`

func (r *MediaRepo) CreateWithAttachment(ctx context.Context, m *models.Media, a *models.MediaAttachment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const insertMedia = `
		INSERT INTO media (id, owner_id, bucket_name, object_key, original_filename,
			mime_type, file_size_bytes, width, height, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if _, err := tx.ExecContext(ctx, insertMedia,
		m.ID, m.OwnerID, m.BucketName, m.ObjectKey, m.OriginalFilename,
		m.MimeType, m.FileSizeBytes, m.Width, m.Height, m.State, m.CreatedAt, m.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return models.ErrConflict
		}
		return fmt.Errorf("media insert: %w", err)
	}

	const insertAttachment = `
		INSERT INTO media_attachments (id, media_id, attachable_type, attachable_id,
			role, position, alt_text, caption, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := tx.ExecContext(ctx, insertAttachment,
		a.ID, a.MediaID, a.AttachableType, a.AttachableID,
		a.Role, a.Position, a.AltText, a.Caption, a.CreatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return models.ErrConflict
		}
		return fmt.Errorf("attachment insert: %w", err)
	}

	event := models.NewMediaUploadAuthorized(m.ID, m.OwnerID, m.BucketName, m.ObjectKey)
	if err := r.outbox.Add(ctx, tx, event); err != nil {
		return fmt.Errorf("add outbox: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *MediaRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	q := `SELECT ` + mediaColumns + ` FROM media WHERE id = $1`

	var m models.Media
	if err := r.db.GetContext(ctx, &m, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("media get by id: %w", err)
	}
	return &m, nil
}

// SetState updates the row and returns it as it was before the update. The
// FROM-subquery with FOR UPDATE pins the previous state under concurrent
// writers.
func (r *MediaRepo) SetState(ctx context.Context, id uuid.UUID, to models.State, reason string) (*models.Media, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const q = `
		UPDATE media m
		SET state = $2, updated_at = NOW()
		FROM (SELECT id, state AS prev_state FROM media WHERE id = $1 FOR UPDATE) old
		WHERE m.id = old.id
		RETURNING m.id, m.owner_id, m.bucket_name, m.object_key, m.original_filename,
			m.mime_type, m.file_size_bytes, m.width, m.height, old.prev_state AS state,
			m.created_at, m.updated_at
	`

	var prev models.Media
	if err := tx.GetContext(ctx, &prev, q, id, to); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("media set state: %w", err)
	}

	// Validated against the locked pre-image; an illegal transition rolls
	// the update back.
	if err := domain.ValidateTransition(prev.State, to); err != nil {
		return nil, err
	}

	event := models.NewMediaStateChanged(id, prev.State, to, reason)
	if err := r.outbox.Add(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("add outbox: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &prev, nil
}

// CASState is the only mutual-exclusion point in the pipeline: a conditional
// UPDATE, never SELECT-then-UPDATE, because concurrent invocations may run on
// separate processes.
func (r *MediaRepo) CASState(ctx context.Context, id uuid.UUID, from, to models.State) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const q = `
		UPDATE media
		SET state = $3, updated_at = NOW()
		WHERE id = $1 AND state = $2
	`
	res, err := tx.ExecContext(ctx, q, id, from, to)
	if err != nil {
		return false, fmt.Errorf("media cas state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("media cas state rows: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	event := models.NewMediaStateChanged(id, from, to, "")
	if err := r.outbox.Add(ctx, tx, event); err != nil {
		return false, fmt.Errorf("add outbox: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}

func (r *MediaRepo) RecordVariants(ctx context.Context, mediaID uuid.UUID, variants []models.MediaVariant) ([]models.MediaVariant, error) {
	if len(variants) == 0 {
		return nil, models.ErrInvalidArgument
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const insertVariant = `
		INSERT INTO media_variants (id, media_id, size, bucket_name, object_key,
			mime_type, file_size_bytes, width, height, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, media_id, size, bucket_name, object_key, mime_type,
			file_size_bytes, width, height, created_at
	`

	inserted := make([]models.MediaVariant, 0, len(variants))
	for _, v := range variants {
		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}
		var row models.MediaVariant
		if err := tx.GetContext(ctx, &row, insertVariant,
			v.ID, v.MediaID, v.Size, v.BucketName, v.ObjectKey,
			v.MimeType, v.FileSizeBytes, v.Width, v.Height,
		); err != nil {
			if isUniqueViolation(err) {
				return nil, models.ErrConflict
			}
			return nil, fmt.Errorf("variant insert: %w", err)
		}
		inserted = append(inserted, row)
	}

	// The ready flip is conditional so a competing terminal transition can
	// never be overwritten.
	const finish = `
		UPDATE media
		SET state = $2, updated_at = NOW()
		WHERE id = $1 AND state = $3
	`
	res, err := tx.ExecContext(ctx, finish, mediaID, models.ReadyState, models.ProcessingState)
	if err != nil {
		return nil, fmt.Errorf("media finish: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("media finish rows: %w", err)
	}
	if affected == 0 {
		return nil, models.ErrConflict
	}

	event := models.NewMediaStateChanged(mediaID, models.ProcessingState, models.ReadyState, "")
	if err := r.outbox.Add(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("add outbox: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return inserted, nil
}

func (r *MediaRepo) GetVariant(ctx context.Context, mediaID uuid.UUID, size models.SizeClass) (*models.MediaVariant, error) {
	const q = `
		SELECT id, media_id, size, bucket_name, object_key, mime_type,
			file_size_bytes, width, height, created_at
		FROM media_variants
		WHERE media_id = $1 AND size = $2
	`

	var v models.MediaVariant
	if err := r.db.GetContext(ctx, &v, q, mediaID, size); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("variant get: %w", err)
	}
	return &v, nil
}

func (r *MediaRepo) ListByAttachable(ctx context.Context, owner uuid.UUID, at models.AttachableType, attachableID uuid.UUID) ([]models.AttachedMedia, error) {
	const q = `
		SELECT
			m.id AS "media.id", m.owner_id AS "media.owner_id",
			m.bucket_name AS "media.bucket_name", m.object_key AS "media.object_key",
			m.original_filename AS "media.original_filename", m.mime_type AS "media.mime_type",
			m.file_size_bytes AS "media.file_size_bytes", m.width AS "media.width",
			m.height AS "media.height", m.state AS "media.state",
			m.created_at AS "media.created_at", m.updated_at AS "media.updated_at",
			a.id AS "attachment.id", a.media_id AS "attachment.media_id",
			a.attachable_type AS "attachment.attachable_type",
			a.attachable_id AS "attachment.attachable_id",
			a.role AS "attachment.role", a.position AS "attachment.position",
			a.alt_text AS "attachment.alt_text", a.caption AS "attachment.caption",
			a.created_at AS "attachment.created_at"
		FROM media_attachments a
		JOIN media m ON m.id = a.media_id
		WHERE a.attachable_type = $1 AND a.attachable_id = $2 AND m.owner_id = $3
		ORDER BY a.role, a.position
	`

	var rows []struct {
		Media      models.Media           `db:"media"`
		Attachment models.MediaAttachment `db:"attachment"`
	}
	if err := r.db.SelectContext(ctx, &rows, q, at, attachableID, owner); err != nil {
		return nil, fmt.Errorf("list by attachable: %w", err)
	}

	out := make([]models.AttachedMedia, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.AttachedMedia{Media: row.Media, Attachment: row.Attachment})
	}
	return out, nil
}

// isUniqueViolation matches Postgres error code 23505 surfaced through the
// pgx stdlib driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
