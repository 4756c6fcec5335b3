package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blogport/media-pipeline/internal/media/domain"
	"github.com/blogport/media-pipeline/internal/media/models"
)

// MemoryRepository is an in-process MediaRepository used by pipeline and
// service tests. It mirrors the transactional guarantees of the Postgres
// implementation under a single mutex.
type MemoryRepository struct {
	mu          sync.RWMutex
	media       map[uuid.UUID]*models.Media
	attachments []models.MediaAttachment
	variants    map[uuid.UUID][]models.MediaVariant
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		media:    make(map[uuid.UUID]*models.Media),
		variants: make(map[uuid.UUID][]models.MediaVariant),
	}
}

func (r *MemoryRepository) CreateWithAttachment(ctx context.Context, m *models.Media, a *models.MediaAttachment) error {
	if m == nil || a == nil {
		return models.ErrInvalidArgument
	}
	if m.ID == uuid.Nil {
		return models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.media[m.ID]; exists {
		return models.ErrConflict
	}
	for _, existing := range r.attachments {
		if existing.MediaID == a.MediaID &&
			existing.AttachableType == a.AttachableType &&
			existing.AttachableID == a.AttachableID &&
			existing.Role == a.Role {
			return models.ErrConflict
		}
	}

	// Defensive copies so callers cannot mutate stored rows.
	cp := *m
	r.media[m.ID] = &cp
	r.attachments = append(r.attachments, *a)

	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.media[id]
	if !ok {
		return nil, models.ErrNotFound
	}

	cp := *m
	return &cp, nil
}

func (r *MemoryRepository) SetState(ctx context.Context, id uuid.UUID, to models.State, reason string) (*models.Media, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.media[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if err := domain.ValidateTransition(m.State, to); err != nil {
		return nil, err
	}

	prev := *m
	m.State = to
	m.UpdatedAt = time.Now()

	return &prev, nil
}

func (r *MemoryRepository) CASState(ctx context.Context, id uuid.UUID, from, to models.State) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.media[id]
	if !ok || m.State != from {
		return false, nil
	}

	m.State = to
	m.UpdatedAt = time.Now()
	return true, nil
}

func (r *MemoryRepository) RecordVariants(ctx context.Context, mediaID uuid.UUID, variants []models.MediaVariant) ([]models.MediaVariant, error) {
	if len(variants) == 0 {
		return nil, models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.media[mediaID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if m.State != models.ProcessingState {
		return nil, models.ErrConflict
	}
	if len(r.variants[mediaID]) > 0 {
		return nil, models.ErrConflict
	}

	inserted := make([]models.MediaVariant, len(variants))
	copy(inserted, variants)
	for i := range inserted {
		if inserted[i].ID == uuid.Nil {
			inserted[i].ID = uuid.New()
		}
		inserted[i].CreatedAt = time.Now()
	}
	r.variants[mediaID] = inserted
	m.State = models.ReadyState
	m.UpdatedAt = time.Now()

	out := make([]models.MediaVariant, len(inserted))
	copy(out, inserted)
	return out, nil
}

func (r *MemoryRepository) GetVariant(ctx context.Context, mediaID uuid.UUID, size models.SizeClass) (*models.MediaVariant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.variants[mediaID] {
		if v.Size == size {
			cp := v
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *MemoryRepository) ListByAttachable(ctx context.Context, owner uuid.UUID, at models.AttachableType, attachableID uuid.UUID) ([]models.AttachedMedia, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.AttachedMedia
	for _, a := range r.attachments {
		if a.AttachableType != at || a.AttachableID != attachableID {
			continue
		}
		m, ok := r.media[a.MediaID]
		if !ok || m.OwnerID != owner {
			continue
		}
		out = append(out, models.AttachedMedia{Media: *m, Attachment: a})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Attachment.Role != out[j].Attachment.Role {
			return out[i].Attachment.Role < out[j].Attachment.Role
		}
		return out[i].Attachment.Position < out[j].Attachment.Position
	})
	return out, nil
}
