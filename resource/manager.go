package resource

import (
	"context"
	"errors"
	"log/slog"

	"roster-server-go/query"
)

// Record is a persisted record kind with a store-assigned identity.
// T is the record's own pointer type, e.g. *models.StudentRecord.
type Record[T any] interface {
	GetID() *int64
	SetID(id int64)
	MergeFrom(patch T)
}

// Store is the durable collection behind a Manager.
//
// FindByID reports absence with ok=false and a nil error. DeleteByID of an absent id
// succeeds.
type Store[T any] interface {
	Insert(ctx context.Context, rec T) (int64, error)
	UpdateFull(ctx context.Context, id int64, rec T) (T, error)
	Exists(ctx context.Context, id int64) (bool, error)
	FindByID(ctx context.Context, id int64) (rec T, ok bool, err error)
	FindAll(ctx context.Context, f query.Filter, p query.PageRequest) (query.Page[T], error)
	DeleteByID(ctx context.Context, id int64) error
}

// ForUpdateLoader is implemented by stores that serve reads from a cache. LoadForUpdate
// reads the durable copy that a read-modify-write must start from.
type ForUpdateLoader[T any] interface {
	LoadForUpdate(ctx context.Context, id int64) (rec T, ok bool, err error)
}

// Manager enforces identity assignment and update semantics for one record kind.
// It holds no locks; concurrent updates of the same id are last-writer-wins.
type Manager[T Record[T]] struct {
	kind   string
	store  Store[T]
	logger *slog.Logger
}

// NewManager creates a Manager for records of the given kind.
func NewManager[T Record[T]](kind string, store Store[T], logger *slog.Logger) *Manager[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager[T]{
		kind:   kind,
		store:  store,
		logger: logger.With("resource", kind),
	}
}

// Kind returns the record kind managed.
func (m *Manager[T]) Kind() string { return m.kind }

// Create persists a new record and assigns its identity.
func (m *Manager[T]) Create(ctx context.Context, rec T) (T, error) {
	m.logger.Debug("request to save record", "record", rec)
	if id := rec.GetID(); id != nil {
		var zero T
		return zero, &IdentityConflictError{Resource: m.kind, ID: *id}
	}

	id, err := m.store.Insert(ctx, rec)
	if err != nil {
		var zero T
		return zero, unavailable(m.kind, "create", err)
	}
	rec.SetID(id)
	m.logger.Info("created record", "id", id)
	return rec, nil
}

// Replace overwrites every field of the stored record with the fields of rec.
func (m *Manager[T]) Replace(ctx context.Context, id int64, rec T) (T, error) {
	m.logger.Debug("request to update record", "id", id, "record", rec)
	var zero T
	if err := m.checkTarget(ctx, id, rec); err != nil {
		return zero, err
	}

	updated, err := m.store.UpdateFull(ctx, id, rec)
	if errors.Is(err, ErrNoRecord) {
		return zero, &NotFoundError{Resource: m.kind, ID: id}
	}
	if err != nil {
		return zero, unavailable(m.kind, "replace", err)
	}
	return updated, nil
}

// MergePatch loads the stored record, overwrites only the non-nil fields of patch and
// persists the result.
func (m *Manager[T]) MergePatch(ctx context.Context, id int64, patch T) (T, error) {
	m.logger.Debug("request to partially update record", "id", id, "patch", patch)
	var zero T
	if err := m.checkTarget(ctx, id, patch); err != nil {
		return zero, err
	}

	existing, ok, err := m.loadForUpdate(ctx, id)
	if err != nil {
		return zero, unavailable(m.kind, "merge patch", err)
	}
	if !ok {
		// deleted between the existence check and the load
		return zero, &NotFoundError{Resource: m.kind, ID: id}
	}

	existing.MergeFrom(patch)
	merged, err := m.store.UpdateFull(ctx, id, existing)
	if errors.Is(err, ErrNoRecord) {
		return zero, &NotFoundError{Resource: m.kind, ID: id}
	}
	if err != nil {
		return zero, unavailable(m.kind, "merge patch", err)
	}
	return merged, nil
}

// FetchByID returns the record and true, or false when no record has the id.
func (m *Manager[T]) FetchByID(ctx context.Context, id int64) (T, bool, error) {
	m.logger.Debug("request to get record", "id", id)
	rec, ok, err := m.store.FindByID(ctx, id)
	if err != nil {
		var zero T
		return zero, false, unavailable(m.kind, "fetch", err)
	}
	return rec, ok, nil
}

// FetchPage returns one page of the records matching f. A nil filter lists everything.
func (m *Manager[T]) FetchPage(ctx context.Context, f query.Filter, p query.PageRequest) (query.Page[T], error) {
	m.logger.Debug("request to get a page of records", "page", p.Page, "size", p.Size)
	if err := p.Validate(); err != nil {
		return query.Page[T]{}, err
	}
	page, err := m.store.FindAll(ctx, f, p)
	if err != nil {
		return query.Page[T]{}, wrapQueryErr(m.kind, err)
	}
	return page, nil
}

// Delete removes the record if present. Deleting an absent id is not an error.
func (m *Manager[T]) Delete(ctx context.Context, id int64) error {
	m.logger.Debug("request to delete record", "id", id)
	if err := m.store.DeleteByID(ctx, id); err != nil {
		return unavailable(m.kind, "delete", err)
	}
	return nil
}

// ExistsByID reports whether a record with the id is stored.
func (m *Manager[T]) ExistsByID(ctx context.Context, id int64) (bool, error) {
	ok, err := m.store.Exists(ctx, id)
	if err != nil {
		return false, unavailable(m.kind, "exists", err)
	}
	return ok, nil
}

// checkTarget validates the identity of an update payload before anything is written.
func (m *Manager[T]) checkTarget(ctx context.Context, id int64, rec T) error {
	payloadID := rec.GetID()
	if payloadID == nil {
		return &MissingIdentityError{Resource: m.kind}
	}
	if *payloadID != id {
		return &IdentityMismatchError{Resource: m.kind, PathID: id, PayloadID: *payloadID}
	}
	ok, err := m.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Resource: m.kind, ID: id}
	}
	return nil
}

func (m *Manager[T]) loadForUpdate(ctx context.Context, id int64) (T, bool, error) {
	if l, ok := m.store.(ForUpdateLoader[T]); ok {
		return l.LoadForUpdate(ctx, id)
	}
	return m.store.FindByID(ctx, id)
}

// wrapQueryErr keeps page validation errors visible to the caller.
func wrapQueryErr(kind string, err error) error {
	var pe *query.InvalidPageError
	if errors.As(err, &pe) {
		return pe
	}
	return unavailable(kind, "fetch page", err)
}
