package versioned

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound is returned when the record is absent from the requested stage.
var ErrNotFound = errors.New("versioned record not found")

// ListQuery narrows a List call. Scopes are plain gorm scopes.
type ListQuery struct {
	Scopes  []func(*gorm.DB) *gorm.DB
	Order   string
	Page    int
	PerPage int
}

// Store persists one record type in <table> (draft) and <table>_live.
type Store[E any, P interface {
	*E
	Record
}] struct {
	db    *gorm.DB
	table string
	now   func() time.Time
}

// NewStore creates a store for the model E over table
func NewStore[E any, P interface {
	*E
	Record
}](db *gorm.DB, table string) *Store[E, P] {
	return &Store[E, P]{db: db, table: table, now: time.Now}
}

// Table returns the physical table for a stage
func (s *Store[E, P]) Table(stage Stage) string {
	if stage == Live {
		return s.table + "_live"
	}
	return s.table
}

func (s *Store[E, P]) class() string {
	return P(new(E)).RecordClass()
}

// Migrate creates or updates both stage tables and the history table
func (s *Store[E, P]) Migrate() error {
	for _, stage := range []Stage{Draft, Live} {
		if err := s.db.Table(s.Table(stage)).AutoMigrate(new(E)); err != nil {
			return fmt.Errorf("migrate %s: %w", s.Table(stage), err)
		}
	}
	return s.db.AutoMigrate(&RecordVersion{})
}

// Get loads a record from a stage
func (s *Store[E, P]) Get(ctx context.Context, stage Stage, id uint64) (P, error) {
	return s.get(s.db.WithContext(ctx), stage, id)
}

func (s *Store[E, P]) get(tx *gorm.DB, stage Stage, id uint64) (P, error) {
	var e E
	err := tx.Table(s.Table(stage)).Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s #%d on %s", ErrNotFound, s.class(), id, stage)
	}
	if err != nil {
		return nil, err
	}
	return P(&e), nil
}

// List returns one page of a stage plus the total match count
func (s *Store[E, P]) List(ctx context.Context, stage Stage, q ListQuery) ([]P, int64, error) {
	query := s.db.WithContext(ctx).Table(s.Table(stage)).Scopes(q.Scopes...)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if q.Order != "" {
		query = query.Order(q.Order)
	}
	if q.PerPage > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * q.PerPage).Limit(q.PerPage)
	}

	var rows []E
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]P, len(rows))
	for i := range rows {
		out[i] = P(&rows[i])
	}
	return out, total, nil
}

// Write saves rec to the draft stage and records a new version.
// A zero ID creates the record.
func (s *Store[E, P]) Write(ctx context.Context, rec P, authorID *uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		version, err := s.nextVersion(tx, rec.GetID())
		if err != nil {
			return err
		}
		rec.SetVersion(version)
		rec.Touch(s.now())

		if rec.GetID() == 0 {
			if err := tx.Table(s.Table(Draft)).Create(rec).Error; err != nil {
				return fmt.Errorf("create %s: %w", s.class(), err)
			}
		} else {
			if _, err := s.get(tx, Draft, rec.GetID()); err != nil {
				return err
			}
			if err := tx.Table(s.Table(Draft)).Save(rec).Error; err != nil {
				return fmt.Errorf("update %s #%d: %w", s.class(), rec.GetID(), err)
			}
		}
		return s.recordVersion(tx, rec, false, false, authorID)
	})
}

// Publish copies the draft record over the live record.
func (s *Store[E, P]) Publish(ctx context.Context, id uint64, authorID *uint64) (P, error) {
	var published P
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.get(tx, Draft, id)
		if err != nil {
			return err
		}
		version, err := s.nextVersion(tx, id)
		if err != nil {
			return err
		}
		rec.SetVersion(version)
		if err := tx.Table(s.Table(Draft)).Where("id = ?", id).Update("version", version).Error; err != nil {
			return err
		}
		if err := s.replace(tx, Live, rec); err != nil {
			return err
		}
		published = rec
		return s.recordVersion(tx, rec, true, false, authorID)
	})
	return published, err
}

// Unpublish removes the live record; the draft stays.
func (s *Store[E, P]) Unpublish(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Table(s.Table(Live)).Where("id = ?", id).Delete(new(E))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s #%d on %s", ErrNotFound, s.class(), id, Live)
	}
	return nil
}

// RevertToLive discards draft changes by copying the live record back.
func (s *Store[E, P]) RevertToLive(ctx context.Context, id uint64, authorID *uint64) (P, error) {
	var reverted P
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.get(tx, Live, id)
		if err != nil {
			return err
		}
		version, err := s.nextVersion(tx, id)
		if err != nil {
			return err
		}
		rec.SetVersion(version)
		if err := s.replace(tx, Draft, rec); err != nil {
			return err
		}
		reverted = rec
		return s.recordVersion(tx, rec, false, false, authorID)
	})
	return reverted, err
}

// Archive removes the record from both stages and keeps its history.
func (s *Store[E, P]) Archive(ctx context.Context, id uint64, authorID *uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.get(tx, Draft, id)
		if errors.Is(err, ErrNotFound) {
			rec, err = s.get(tx, Live, id)
		}
		if err != nil {
			return err
		}

		for _, stage := range []Stage{Draft, Live} {
			if err := tx.Table(s.Table(stage)).Where("id = ?", id).Delete(new(E)).Error; err != nil {
				return err
			}
		}

		version, err := s.nextVersion(tx, id)
		if err != nil {
			return err
		}
		rec.SetVersion(version)
		return s.recordVersion(tx, rec, false, true, authorID)
	})
}

// Purge deletes the record and its history permanently.
func (s *Store[E, P]) Purge(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stage := range []Stage{Draft, Live} {
			if err := tx.Table(s.Table(stage)).Where("id = ?", id).Delete(new(E)).Error; err != nil {
				return err
			}
		}
		return tx.Where("record_class = ? AND record_id = ?", s.class(), id).Delete(&RecordVersion{}).Error
	})
}

// Versions returns the history of a record, newest first
func (s *Store[E, P]) Versions(ctx context.Context, id uint64) ([]*RecordVersion, error) {
	var versions []*RecordVersion
	err := s.db.WithContext(ctx).
		Where("record_class = ? AND record_id = ?", s.class(), id).
		Order("version DESC").
		Find(&versions).Error
	return versions, err
}

// Latest decodes the newest history snapshot. It still answers after Archive.
func (s *Store[E, P]) Latest(ctx context.Context, id uint64) (P, error) {
	var v RecordVersion
	err := s.db.WithContext(ctx).
		Where("record_class = ? AND record_id = ?", s.class(), id).
		Order("version DESC").
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s #%d has no history", ErrNotFound, s.class(), id)
	}
	if err != nil {
		return nil, err
	}
	var e E
	if err := json.Unmarshal([]byte(v.Snapshot), &e); err != nil {
		return nil, fmt.Errorf("decode %s #%d v%d: %w", s.class(), id, v.Version, err)
	}
	return P(&e), nil
}

// IsPublished reports whether a live copy exists
func (s *Store[E, P]) IsPublished(ctx context.Context, id uint64) (bool, error) {
	return s.exists(ctx, Live, id)
}

// IsOnDraft reports whether a draft copy exists
func (s *Store[E, P]) IsOnDraft(ctx context.Context, id uint64) (bool, error) {
	return s.exists(ctx, Draft, id)
}

func (s *Store[E, P]) exists(ctx context.Context, stage Stage, id uint64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Table(s.Table(stage)).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// replace writes rec into stage, dropping whatever copy was there
func (s *Store[E, P]) replace(tx *gorm.DB, stage Stage, rec P) error {
	if err := tx.Table(s.Table(stage)).Where("id = ?", rec.GetID()).Delete(new(E)).Error; err != nil {
		return err
	}
	if err := tx.Table(s.Table(stage)).Create(rec).Error; err != nil {
		return fmt.Errorf("copy %s #%d to %s: %w", s.class(), rec.GetID(), stage, err)
	}
	return nil
}

// nextVersion returns max(history version)+1; new records start at 1
func (s *Store[E, P]) nextVersion(tx *gorm.DB, id uint64) (int, error) {
	if id == 0 {
		return 1, nil
	}
	var maxVersion *int
	err := tx.Model(&RecordVersion{}).
		Where("record_class = ? AND record_id = ?", s.class(), id).
		Select("MAX(version)").
		Scan(&maxVersion).Error
	if err != nil {
		return 1, err
	}
	if maxVersion == nil {
		return 1, nil
	}
	return *maxVersion + 1, nil
}

func (s *Store[E, P]) recordVersion(tx *gorm.DB, rec P, published, deleted bool, authorID *uint64) error {
	snapshot, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("snapshot %s #%d: %w", s.class(), rec.GetID(), err)
	}
	return tx.Create(&RecordVersion{
		RecordClass:  s.class(),
		RecordID:     rec.GetID(),
		Version:      rec.GetVersion(),
		WasPublished: published,
		WasDeleted:   deleted,
		AuthorID:     authorID,
		Snapshot:     string(snapshot),
	}).Error
}
