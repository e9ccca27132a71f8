package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"tripwise/metrics"
	"tripwise/utils"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// documentRow is how a Document is kept in the SQL database. Data holds the JSON encoded fields.
type documentRow struct {
	Path      string `gorm:"primaryKey;type:varchar(300)"`
	Parent    string `gorm:"type:varchar(300);index:documents_parent;not null"`
	DocID     string `gorm:"type:varchar(100);not null"`
	Data      string `gorm:"type:text"`
	CreatedAt int64
	UpdatedAt int64
}

func (documentRow) TableName() string {
	return "documents"
}

func (r *documentRow) toDocument() (*Document, error) {
	doc := &Document{ID: r.DocID, Path: r.Path, Data: map[string]any{}}
	if r.Data == "" {
		return doc, nil
	}
	if err := json.Unmarshal([]byte(r.Data), &doc.Data); err != nil {
		return nil, fmt.Errorf("corrupt document data: %w", err)
	}
	if doc.Data == nil {
		doc.Data = map[string]any{}
	}
	return doc, nil
}

// GormStore keeps documents in MySQL or SQLite and serves live queries from committed writes
type GormStore struct {
	db  *gorm.DB
	hub *hub
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db, hub: newHub()}, nil
}

func (s *GormStore) NewDocumentID() string {
	return utils.Rand16BytesToBase62()
}

func (s *GormStore) GetDocument(ctx context.Context, path string) (*Document, error) {
	if !IsDocumentPath(path) {
		return nil, newError("get", path, ErrInvalidPath)
	}
	rows := []documentRow{}
	if err := s.db.WithContext(ctx).Where("path = ?", path).Limit(1).Find(&rows).Error; err != nil {
		return nil, newError("get", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	doc, err := rows[0].toDocument()
	if err != nil {
		return nil, newError("get", path, err)
	}
	return doc, nil
}

// ListCollection returns the current documents of a collection ordered by orderKey (document id when empty)
func (s *GormStore) ListCollection(ctx context.Context, path, orderKey string) ([]Document, error) {
	if !IsCollectionPath(path) {
		return nil, newError("list", path, ErrInvalidPath)
	}
	rows := []documentRow{}
	if err := s.db.WithContext(ctx).Where("parent = ?", strings.Trim(path, "/")).Find(&rows).Error; err != nil {
		return nil, newError("list", path, err)
	}
	result := make([]Document, 0, len(rows))
	for i := range rows {
		doc, err := rows[i].toDocument()
		if err != nil {
			return nil, newError("list", path, err)
		}
		result = append(result, *doc)
	}
	SortDocuments(result, orderKey)
	return result, nil
}

func (s *GormStore) CreateDocument(ctx context.Context, path string, data map[string]any) error {
	return s.commit(ctx, "set", []Write{Set(path, data)})
}

func (s *GormStore) UpdateField(ctx context.Context, path, field string, value any) error {
	return s.commit(ctx, "update", []Write{UpdateWrite(path, field, value)})
}

func (s *GormStore) DeleteDocument(ctx context.Context, path string) error {
	return s.commit(ctx, "delete", []Write{Delete(path)})
}

func (s *GormStore) RunAtomicBatch(ctx context.Context, writes []Write) error {
	return s.commit(ctx, "batch", writes)
}

func (s *GormStore) commit(ctx context.Context, op string, writes []Write) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, w := range writes {
			if err := apply(tx, w); err != nil {
				return newError(string(w.Op), w.Path, err)
			}
		}
		return nil
	})
	metrics.RecordWrite(op, err)
	if err != nil {
		return newError(op, "", err)
	}
	paths := make([]string, 0, len(writes))
	for _, w := range writes {
		paths = append(paths, strings.Trim(w.Path, "/"))
	}
	s.hub.notify(paths...)
	return nil
}

func apply(tx *gorm.DB, w Write) error {
	collection, id, err := SplitDocumentPath(w.Path)
	if err != nil {
		return err
	}
	path := collection + "/" + id
	now := time.Now().Unix()
	switch w.Op {
	case OpSet:
		data, err := json.Marshal(w.Data)
		if err != nil {
			return err
		}
		row := documentRow{Path: path, Parent: collection, DocID: id, Data: string(data), CreatedAt: now, UpdatedAt: now}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "path"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).Create(&row).Error
	case OpUpdate:
		if w.Field == "" {
			return fmt.Errorf("%w: update of %s has no field", ErrInvalidWrite, path)
		}
		rows := []documentRow{}
		if err := tx.Where("path = ?", path).Limit(1).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return ErrNotFound
		}
		doc, err := rows[0].toDocument()
		if err != nil {
			return err
		}
		doc.Data[w.Field] = w.Value
		data, err := json.Marshal(doc.Data)
		if err != nil {
			return err
		}
		return tx.Model(&documentRow{}).Where("path = ?", path).Updates(map[string]any{"data": string(data), "updated_at": now}).Error
	case OpDelete:
		return tx.Where("path = ?", path).Delete(&documentRow{}).Error
	}
	return fmt.Errorf("%w: unknown op %q", ErrInvalidWrite, w.Op)
}

func (s *GormStore) ObserveDocument(path string) *Subscription[*Document] {
	path = strings.Trim(path, "/")
	return observe(s, path, func(ctx context.Context) (*Document, error) {
		return s.GetDocument(ctx, path)
	})
}

func (s *GormStore) ObserveCollection(path, orderKey string) *Subscription[[]Document] {
	path = strings.Trim(path, "/")
	return observe(s, path, func(ctx context.Context) ([]Document, error) {
		return s.ListCollection(ctx, path, orderKey)
	})
}

// observe registers with the hub first, so no commit between the fetch and the wait is missed
func observe[T any](s *GormStore, path string, fetch func(ctx context.Context) (T, error)) *Subscription[T] {
	return NewSubscription(func(ctx context.Context, emit func(Update[T]) bool) {
		w, release := s.hub.watch(path)
		defer release()
		metrics.SubscriptionStarted()
		defer metrics.SubscriptionEnded()

		for {
			value, err := fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn().Err(err).Str("path", path).Msg("live query failed")
				emit(Update[T]{Err: newError("listen", path, err)})
				return
			}
			if !emit(Update[T]{Value: value}) {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-w.ch:
			}
		}
	})
}

// ActiveSubscriptions is the number of live queries currently registered
func (s *GormStore) ActiveSubscriptions() int {
	return s.hub.count()
}

// SortDocuments orders documents by a field, then by id. Missing fields sort first.
func SortDocuments(docs []Document, orderKey string) {
	sort.SliceStable(docs, func(i, j int) bool {
		if orderKey != "" {
			if c := compareValues(docs[i].Data[orderKey], docs[j].Data[orderKey]); c != 0 {
				return c < 0
			}
		}
		return docs[i].ID < docs[j].ID
	})
}

func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64, int, int64:
		return 2
	case string:
		return 3
	}
	return 4
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case string:
		return strings.Compare(av, b.(string))
	}
	if ra == 2 {
		fa, fb := toFloat(a), toFloat(b)
		if fa < fb {
			return -1
		}
		if fa > fb {
			return 1
		}
	}
	return 0
}
