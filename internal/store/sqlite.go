package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	selectDocumentSQL = `SELECT body FROM documents WHERE name = ?`

	upsertDocumentSQL = `
		INSERT INTO documents (name, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			body=excluded.body,
			updated_at=excluded.updated_at
	`

	deleteDocumentSQL = `DELETE FROM documents WHERE name = ?`
)

// SQLite keeps each root document as one JSON tree in a single row and
// re-delivers every local write to in-process subscribers, standing in for
// the remote store's push channel on single-node deployments. The local
// adapter has no transport layer, so subscription onError callbacks are
// retained for the contract but never fired here.
type SQLite struct {
	db *sql.DB

	// writeMu serializes writers so subscribers observe changes in commit order.
	writeMu sync.Mutex

	subMu  sync.Mutex
	subs   map[int]*subscription
	nextID int
}

type subscription struct {
	segs     []string
	onChange func(any)
	onError  func(error)
}

// NewSQLite wraps an opened database. The documents table must already exist.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db, subs: make(map[int]*subscription)}
}

var _ Store = (*SQLite)(nil)

// unavailable tags a transport-level failure so callers can test for
// ErrUnavailable while keeping the cause.
func unavailable(op, path string, err error) error {
	return fmt.Errorf("%s %q: %w: %w", op, path, ErrUnavailable, err)
}

func (s *SQLite) Read(ctx context.Context, path string) (any, error) {
	root, rest, err := splitRoot(path)
	if err != nil {
		return nil, err
	}
	tree, err := s.loadTree(ctx, root)
	if err != nil {
		return nil, unavailable("read", path, err)
	}
	return valueAt(tree, rest), nil
}

func (s *SQLite) Write(ctx context.Context, path string, value any) error {
	root, rest, err := splitRoot(path)
	if err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return fmt.Errorf("encode value for %q: %w", path, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tree, err := s.apply(ctx, root, func(t any) any { return setAt(t, rest, v) })
	if err != nil {
		return unavailable("write", path, err)
	}
	s.fanOut(root, splitPath(path), tree)
	return nil
}

func (s *SQLite) Merge(ctx context.Context, path string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	root, rest, err := splitRoot(path)
	if err != nil {
		return err
	}

	type update struct {
		segs  []string
		value any
	}
	updates := make([]update, 0, len(fields))
	for k, v := range fields {
		ksegs := splitPath(k)
		if len(ksegs) == 0 {
			return fmt.Errorf("empty field key under %q", path)
		}
		nv, err := normalize(v)
		if err != nil {
			return fmt.Errorf("encode field %q under %q: %w", k, path, err)
		}
		full := append(append(make([]string, 0, len(rest)+len(ksegs)), rest...), ksegs...)
		updates = append(updates, update{segs: full, value: nv})
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tree, err := s.apply(ctx, root, func(t any) any {
		for _, u := range updates {
			t = setAt(t, u.segs, u.value)
		}
		return t
	})
	if err != nil {
		return unavailable("merge", path, err)
	}
	s.fanOut(root, splitPath(path), tree)
	return nil
}

func (s *SQLite) Subscribe(path string, onChange func(any), onError func(error)) (func(), error) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return nil, errEmptyPath
	}

	// Hold the writer lock so the initial snapshot and later deliveries
	// cannot arrive out of order.
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tree, err := s.loadTree(context.Background(), segs[0])
	if err != nil {
		return nil, unavailable("subscribe", path, err)
	}

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = &subscription{segs: segs, onChange: onChange, onError: onError}
	s.subMu.Unlock()

	onChange(valueAt(tree, segs[1:]))

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}, nil
}

// loadTree fetches and decodes one root document; a missing row reads as nil.
func (s *SQLite) loadTree(ctx context.Context, name string) (any, error) {
	var body string
	err := s.db.QueryRowContext(ctx, selectDocumentSQL, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var tree any
	if err := json.Unmarshal([]byte(body), &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// apply runs a read-mutate-write cycle on one root document in a single
// transaction and returns the new tree. A nil result tree drops the row.
func (s *SQLite) apply(ctx context.Context, name string, mutate func(any) any) (any, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var body string
	tree := any(nil)
	err = tx.QueryRowContext(ctx, selectDocumentSQL, name).Scan(&body)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// first write creates the document
	case err != nil:
		return nil, err
	default:
		if uerr := json.Unmarshal([]byte(body), &tree); uerr != nil {
			return nil, uerr
		}
	}

	tree = mutate(tree)

	if tree == nil {
		if _, err := tx.ExecContext(ctx, deleteDocumentSQL, name); err != nil {
			return nil, err
		}
	} else {
		b, err := json.Marshal(tree)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, upsertDocumentSQL, name, string(b), time.Now().UTC()); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return tree, nil
}

// fanOut delivers the value at each overlapping subscription's path. Runs
// under writeMu, so deliveries arrive in commit order. Delivered trees are
// shared; subscribers must treat them as read-only.
func (s *SQLite) fanOut(root string, wrote []string, tree any) {
	s.subMu.Lock()
	targets := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.segs[0] == root && pathsOverlap(wrote, sub.segs) {
			targets = append(targets, sub)
		}
	}
	s.subMu.Unlock()

	for _, sub := range targets {
		sub.onChange(valueAt(tree, sub.segs[1:]))
	}
}
