// Package memory is the in-process storage driver. A Store is seeded from a JSON
// document and, when a data file is configured, persisted atomically after every
// committed change.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/maxviazov/catalog-service/internal/model"
	"github.com/maxviazov/catalog-service/internal/repository"
)

// Options configure a Store. Both paths are optional.
type Options struct {
	// SeedFile is read when DataFile does not exist yet.
	SeedFile string
	// DataFile receives the committed state; empty keeps state in RAM.
	DataFile string
}

// document is the on-disk shape of seed and data files.
type document struct {
	Categories []model.Category `json:"categories"`
	Products   []model.Product  `json:"products"`
	Users      []userRecord     `json:"users"`
	Roles      []string         `json:"roles"`
}

// userRecord keeps the secrets that model.User hides from JSON.
type userRecord struct {
	ID                    int64      `json:"id"`
	Username              string     `json:"username"`
	Email                 string     `json:"email"`
	PasswordHash          string     `json:"password_hash"`
	Roles                 []string   `json:"roles"`
	RefreshToken          string     `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt *time.Time `json:"refresh_token_expires_at,omitempty"`
}

type state struct {
	categories map[int64]model.Category
	products   map[int64]model.Product
	users      map[int64]model.User
	roles      map[string]struct{}
	nextID     struct{ category, product, user int64 }
}

// Store holds every table of the memory driver.
// mu guards state; writeMu serializes write units so a rollback never discards a concurrent commit.
type Store struct {
	mu      sync.RWMutex
	writeMu sync.Mutex
	st      state
	path    string
}

// New builds a Store from opts.DataFile when present, else from opts.SeedFile, else empty.
func New(opts Options) (*Store, error) {
	s := &Store{st: emptyState(), path: opts.DataFile}

	src := ""
	if opts.DataFile != "" {
		if _, err := os.Stat(opts.DataFile); err == nil {
			src = opts.DataFile
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat data file: %w", err)
		}
	}
	if src == "" {
		src = opts.SeedFile
	}
	if src == "" {
		return s, nil
	}

	raw, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", src, err)
	}
	s.st = fromDocument(doc)
	return s, nil
}

func emptyState() state {
	return state{
		categories: make(map[int64]model.Category),
		products:   make(map[int64]model.Product),
		users:      make(map[int64]model.User),
		roles:      make(map[string]struct{}),
	}
}

func fromDocument(doc document) state {
	st := emptyState()
	for _, c := range doc.Categories {
		st.categories[c.ID] = c
		st.nextID.category = max(st.nextID.category, c.ID)
	}
	for _, p := range doc.Products {
		st.products[p.ID] = p
		st.nextID.product = max(st.nextID.product, p.ID)
	}
	for _, r := range doc.Roles {
		st.roles[r] = struct{}{}
	}
	for _, r := range doc.Users {
		u := model.User{
			ID:           r.ID,
			Username:     r.Username,
			Email:        r.Email,
			PasswordHash: r.PasswordHash,
			Roles:        append([]string(nil), r.Roles...),
			RefreshToken: r.RefreshToken,
		}
		if r.RefreshTokenExpiresAt != nil {
			u.RefreshTokenExpiresAt = *r.RefreshTokenExpiresAt
		}
		for _, role := range u.Roles {
			st.roles[role] = struct{}{}
		}
		st.users[u.ID] = u
		st.nextID.user = max(st.nextID.user, u.ID)
	}
	return st
}

func (st state) toDocument() document {
	doc := document{
		Categories: make([]model.Category, 0, len(st.categories)),
		Products:   make([]model.Product, 0, len(st.products)),
		Users:      make([]userRecord, 0, len(st.users)),
		Roles:      make([]string, 0, len(st.roles)),
	}
	for _, c := range st.categories {
		doc.Categories = append(doc.Categories, c)
	}
	sort.Slice(doc.Categories, func(i, j int) bool { return doc.Categories[i].ID < doc.Categories[j].ID })
	for _, p := range st.products {
		doc.Products = append(doc.Products, p)
	}
	sort.Slice(doc.Products, func(i, j int) bool { return doc.Products[i].ID < doc.Products[j].ID })
	for _, u := range st.users {
		r := userRecord{
			ID:           u.ID,
			Username:     u.Username,
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			Roles:        u.Roles,
			RefreshToken: u.RefreshToken,
		}
		if !u.RefreshTokenExpiresAt.IsZero() {
			exp := u.RefreshTokenExpiresAt
			r.RefreshTokenExpiresAt = &exp
		}
		doc.Users = append(doc.Users, r)
	}
	sort.Slice(doc.Users, func(i, j int) bool { return doc.Users[i].ID < doc.Users[j].ID })
	for r := range st.roles {
		doc.Roles = append(doc.Roles, r)
	}
	sort.Strings(doc.Roles)
	return doc
}

// clone deep-copies st so a failed unit of work can be undone.
func (st state) clone() state {
	out := emptyState()
	out.nextID = st.nextID
	for k, v := range st.categories {
		out.categories[k] = v
	}
	for k, v := range st.products {
		out.products[k] = v
	}
	for k, v := range st.users {
		v.Roles = append([]string(nil), v.Roles...)
		out.users[k] = v
	}
	for k := range st.roles {
		out.roles[k] = struct{}{}
	}
	return out
}

// persist writes the committed state to a temp file and renames it over the data file.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	s.mu.RLock()
	raw, err := json.MarshalIndent(s.st.toDocument(), "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

type txKey struct{}

type txMode int

const (
	txWrite txMode = iota + 1
	txRead
)

func modeOf(ctx context.Context) txMode {
	m, _ := ctx.Value(txKey{}).(txMode)
	return m
}

// write runs one mutation. Outside a transaction it takes writeMu itself and persists on success.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	switch modeOf(ctx) {
	case txRead:
		return repository.ErrReadOnly
	case txWrite:
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(&s.st)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	before := s.st.clone()
	err := fn(&s.st)
	if err != nil {
		s.st = before
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if err := s.persist(); err != nil {
		s.mu.Lock()
		s.st = before
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.st)
}

func normalizeKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
