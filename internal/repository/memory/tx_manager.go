package memory

import (
	"context"

	"github.com/maxviazov/catalog-service/internal/repository"
)

type txManager struct{ store *Store }

func NewTxManager(store *Store) repository.TxManager { return &txManager{store: store} }

// WithinTx makes fn atomic: on error the pre-transaction snapshot is restored,
// on success the new state is persisted once.
func (m *txManager) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	if modeOf(ctx) != 0 {
		return fn(ctx)
	}
	s := m.store
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	before := s.st.clone()
	s.mu.RUnlock()

	restore := func() {
		s.mu.Lock()
		s.st = before
		s.mu.Unlock()
	}

	if err := fn(context.WithValue(ctx, txKey{}, txWrite)); err != nil {
		restore()
		return err
	}
	if err := s.persist(); err != nil {
		restore()
		return err
	}
	return nil
}

// WithinReadTx blocks writers for the duration of fn and rejects writes made through ctx.
func (m *txManager) WithinReadTx(ctx context.Context, fn repository.TxFunc) error {
	if modeOf(ctx) != 0 {
		return fn(ctx)
	}
	m.store.writeMu.Lock()
	defer m.store.writeMu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, txRead))
}

var _ repository.TxManager = (*txManager)(nil)

type pinger struct{ store *Store }

// NewPinger reports the memory store as always ready once constructed.
func NewPinger(store *Store) repository.Pinger { return &pinger{store: store} }

func (p *pinger) Ping(ctx context.Context) error { return ctx.Err() }
