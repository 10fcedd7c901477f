package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// MutationState is the position of a Mutation in its protocol:
// snapshot, then apply, then commit or rollback.
type MutationState int

const (
	MutationPending MutationState = iota
	MutationApplied
	MutationCommitted
	MutationRolledBack
)

func (s MutationState) String() string {
	switch s {
	case MutationApplied:
		return "applied"
	case MutationCommitted:
		return "committed"
	case MutationRolledBack:
		return "rolled_back"
	default:
		return "pending"
	}
}

// ErrMutationDone is returned when a finished mutation is used again.
var ErrMutationDone = errors.New("cache: mutation already finished")

type keyLock struct {
	ch   chan struct{}
	refs int
}

// Mutation is an optimistic write against one key. It holds the key's
// mutation lock from Begin until Commit or Rollback, so writes to the same
// key are applied one at a time while other keys proceed in parallel.
type Mutation struct {
	ID string

	c   *Cache
	key Key
	id  string

	// snapshot is the entry as it was at Begin; nil means absent.
	snapshot *entry
	epoch    uint64
	state    MutationState
	once     sync.Once
	release  func()
}

// Begin snapshots key and takes its mutation lock, waiting for an earlier
// mutation of the same key to finish.
func (c *Cache) Begin(ctx context.Context, key Key) (*Mutation, error) {
	id := key.id()
	release, err := c.lockKey(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	var snap *entry
	if e, ok := c.entries[id]; ok {
		cp := *e
		snap = &cp
	}
	epoch := c.epoch
	c.mu.Unlock()

	return &Mutation{
		ID:       uuid.NewString(),
		c:        c,
		key:      key,
		id:       id,
		snapshot: snap,
		epoch:    epoch,
		release:  release,
	}, nil
}

// Key returns the mutated key.
func (m *Mutation) Key() Key { return m.key }

// State returns the mutation's current state.
func (m *Mutation) State() MutationState {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	return m.state
}

// Apply writes the optimistic value. A load already running for the key is
// superseded so that its late result cannot overwrite the write.
func (m *Mutation) Apply(value any) error {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	if m.state == MutationCommitted || m.state == MutationRolledBack {
		return ErrMutationDone
	}
	if m.epoch == m.c.epoch {
		m.c.write(m.id, value)
	}
	m.state = MutationApplied
	return nil
}

// Commit stores the authoritative value, marks related prefixes stale and
// releases the key.
func (m *Mutation) Commit(value any, related ...Key) error {
	m.c.mu.Lock()
	if m.state == MutationCommitted || m.state == MutationRolledBack {
		m.c.mu.Unlock()
		return ErrMutationDone
	}
	if m.epoch == m.c.epoch {
		m.c.write(m.id, value)
	}
	m.state = MutationCommitted
	m.c.mu.Unlock()

	for _, p := range related {
		m.c.Invalidate(p)
	}
	m.c.metrics.commits.Inc()
	m.finish()
	return nil
}

// Rollback restores the snapshot taken at Begin, including absence, and
// releases the key. Rolling back a finished mutation is a no-op.
func (m *Mutation) Rollback() {
	m.c.mu.Lock()
	if m.state == MutationCommitted || m.state == MutationRolledBack {
		m.c.mu.Unlock()
		return
	}
	if m.state == MutationApplied && m.epoch == m.c.epoch {
		if m.snapshot == nil {
			delete(m.c.entries, m.id)
		} else {
			restored := *m.snapshot
			m.c.entries[m.id] = &restored
		}
	}
	m.state = MutationRolledBack
	m.c.mu.Unlock()

	m.c.metrics.rollbacks.Inc()
	m.finish()
}

// write must be called with c.mu held.
func (c *Cache) write(id string, value any) {
	if f, ok := c.inflight[id]; ok {
		f.dropped = true
		c.group.Forget(id)
	}
	c.entries[id] = &entry{value: value, storedAt: c.opts.Now()}
}

func (m *Mutation) finish() {
	m.once.Do(m.release)
}

// Mutate runs the full protocol: apply optimistic, call remote, then commit
// its result and invalidate related, or roll back and return remote's error.
func Mutate[T any](ctx context.Context, c *Cache, key Key, optimistic T, remote func(context.Context) (T, error), related ...Key) (T, error) {
	var zero T
	m, err := c.Begin(ctx, key)
	if err != nil {
		return zero, err
	}
	if err := m.Apply(optimistic); err != nil {
		m.Rollback()
		return zero, err
	}
	v, err := remote(ctx)
	if err != nil {
		m.Rollback()
		return zero, err
	}
	if err := m.Commit(v, related...); err != nil {
		return zero, err
	}
	return v, nil
}

func (c *Cache) lockKey(ctx context.Context, id string) (func(), error) {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		c.locks[id] = l
	}
	l.refs++
	c.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			c.unref(id, l)
		}, nil
	case <-ctx.Done():
		c.unref(id, l)
		return nil, ctx.Err()
	}
}

func (c *Cache) unref(id string, l *keyLock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l.refs--
	if l.refs == 0 && c.locks[id] == l {
		delete(c.locks, id)
	}
}
