package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-mixinform/pkg/codec"
	"github.com/goliatone/go-mixinform/pkg/schema"
)

// Memory is an in-process Store. Schemas are held as CBOR snapshots and
// decoded on every Get, so callers never share a mutable schema.
type Memory struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
	format    codec.Format
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		snapshots: make(map[string][]byte),
		format:    codec.CBOR(),
	}
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, name string) (schema.Schema, error) {
	if err := ctx.Err(); err != nil {
		return schema.Schema{}, err
	}

	m.mu.RLock()
	data, ok := m.snapshots[name]
	m.mu.RUnlock()
	if !ok {
		return schema.Schema{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	s, err := codec.DecodeSchema(m.format, data)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("store: snapshot %q: %w", name, err)
	}
	return s, nil
}

// Put implements Store.
func (m *Memory) Put(ctx context.Context, name string, s schema.Schema) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateName(name); err != nil {
		return err
	}

	data, err := codec.EncodeSchema(m.format, s)
	if err != nil {
		return fmt.Errorf("store: snapshot %q: %w", name, err)
	}

	m.mu.Lock()
	m.snapshots[name] = data
	m.mu.Unlock()
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.snapshots[name]; !ok {
		return false, nil
	}
	delete(m.snapshots, name)
	return true, nil
}

// List implements Store.
func (m *Memory) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.snapshots))
	for name := range m.snapshots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
