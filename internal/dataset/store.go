package dataset

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
)

// ErrNotFound is matched by errors returned when a dataset cannot be resolved.
var ErrNotFound = errors.New("dataset not found")

// NotFoundError carries the names that were loaded when resolution failed.
type NotFoundError struct {
	Name   string
	Loaded []string
}

func (e *NotFoundError) Error() string {
	if len(e.Loaded) == 0 {
		return fmt.Sprintf("Dataset '%s' not found. No datasets are loaded.", e.Name)
	}
	return fmt.Sprintf("Dataset '%s' not found. Loaded datasets: %s", e.Name, strings.Join(e.Loaded, ", "))
}

func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *NotFoundError) ErrCode() errinfo.Code { return errinfo.CodeNotFound }

// Dataset is a resolved store entry.
type Dataset struct {
	Name  string
	Table *Table
	Meta  Metadata
}

// Store maps dataset names to tables. Names keep the order in which they
// were first stored; replacing a dataset keeps its position.
type Store struct {
	mu    sync.RWMutex
	order []string
	sets  map[string]*Dataset
}

func NewStore() *Store {
	return &Store{sets: make(map[string]*Dataset)}
}

// Put registers t under name, replacing any previous dataset of that name.
func (s *Store) Put(name string, t *Table) Metadata {
	meta := t.Metadata(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sets[name]; !ok {
		s.order = append(s.order, name)
	}
	s.sets[name] = &Dataset{Name: name, Table: t, Meta: meta}
	return meta
}

// Resolve returns the dataset stored under name. When there is no exact
// match and exactly one dataset is loaded, that dataset is returned instead.
func (s *Store) Resolve(name string) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ds, ok := s.sets[name]; ok {
		return ds, nil
	}
	if len(s.order) == 1 {
		return s.sets[s.order[0]], nil
	}
	return nil, &NotFoundError{Name: name, Loaded: append([]string{}, s.order...)}
}

// Names lists loaded datasets in insertion order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.order...)
}

// ColumnsOf classifies the columns of the dataset Resolve picks for name.
func (s *Store) ColumnsOf(name string) (Columns, bool) {
	ds, err := s.Resolve(name)
	if err != nil {
		return Columns{}, false
	}
	return ds.Table.Classify(), true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Clear drops every dataset.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.sets = make(map[string]*Dataset)
}
