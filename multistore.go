package activestorage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grokify/mogo/log/slogutil"
)

// Policy controls how mirroring reacts to a failing secondary store.
// The primary is authoritative regardless of policy: a primary failure always
// aborts the call before any secondary is attempted, and a secondary failure
// never invalidates a committed primary operation.
type Policy int

const (
	// ContinueOnFailure keeps fanning out to the remaining secondaries when
	// one fails; failures are collected per store name. This is the default.
	ContinueOnFailure Policy = iota

	// StopOnFailure stops fan-out at the first failing secondary; the
	// remaining secondaries are recorded as skipped in the outcome.
	StopOnFailure
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case ContinueOnFailure:
		return "continue-on-failure"
	case StopOnFailure:
		return "stop-on-failure"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// MultiStore holds one primary store and a named set of secondary stores.
// Mutating operations performed through a Mirror are applied to the primary
// first and then replicated to the secondaries; reads are answered by the
// primary only.
//
// A MultiStore owns its stores exclusively for the duration of each call and
// keeps no state of its own; all state lives in the backends.
//
// MultiStore is not safe for concurrent reconfiguration (AddStores,
// SetMirrorPolicy, AddMirrorGroup); configure it fully before sharing.
type MultiStore struct {
	primary *Store
	stores  map[string]*Store
	groups  map[string][]string
	policy  Policy
	logger  *slog.Logger
}

// MultiStoreOption configures a MultiStore.
type MultiStoreOption func(*MultiStore)

// WithLogger sets the structured logger used to report mirroring failures.
// If unset, a null logger is used (no logging).
func WithLogger(logger *slog.Logger) MultiStoreOption {
	return func(m *MultiStore) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMultiStore creates a MultiStore around the given primary store with an
// empty secondary set and the ContinueOnFailure policy.
func NewMultiStore(primary *Store, opts ...MultiStoreOption) *MultiStore {
	m := &MultiStore{
		primary: primary,
		stores:  make(map[string]*Store),
		groups:  make(map[string][]string),
		policy:  ContinueOnFailure,
		logger:  slogutil.Null(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Primary returns the authoritative store.
func (m *MultiStore) Primary() *Store {
	return m.primary
}

// AddStores merges the given entries into the secondary set and returns the
// receiver for chaining. A colliding name overwrites the existing entry
// (last write wins).
func (m *MultiStore) AddStores(stores map[string]*Store) *MultiStore {
	for name, store := range stores {
		m.stores[name] = store
	}
	return m
}

// SetMirrorPolicy sets the mirroring policy and returns the receiver for
// chaining.
func (m *MultiStore) SetMirrorPolicy(policy Policy) *MultiStore {
	m.policy = policy
	return m
}

// Store returns the secondary store registered under name.
func (m *MultiStore) Store(name string) (*Store, bool) {
	store, ok := m.stores[name]
	return store, ok
}

// AddMirrorGroup registers a named subset of the secondary stores for use
// with MirrorGroup. Returns an error naming any store not present in the
// secondary set.
func (m *MultiStore) AddMirrorGroup(name string, storeNames []string) error {
	var unknown []string
	for _, storeName := range storeNames {
		if _, ok := m.stores[storeName]; !ok {
			unknown = append(unknown, storeName)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: the stores %s are not defined", ErrConfiguration, strings.Join(unknown, ","))
	}

	names := make([]string, len(storeNames))
	copy(names, storeNames)
	m.groups[name] = names
	return nil
}

// MirrorStoresFromPrimary returns a Mirror that applies mutating operations
// to the primary first and replicates them to every secondary.
func (m *MultiStore) MirrorStoresFromPrimary() *Mirror {
	stores := make(map[string]*Store, len(m.stores))
	for name, store := range m.stores {
		stores[name] = store
	}
	return &Mirror{
		primary: m.primary,
		stores:  stores,
		policy:  m.policy,
		logger:  m.logger,
	}
}

// MirrorGroup returns a Mirror over the named subset of secondaries
// registered with AddMirrorGroup. The primary is not part of a group mirror;
// all member stores are treated as best-effort targets.
func (m *MultiStore) MirrorGroup(name string) (*Mirror, bool) {
	memberNames, ok := m.groups[name]
	if !ok {
		return nil, false
	}
	stores := make(map[string]*Store, len(memberNames))
	for _, memberName := range memberNames {
		if store, exists := m.stores[memberName]; exists {
			stores[memberName] = store
		}
	}
	return &Mirror{
		stores: stores,
		policy: m.policy,
		logger: m.logger,
	}, true
}

// Read returns the content at path from the primary store. Secondaries are
// replication targets only, never read fallbacks.
func (m *MultiStore) Read(ctx context.Context, path string) ([]byte, error) {
	return m.primary.Read(ctx, path)
}

// ReadString reads the content at path from the primary store as UTF-8.
func (m *MultiStore) ReadString(ctx context.Context, path string) (string, error) {
	return m.primary.ReadString(ctx, path)
}

// Exists reports whether the primary store has content at path.
func (m *MultiStore) Exists(ctx context.Context, path string) (bool, error) {
	return m.primary.Exists(ctx, path)
}

// LastModified returns the primary store's last modification time for path.
func (m *MultiStore) LastModified(ctx context.Context, path string) (time.Time, error) {
	return m.primary.LastModified(ctx, path)
}

// Mirror is a view over a MultiStore that replicates mutating operations.
// When the mirror has a primary, the primary's result is the call's result:
// a primary failure aborts the call before any secondary is attempted, and
// secondary failures are surfaced only through the returned MirrorOutcome.
type Mirror struct {
	primary *Store
	stores  map[string]*Store
	policy  Policy
	logger  *slog.Logger
}

// Write persists content at path on the primary and replicates it to every
// secondary. The returned error is the primary's result; per-secondary
// outcomes are reported in the MirrorOutcome.
func (mr *Mirror) Write(ctx context.Context, path string, content []byte) (*MirrorOutcome, error) {
	return mr.apply(ctx, "write", path, func(ctx context.Context, s *Store) error {
		return s.Write(ctx, path, content)
	})
}

// Delete removes the content at path on the primary and replicates the
// deletion to every secondary, following the same policy as Write.
func (mr *Mirror) Delete(ctx context.Context, path string) (*MirrorOutcome, error) {
	return mr.apply(ctx, "delete", path, func(ctx context.Context, s *Store) error {
		return s.Delete(ctx, path)
	})
}

// DeleteDirectory removes everything under path on the primary and
// replicates the deletion to every secondary.
func (mr *Mirror) DeleteDirectory(ctx context.Context, path string) (*MirrorOutcome, error) {
	return mr.apply(ctx, "delete-directory", path, func(ctx context.Context, s *Store) error {
		return s.DeleteDirectory(ctx, path)
	})
}

// apply runs op on the primary, then fans it out to the secondaries.
// The primary's completion strictly precedes initiation of any secondary
// operation. Under ContinueOnFailure secondaries run concurrently; under
// StopOnFailure they run sequentially in sorted-name order so "stop at the
// first failure" is well defined.
func (mr *Mirror) apply(ctx context.Context, op, path string, fn func(context.Context, *Store) error) (*MirrorOutcome, error) {
	if mr.primary != nil {
		if err := fn(ctx, mr.primary); err != nil {
			return nil, err
		}
	}

	outcome := &MirrorOutcome{Failures: make(map[string]error)}
	if len(mr.stores) == 0 {
		return outcome, nil
	}

	names := make([]string, 0, len(mr.stores))
	for name := range mr.stores {
		names = append(names, name)
	}
	sort.Strings(names)

	switch mr.policy {
	case StopOnFailure:
		for i, name := range names {
			if err := fn(ctx, mr.stores[name]); err != nil {
				mr.recordFailure(outcome, op, path, name, err)
				outcome.Skipped = append(outcome.Skipped, names[i+1:]...)
				return outcome, nil
			}
			outcome.Succeeded = append(outcome.Succeeded, name)
		}
	default:
		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		for _, name := range names {
			wg.Add(1)
			go func(name string, store *Store) {
				defer wg.Done()
				err := fn(ctx, store)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					mr.recordFailure(outcome, op, path, name, err)
					return
				}
				outcome.Succeeded = append(outcome.Succeeded, name)
			}(name, mr.stores[name])
		}
		wg.Wait()
		sort.Strings(outcome.Succeeded)
	}

	return outcome, nil
}

func (mr *Mirror) recordFailure(outcome *MirrorOutcome, op, path, name string, err error) {
	outcome.Failures[name] = err
	mr.logger.Warn("mirror operation failed on store",
		slog.String("op", op),
		slog.String("store", name),
		slog.String("path", path),
		slog.Any("error", err),
	)
}

// MirrorOutcome reports the per-secondary result of a mirrored operation.
// The primary's own result is reported independently as the call's error.
type MirrorOutcome struct {
	// Succeeded lists the secondaries that applied the operation, in sorted
	// order.
	Succeeded []string

	// Failures maps the name of each failing secondary to its error.
	Failures map[string]error

	// Skipped lists secondaries never attempted because the StopOnFailure
	// policy aborted fan-out, in sorted order.
	Skipped []string
}

// Ok reports whether every attempted secondary applied the operation and no
// secondary was skipped.
func (o *MirrorOutcome) Ok() bool {
	return len(o.Failures) == 0 && len(o.Skipped) == 0
}

// Err returns a *MirrorError describing the failing secondaries, or nil when
// mirroring was complete. Callers who care about replication completeness
// inspect this separately from the call's own error.
func (o *MirrorOutcome) Err() error {
	if len(o.Failures) == 0 {
		return nil
	}
	return &MirrorError{Failures: o.Failures}
}

// MirrorError aggregates the secondary failures of a mirrored operation.
type MirrorError struct {
	Failures map[string]error
}

// Error implements the error interface.
func (e *MirrorError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for name := range e.Failures {
		names = append(names, name)
	}
	sort.Strings(names)
	return "activestorage: mirroring failed on stores: " + strings.Join(names, ", ")
}
