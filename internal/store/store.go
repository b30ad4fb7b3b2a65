package store

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/rafabd1/vipmanager/internal/member"
)

// State is the lifecycle position of a Store.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// RollbackPolicy decides which mutations are undone in memory when their
// persist fails.
type RollbackPolicy string

const (
	// RollbackCreate undoes only failed additions.
	RollbackCreate RollbackPolicy = "create"
	// RollbackAll also restores failed updates and deletions.
	RollbackAll RollbackPolicy = "all"
)

// ParseRollbackPolicy accepts "create" or "all"; empty means RollbackCreate.
func ParseRollbackPolicy(s string) (RollbackPolicy, error) {
	switch RollbackPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", RollbackCreate:
		return RollbackCreate, nil
	case RollbackAll:
		return RollbackAll, nil
	default:
		return "", errors.Errorf("unknown rollback policy %q (want create or all)", s)
	}
}

// Options configures a Store.
type Options struct {
	Rollback RollbackPolicy
	Logger   logrus.FieldLogger
}

// Store owns the member list. Mutations apply to memory immediately and are
// persisted in the background by a single writer.
type Store struct {
	backend Backend
	writer  *writer
	policy  RollbackPolicy
	log     logrus.FieldLogger

	mu      sync.RWMutex
	members []member.Member
	state   State

	loading *semaphore.Weighted

	subMu  sync.Mutex
	subs   []chan Event
	closed bool
}

// New creates a store on top of backend and starts its writer. Call Close when done.
func New(backend Backend, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	policy := opts.Rollback
	if policy == "" {
		policy = RollbackCreate
	}
	return &Store{
		backend: backend,
		writer:  newWriter(backend),
		policy:  policy,
		log:     logger.WithField("component", "store"),
		members: []member.Member{},
		loading: semaphore.NewWeighted(1),
	}
}

// State reports where the store is in its lifecycle.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Load reads the durable list and replaces the in-memory one with it, newest
// first. A call made while another Load is running returns immediately. A missing
// file leaves the list as it is; a read or decode failure is logged and also
// leaves the list unchanged.
func (s *Store) Load(ctx context.Context) {
	if !s.loading.TryAcquire(1) {
		s.log.Debug("load already in progress")
		return
	}
	defer s.loading.Release(1)

	prev := s.State()
	s.setState(StateLoading)

	loaded, err := s.backend.Read(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.setState(StateReady)
			s.log.Info("no saved members yet")
			s.publish(Event{Kind: EventLoaded, Count: len(s.Members())})
			return
		}
		s.setState(prev)
		s.log.WithError(err).Error("load members failed")
		return
	}

	sorted := dedupe(member.Sort(loaded, member.SortByDate))
	if dropped := len(loaded) - len(sorted); dropped > 0 {
		s.log.WithField("dropped", dropped).Warn("ignored members with duplicate ids")
	}

	s.mu.Lock()
	s.members = sorted
	s.state = StateReady
	s.mu.Unlock()

	s.log.WithField("count", len(sorted)).Info("loaded members")
	s.publish(Event{Kind: EventLoaded, Count: len(sorted)})
}

// dedupe keeps the first occurrence of every ID.
func dedupe(members []member.Member) []member.Member {
	seen := make(map[uuid.UUID]struct{}, len(members))
	out := make([]member.Member, 0, len(members))
	for _, m := range members {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

// Members returns a copy of the current list.
func (s *Store) Members() []member.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.members)
}

// Get looks a member up by ID.
func (s *Store) Get(id uuid.UUID) (member.Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.members[i], true
	}
	return member.Member{}, false
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(s.members, func(m member.Member) bool { return m.ID == id })
}

// Add puts m at the head of the list and persists in the background. If the
// write fails, m is removed again.
func (s *Store) Add(m member.Member) {
	s.mu.Lock()
	s.members = slices.Insert(s.members, 0, m)
	snapshot := slices.Clone(s.members)
	s.mu.Unlock()

	s.publish(Event{Kind: EventAdded, Op: OpAdd, Member: m, Count: len(snapshot)})
	s.persist(OpAdd, m, snapshot, func(err error) { s.undoAdd(m, err) })
}

// Update replaces the member with m's ID in place. The caller sets UpdatedAt.
// An unknown ID changes nothing in memory.
func (s *Store) Update(m member.Member) {
	s.mu.Lock()
	var (
		prev  member.Member
		found bool
	)
	if i := s.indexOf(m.ID); i >= 0 {
		prev, found = s.members[i], true
		s.members[i] = m
	}
	snapshot := slices.Clone(s.members)
	s.mu.Unlock()

	if found {
		s.publish(Event{Kind: EventUpdated, Op: OpUpdate, Member: m, Count: len(snapshot)})
	}
	var undo func(error)
	if found && s.policy == RollbackAll {
		undo = func(err error) { s.undoUpdate(prev, m, err) }
	}
	s.persist(OpUpdate, m, snapshot, undo)
}

type removed struct {
	index  int
	member member.Member
}

// Delete removes every member with m's ID. Deleting an unknown ID is a no-op.
func (s *Store) Delete(m member.Member) {
	s.mu.Lock()
	var gone []removed
	kept := make([]member.Member, 0, len(s.members))
	for i, cur := range s.members {
		if cur.ID == m.ID {
			gone = append(gone, removed{index: i, member: cur})
			continue
		}
		kept = append(kept, cur)
	}
	s.members = kept
	snapshot := slices.Clone(s.members)
	s.mu.Unlock()

	if len(gone) > 0 {
		s.publish(Event{Kind: EventDeleted, Op: OpDelete, Member: m, Count: len(snapshot)})
	}
	var undo func(error)
	if len(gone) > 0 && s.policy == RollbackAll {
		undo = func(err error) { s.undoDelete(gone, err) }
	}
	s.persist(OpDelete, m, snapshot, undo)
}

// persist queues a full-list write. rollback, if set, runs after a failed write.
func (s *Store) persist(op Op, subject member.Member, snapshot []member.Member, rollback func(error)) {
	entry := s.log.WithFields(logrus.Fields{
		"op":         op,
		"member_id":  subject.ID,
		"store_name": subject.StoreName,
	})
	job := persistJob{
		op:       op,
		subject:  subject,
		snapshot: snapshot,
		onResult: func(err error) {
			if err == nil {
				entry.Debug("saved members")
				s.publish(Event{Kind: EventPersisted, Op: op, Member: subject, Count: len(snapshot)})
				return
			}
			entry.WithError(err).Error("save members failed")
			s.publish(Event{Kind: EventPersistFailed, Op: op, Member: subject, Count: len(snapshot), Err: err})
			if rollback != nil {
				rollback(err)
			}
		},
	}
	if !s.writer.enqueue(job) {
		entry.Warn("store closed; change kept in memory only")
	}
}

// resync writes the current list after a rollback so the file matches memory again.
func (s *Store) resync(subject member.Member) {
	s.persist(OpResync, subject, s.Members(), nil)
}

func (s *Store) undoAdd(m member.Member, cause error) {
	s.mu.Lock()
	before := len(s.members)
	s.members = slices.DeleteFunc(s.members, func(cur member.Member) bool { return cur.ID == m.ID })
	n := len(s.members)
	s.mu.Unlock()
	if n == before {
		return
	}
	s.rolledBack(OpAdd, m, n, cause)
}

func (s *Store) undoUpdate(prev, written member.Member, cause error) {
	s.mu.Lock()
	i := s.indexOf(written.ID)
	// a later edit wins over the rollback
	restore := i >= 0 && s.members[i].Equal(written)
	if restore {
		s.members[i] = prev
	}
	n := len(s.members)
	s.mu.Unlock()
	if restore {
		s.rolledBack(OpUpdate, prev, n, cause)
	}
}

func (s *Store) undoDelete(gone []removed, cause error) {
	s.mu.Lock()
	var restored []member.Member
	for _, r := range gone {
		if s.indexOf(r.member.ID) >= 0 {
			continue
		}
		at := min(r.index, len(s.members))
		s.members = slices.Insert(s.members, at, r.member)
		restored = append(restored, r.member)
	}
	n := len(s.members)
	s.mu.Unlock()
	for _, m := range restored {
		s.rolledBack(OpDelete, m, n, cause)
	}
}

func (s *Store) rolledBack(op Op, m member.Member, count int, cause error) {
	s.log.WithFields(logrus.Fields{
		"op":         op,
		"member_id":  m.ID,
		"store_name": m.StoreName,
	}).Warn("rolled back unsaved change")
	s.publish(Event{Kind: EventRolledBack, Op: op, Member: m, Count: count, Err: cause})
	s.resync(m)
}

// Flush blocks until every write queued before the call has finished.
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.flush(ctx)
}

// Close waits for queued writes, stops the writer and closes subscriber channels.
func (s *Store) Close() {
	s.writer.stop()
	s.closeSubscribers()
}
