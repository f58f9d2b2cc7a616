package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Solvro/web-eventownik-v2-sub001/configs"
	"github.com/Solvro/web-eventownik-v2-sub001/configs/configslog"
	"github.com/Solvro/web-eventownik-v2-sub001/models"
	"github.com/Solvro/web-eventownik-v2-sub001/repositories"

	"go.uber.org/zap"
)

// ErrBlockDataUnavailable is returned when a block attribute has no snapshot
// yet and the initial fetch did not settle in time. The widget layer turns it
// into the per-field failure placeholder, never a global crash.
var ErrBlockDataUnavailable = errors.New("nie udało się pobrać danych bloku")

// defaultLinger keeps a poller alive briefly after its last consumer
// releases, so back-to-back long-polls from the same browser do not restart
// it every second.
const defaultLinger = 10 * time.Second

// BlockSnapshot is one committed occupancy tree. Version increases only when
// a poll actually changed the data; consumers holding version N long-poll for
// anything newer.
type BlockSnapshot struct {
	Version uint64
	Blocks  []models.PublicBlock
}

// IBlockService owns live occupancy data for block-typed attributes. One
// poller runs per (event, attribute) while at least one consumer is watching;
// polls are sequential (the next fetch is scheduled only after the previous
// settles) and stop as soon as the last consumer goes away.
type IBlockService interface {
	// Acquire registers interest in an attribute's occupancy and starts the
	// poller if needed. The returned release must be called when the
	// consumer goes away.
	Acquire(eventSlug string, attributeID models.AttributeID) (release func())

	// Snapshot returns the last committed tree, if one exists.
	Snapshot(eventSlug string, attributeID models.AttributeID) (BlockSnapshot, bool)

	// Await blocks until a snapshot with Version > since is committed, or
	// ctx ends. since == 0 therefore waits for the initial fetch.
	Await(ctx context.Context, eventSlug string, attributeID models.AttributeID, since uint64) (BlockSnapshot, error)

	Close()
}

type watchKey struct {
	event string
	attr  models.AttributeID
}

type blockWatcher struct {
	cancel context.CancelFunc

	mu      sync.Mutex
	refs    int
	stopped bool
	stopAt  *time.Timer
	snap    BlockSnapshot
	hasSnap bool
	changed chan struct{}
}

// commit publishes a freshly fetched tree. Deep-equal trees are dropped
// without a version bump so consumers see no state transition (and browsers
// no re-render) when nothing changed.
func (w *blockWatcher) commit(blocks []models.PublicBlock) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.hasSnap && models.BlocksEqual(w.snap.Blocks, blocks) {
		return
	}
	w.snap = BlockSnapshot{Version: w.snap.Version + 1, Blocks: blocks}
	w.hasSnap = true
	close(w.changed)
	w.changed = make(chan struct{})
}

func (w *blockWatcher) snapshot() (BlockSnapshot, bool, chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snap, w.hasSnap, w.changed
}

// BlockService implements IBlockService over the block repository.
type BlockService struct {
	repo     repositories.IBlockRepository
	interval time.Duration
	linger   time.Duration

	mu       sync.Mutex
	closed   bool
	watchers map[watchKey]*blockWatcher
}

// NewBlockService creates the service with the configured poll interval.
func NewBlockService() IBlockService {
	return NewBlockServiceWith(repositories.NewBlockRepository(), configs.Get().BlockPollInterval)
}

// NewBlockServiceWith creates the service over an explicit repository and
// interval; tests use it with a fake repository.
func NewBlockServiceWith(repo repositories.IBlockRepository, interval time.Duration) IBlockService {
	return &BlockService{
		repo:     repo,
		interval: interval,
		linger:   defaultLinger,
		watchers: make(map[watchKey]*blockWatcher),
	}
}

// Acquire registers a consumer and returns its release function. Release is
// idempotent-unsafe by design (call once); the poller is cancelled shortly
// after the ref count reaches zero.
func (s *BlockService) Acquire(eventSlug string, attributeID models.AttributeID) func() {
	key := watchKey{event: eventSlug, attr: attributeID}

	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return func() {}
		}
		w, ok := s.watchers[key]
		if !ok {
			ctx, cancel := context.WithCancel(context.Background())
			w = &blockWatcher{cancel: cancel, changed: make(chan struct{})}
			s.watchers[key] = w
			go s.poll(ctx, key, w)
		}
		s.mu.Unlock()

		w.mu.Lock()
		if w.stopped {
			// The linger timer killed this watcher between the map lookup
			// and here; it is already out of the map, so go create a fresh
			// one.
			w.mu.Unlock()
			continue
		}
		w.refs++
		if w.stopAt != nil {
			w.stopAt.Stop()
			w.stopAt = nil
		}
		w.mu.Unlock()

		var once sync.Once
		return func() {
			once.Do(func() { s.release(key, w) })
		}
	}
}

func (s *BlockService) release(key watchKey, w *blockWatcher) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.refs--
	if w.refs > 0 {
		return
	}
	w.stopAt = time.AfterFunc(s.linger, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.refs > 0 {
			return
		}
		w.stopped = true
		w.cancel()
		if s.watchers[key] == w {
			delete(s.watchers, key)
		}
	})
}

// poll is the sequential fetch loop: fetch, commit (unless unchanged), sleep
// one interval, repeat. Fetch N+1 is never issued before fetch N settled, so
// at most one request per attribute is ever in flight. Liveness is checked
// right before every commit so no state lands after cancellation.
func (s *BlockService) poll(ctx context.Context, key watchKey, w *blockWatcher) {
	for {
		blocks, err := s.repo.GetAttributeBlocks(ctx, key.event, key.attr)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			// Transient poll failures keep the last-good snapshot and just
			// retry next tick; briefly stale counts beat a frozen form.
			configslog.Log.Debug("block poll failed",
				zap.String("event", key.event),
				zap.Int64("attribute", int64(key.attr)),
				zap.Error(err))
		} else {
			w.commit(blocks)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.interval):
		}
	}
}

// Snapshot returns the last committed tree for an attribute.
func (s *BlockService) Snapshot(eventSlug string, attributeID models.AttributeID) (BlockSnapshot, bool) {
	s.mu.Lock()
	w, ok := s.watchers[watchKey{event: eventSlug, attr: attributeID}]
	s.mu.Unlock()
	if !ok {
		return BlockSnapshot{}, false
	}
	snap, has, _ := w.snapshot()
	return snap, has
}

// Await blocks until a snapshot newer than since exists. The caller must hold
// an Acquire ref for the duration, otherwise the poller may stop under it.
func (s *BlockService) Await(ctx context.Context, eventSlug string, attributeID models.AttributeID, since uint64) (BlockSnapshot, error) {
	s.mu.Lock()
	w, ok := s.watchers[watchKey{event: eventSlug, attr: attributeID}]
	s.mu.Unlock()
	if !ok {
		return BlockSnapshot{}, ErrBlockDataUnavailable
	}
	for {
		snap, has, changed := w.snapshot()
		if has && snap.Version > since {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return BlockSnapshot{}, ErrBlockDataUnavailable
		case <-changed:
		}
	}
}

// Close cancels every poller. Used on shutdown and in tests.
func (s *BlockService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for key, w := range s.watchers {
		w.mu.Lock()
		w.stopped = true
		if w.stopAt != nil {
			w.stopAt.Stop()
		}
		w.mu.Unlock()
		w.cancel()
		delete(s.watchers, key)
	}
}

var _ IBlockService = (*BlockService)(nil)
