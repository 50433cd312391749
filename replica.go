package repcore

import (
	"context"
	"time"

	"github.com/replikv/repcore/logger"
)

// eventQueueDepth bounds the serial executor's inbox. The teacher
// sizes its rpc channels similarly (see rafty_types.go's buffered
// channel constructors); a bounded queue here means a caller that
// floods a single partition with proposals blocks rather than growing
// memory without limit, while still comfortably absorbing the handful
// of concurrent operations one partition sees in practice.
const eventQueueDepth = 64

// NewReplica constructs a Replica for pid with default collaborators
// (in-memory prepare list, app, write queue and stub; grpc peer
// transport and meta client), which WithCollaborators can override,
// and opens its metadata store. The event loop is started
// immediately; callers must call Close to release it.
func NewReplica(pid PartitionId, address NodeAddress, opts Options) (*Replica, error) {
	resolved := opts.withDefaults()

	lg := resolved.Logger
	if lg == nil {
		lg = logger.NewLogger()
	}

	metadata, err := openMetadataStore(resolved.DataDir)
	if err != nil {
		return nil, err
	}

	r := &Replica{
		address:     address,
		pid:         pid,
		config:      ReplicaConfiguration{Pid: pid, Status: Inactive},
		appInfo:     resolved.AppInfo,
		prepareList: newMemoryPrepareList(InvalidDecree),
		app:         &memoryApp{},
		writeQueue:  newMemoryWriteQueue(),
		peers:       newGRPCPeerTransport(lg),
		metaClient:  newGRPCMetaClient(lg),
		stub:        newLocalStub(address),
		metadata:        metadata,
		learnerTimeouts: newLearnerTimeoutIndex(),
		metrics:     newMetrics(address.String(), resolved.MetricsNamespacePrefix),
		logger:      lg,
		opts:        resolved,
		events:      make(chan func(), eventQueueDepth),
		stopCh:      make(chan struct{}),
	}

	if persisted, found, err := metadata.Load(pid); err == nil && found {
		r.config.Ballot = persisted.Ballot
		r.config.Status = persisted.Status
		r.inactiveIsTransient = persisted.InactiveIsTransient
	}

	r.wg.Add(1)
	go r.loop()
	return r, nil
}

// WithCollaborators overrides the default in-memory/grpc collaborators
// wired by NewReplica; intended for tests and for hosts that already
// own a shared connection pool, prepare list, or app instance. It must
// be called before the replica handles its first event.
func (r *Replica) WithCollaborators(prepareList PrepareList, app App, writeQueue WriteQueue, peers PeerTransport, metaClient MetaServiceClient, stub Stub) *Replica {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prepareList != nil {
		r.prepareList = prepareList
	}
	if app != nil {
		r.app = app
	}
	if writeQueue != nil {
		r.writeQueue = writeQueue
	}
	if peers != nil {
		r.peers = peers
	}
	if metaClient != nil {
		r.metaClient = metaClient
	}
	if stub != nil {
		r.stub = stub
	}
	return r
}

// loop is the replica's single-threaded serial executor: every state
// mutation this package performs is submitted here through post/postWait
// so hashed-access (spec §5) holds without any lock around the
// reconfiguration state itself. Grounded on the teacher's
// commonLoop/logsLoop channel-select shape (state_loop.go), collapsed
// to a single generic work queue since this package has only one kind
// of work item instead of the teacher's per-concern channels.
func (r *Replica) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(learnerTimeoutCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.drainEvents()
			return
		case fn := <-r.events:
			r.onLoop = true
			fn()
			r.onLoop = false
		case now := <-ticker.C:
			r.onLoop = true
			r.evictStuckLearners(now)
			r.onLoop = false
		}
	}
}

// learnerTimeoutCheckInterval bounds how often the event loop polls
// the learner timeout index; running it as a periodic scan rather than
// one timer per learner keeps the loop's select statement simple, at
// the cost of up to this much slack on an eviction deadline.
const learnerTimeoutCheckInterval = time.Second

// evictStuckLearners drops every learner whose deadline has passed
// from primary bookkeeping and tells it to stand down. The learning
// subsystem itself decides what "stuck" means and rearms the deadline
// on progress (out of scope, spec §1); this only acts on entries that
// were never rearmed.
func (r *Replica) evictStuckLearners(now time.Time) {
	if r.config.Status != Primary || r.primaryStates == nil {
		return
	}
	for _, d := range r.learnerTimeouts.expired(now) {
		r.primaryStates.mu.Lock()
		learner, ok := r.primaryStates.Learners[d.node]
		stillCurrent := ok && learner.Signature == d.signature
		if stillCurrent {
			delete(r.primaryStates.Learners, d.node)
			delete(r.primaryStates.Statuses, d.node)
		}
		r.primaryStates.mu.Unlock()

		r.learnerTimeouts.cancel(d.node, d.signature)
		if stillCurrent {
			r.logger.Debug().
				Str("partition", r.pid.String()).
				Str("node", d.node.String()).
				Msg("learner timed out, evicting")
			r.peers.SendRemoveReplica(context.Background(), d.node, ReplicaConfiguration{Pid: r.pid, Ballot: r.config.Ballot, Status: Inactive})
		}
	}
}

func (r *Replica) drainEvents() {
	for {
		select {
		case fn := <-r.events:
			r.onLoop = true
			fn()
			r.onLoop = false
		default:
			return
		}
	}
}

// checkHashedAccess panics if called from outside the event loop
// goroutine, the same assertion the teacher's design achieves
// implicitly by only ever touching Rafty's mutable fields from within
// its state-loop goroutines. Handlers in this package call it first
// to document the requirement; it is a programming-error guard, not a
// runtime condition callers can trigger through the public API, since
// post/postWait are the only path onto the loop.
func (r *Replica) checkHashedAccess() {
	if !r.onLoop {
		panic("repcore: reconfiguration state accessed off the replica's event loop")
	}
}

// post submits fn to run on the event loop without waiting for it to
// finish; used by background goroutines to hand meta-service replies
// and retry timers back to the loop.
func (r *Replica) post(fn func()) {
	select {
	case r.events <- fn:
	case <-r.stopCh:
	}
}

// postWait submits fn and blocks until it has run, returning whatever
// error fn reports. Used by every request/response style entry point
// (proposals, config sync, removal, LocalConfiguration) so callers observe the outcome of
// their own call synchronously while the actual mutation still only
// ever happens on the loop goroutine.
func (r *Replica) postWait(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	task := func() { done <- fn() }

	select {
	case r.events <- task:
	case <-r.stopCh:
		return ErrShutdown
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-r.stopCh:
		return ErrShutdown
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the event loop and releases the metadata store. It is
// safe to call once; a second call is a no-op.
func (r *Replica) Close() error {
	r.mu.Lock()
	if r.closing {
		r.mu.Unlock()
		return nil
	}
	r.closing = true
	r.mu.Unlock()

	close(r.stopCh)
	r.wg.Wait()

	if pt, ok := r.peers.(*grpcPeerTransport); ok {
		pt.conns.closeAll()
	}
	if mc, ok := r.metaClient.(*grpcMetaClient); ok {
		mc.conns.closeAll()
	}
	return r.metadata.Close()
}

// LocalConfiguration returns a snapshot of this replica's current
// {pid, ballot, status}. Safe to call from any goroutine.
func (r *Replica) LocalConfiguration(ctx context.Context) (ReplicaConfiguration, error) {
	var out ReplicaConfiguration
	err := r.postWait(ctx, func() error {
		out = r.config
		return nil
	})
	return out, err
}

func nowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}
