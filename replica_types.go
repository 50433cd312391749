package repcore

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// NodeAddress is an opaque network address. The zero value is the
// invalid sentinel: no real replica is ever assigned host "".
type NodeAddress struct {
	Host string
	Port uint16
}

// InvalidNodeAddress is the sentinel used for "no node" (e.g. a
// partition with no primary).
var InvalidNodeAddress = NodeAddress{}

// IsValid reports whether the address is not the invalid sentinel.
func (n NodeAddress) IsValid() bool {
	return n != InvalidNodeAddress
}

// String renders the address as host:port, or "invalid".
func (n NodeAddress) String() string {
	if !n.IsValid() {
		return "invalid"
	}
	return fmt.Sprintf("%s:%d", n.Host, n.Port)
}

// PartitionId identifies a replication group as an opaque pair of the
// owning application id and the partition index within it.
type PartitionId struct {
	AppID     uint32
	Partition uint32
}

// String renders the partition id as app.index.
func (p PartitionId) String() string {
	return fmt.Sprintf("%d.%d", p.AppID, p.Partition)
}

// Ballot is a 64-bit monotonically non-decreasing configuration epoch
// per partition. Zero means uninitialized.
type Ballot uint64

// Decree is a 64-bit monotonically non-decreasing write sequence
// number per partition.
type Decree uint64

// InvalidDecree marks the absence of a decree.
const InvalidDecree Decree = 0

// LearnerSignature is a 64-bit nonce uniquely identifying one learning
// session between a primary and one candidate replica.
type LearnerSignature uint64

// AppInfo is opaque application metadata carried alongside proposals
// and meta-service requests; the core never inspects its contents.
type AppInfo struct {
	AppID   uint32
	AppName string
	AppType string
}

// PartitionConfiguration is the authoritative view of a partition's
// membership, as supplied by the meta service.
type PartitionConfiguration struct {
	Pid                PartitionId
	Ballot             Ballot
	Primary            NodeAddress
	Secondaries        []NodeAddress
	MaxReplicaCount    uint32
	LastCommittedDecree Decree
}

// clone returns a deep copy so callers can mutate Primary/Secondaries
// without aliasing a cached membership snapshot.
func (c PartitionConfiguration) clone() PartitionConfiguration {
	out := c
	if len(c.Secondaries) > 0 {
		out.Secondaries = append([]NodeAddress(nil), c.Secondaries...)
	}
	return out
}

// sameMembership reports whether two configurations agree on
// {ballot, pid, primary, secondaries}, the equality primary-side edits
// require of an incoming proposal against the cached membership.
func (c PartitionConfiguration) sameMembership(o PartitionConfiguration) bool {
	if c.Ballot != o.Ballot || c.Pid != o.Pid || c.Primary != o.Primary {
		return false
	}
	if len(c.Secondaries) != len(o.Secondaries) {
		return false
	}
	for i := range c.Secondaries {
		if c.Secondaries[i] != o.Secondaries[i] {
			return false
		}
	}
	return true
}

// removeSecondary removes addr from the secondaries slice in place;
// reports whether it was present.
func removeSecondary(secondaries []NodeAddress, addr NodeAddress) ([]NodeAddress, bool) {
	for i, s := range secondaries {
		if s == addr {
			return append(secondaries[:i], secondaries[i+1:]...), true
		}
	}
	return secondaries, false
}

// ReplicaConfiguration is the local, per-node projection of a
// PartitionConfiguration: what role this specific node plays under a
// given ballot.
type ReplicaConfiguration struct {
	Pid    PartitionId
	Ballot Ballot
	Status Status
}

// ConfigurationUpdateRequest is the proposal envelope delivered to a
// replica, either forwarded by the meta service or built by this
// replica's own primary-side edits before being sent to the meta
// service.
type ConfigurationUpdateRequest struct {
	Info   AppInfo
	Config PartitionConfiguration
	Type   ProposalType
	Node   NodeAddress
}

// ConfigurationUpdateResponse is the meta service's reply to a
// ConfigurationUpdateRequest.
type ConfigurationUpdateResponse struct {
	Err    error
	Config PartitionConfiguration
}

// RemoteLearnerState tracks one candidate replica's learning session
// from the primary's point of view.
type RemoteLearnerState struct {
	Signature          LearnerSignature
	PrepareStartDecree Decree

	// deadline is the wall-clock time after which this learner is
	// considered stuck and evicted by the learner timeout index
	// (see learner_timeout.go). Zero means no timeout scheduled.
	deadline time.Time
}

// PrimaryState is the extra bookkeeping only a replica acting as (or
// transiently stepping through) primary needs.
type PrimaryState struct {
	mu sync.Mutex

	// Membership is the primary's cached authoritative view of the
	// partition configuration.
	Membership PartitionConfiguration

	// Statuses tracks the last known role of every peer this replica
	// believes is part of (or joining) the group.
	Statuses map[NodeAddress]Status

	// Learners tracks in-flight learning sessions keyed by candidate
	// address.
	Learners map[NodeAddress]*RemoteLearnerState

	// NextLearningVersion allocates fresh LearnerSignature values,
	// monotonically, never reused within the partition's lifetime.
	NextLearningVersion uint64

	// ReconfigurationInFlight is non-nil exactly while a request to
	// the meta service (or its delayed retry) is outstanding.
	ReconfigurationInFlight *reconfigurationTask

	// LastPrepareDecreeOnNewPrimary records the prepare-list high
	// water mark observed at the moment this replica became primary.
	LastPrepareDecreeOnNewPrimary Decree
}

// resetMembership replaces the cached membership and clears
// per-generation bookkeeping (statuses, learners) the way a fresh
// primary term must.
//
// callerIsNewPrimary is accepted for compatibility with the original
// call shape; it is neither stored nor used.
func (p *PrimaryState) resetMembership(cfg PartitionConfiguration, callerIsNewPrimary bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Membership = cfg.clone()
	p.Statuses = make(map[NodeAddress]Status, len(cfg.Secondaries)+1)
	if cfg.Primary.IsValid() {
		p.Statuses[cfg.Primary] = Primary
	}
	for _, s := range cfg.Secondaries {
		p.Statuses[s] = Secondary
	}
	p.Learners = make(map[NodeAddress]*RemoteLearnerState)
	_ = callerIsNewPrimary
}

// nodeStatus returns the last known status of node, or Inactive if
// this primary has no record of it.
func (p *PrimaryState) nodeStatus(node NodeAddress) Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.Statuses[node]; ok {
		return s
	}
	return Inactive
}

// checkExist reports whether node is currently recorded under the
// given status.
func (p *PrimaryState) checkExist(node NodeAddress, status Status) bool {
	return p.nodeStatus(node) == status
}

// cleanup drops every piece of per-term primary bookkeeping (the
// reconfiguration handle, statuses and learners) and returns true.
// When force is false and a reconfiguration RPC is in flight, it
// leaves all of that state untouched and returns false.
func (p *PrimaryState) cleanup(force bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !force && p.ReconfigurationInFlight != nil {
		return false
	}
	p.ReconfigurationInFlight = nil
	p.Statuses = nil
	p.Learners = nil
	return true
}

// Options carries the configuration a caller may override when
// constructing a Replica.
type Options struct {
	// Logger exposes zerolog so it can be overridden by the caller.
	Logger *zerolog.Logger

	// DataDir is where the metadata store persists ballot/status.
	DataDir string

	// MetaRetryInterval is the fixed delay before retrying a
	// non-terminal meta-service RPC failure. Defaults to 1000ms.
	MetaRetryInterval time.Duration

	// DefaultMaxReplicaCount is carried in the resolved options and
	// defaults to 3. The replica does not read it: admission control
	// uses the MaxReplicaCount of the cached PartitionConfiguration.
	DefaultMaxReplicaCount uint32

	// MetricsNamespacePrefix is prepended to every metric name when
	// set, e.g. "<prefix>_replica_<metric>".
	MetricsNamespacePrefix string

	// AppInfo is opaque application metadata carried on every
	// meta-service request this replica issues.
	AppInfo AppInfo

	// LearnerTimeout bounds how long a primary waits for a candidate
	// replica's learning session to report progress before evicting
	// it. Defaults to 30s.
	LearnerTimeout time.Duration
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.MetaRetryInterval <= 0 {
		out.MetaRetryInterval = 1000 * time.Millisecond
	}
	if out.DefaultMaxReplicaCount == 0 {
		out.DefaultMaxReplicaCount = 3
	}
	if out.LearnerTimeout <= 0 {
		out.LearnerTimeout = 30 * time.Second
	}
	return out
}

// learnerSelfState is the bookkeeping a replica acting as
// POTENTIAL_SECONDARY keeps about its own learning session, mirrored
// against secondaryCleanupState for the checkpoint-task tracking a
// SECONDARY keeps. Both mirror the shape of PrimaryState.cleanup, but
// simplified: the actual checkpoint/catchup/learn tasks they would
// otherwise track are out of scope (spec §1) collaborators, so these
// only track "is something still running" as a bool a real
// implementation would set from those tasks' completion callbacks.
type learnerSelfState struct {
	// learningWithoutPrepare mirrors learner_status::LearningWithoutPrepare:
	// set when a SECONDARY is asked to become POTENTIAL_SECONDARY again,
	// disabling 2PC until the next group check.
	learningWithoutPrepare bool

	// busy is true while a learning round is genuinely in flight; a real
	// learning subsystem would clear it from its own completion path.
	busy bool
}

func (l *learnerSelfState) cleanup(force bool) bool {
	if !force && l.busy {
		return false
	}
	l.busy = false
	l.learningWithoutPrepare = false
	return true
}

// secondaryCleanupState tracks whether a SECONDARY has a
// checkpoint-related task outstanding; see learnerSelfState.
type secondaryCleanupState struct {
	busy bool
}

func (s *secondaryCleanupState) cleanup(force bool) bool {
	if !force && s.busy {
		return false
	}
	s.busy = false
	return true
}

// Replica is a single partition's local reconfiguration state.
type Replica struct {
	mu sync.Mutex

	// address is this process's own node address.
	address NodeAddress

	// pid is the partition this replica serves.
	pid PartitionId

	// config is authoritative for this replica's local role/ballot.
	config ReplicaConfiguration

	// appInfo is opaque application metadata carried on every
	// meta-service request this replica issues.
	appInfo AppInfo

	// inactiveIsTransient is true iff the replica entered Inactive as
	// a self-induced quiesce ahead of a reconfiguration, as opposed to
	// an externally imposed removal.
	inactiveIsTransient bool

	// learnerSelf and secondaryCleanup back the pre-transition gating
	// checks in the transition engine for POTENTIAL_SECONDARY and
	// SECONDARY respectively.
	learnerSelf     learnerSelfState
	secondaryCleanup secondaryCleanupState

	// lastConfigChangeTimeMs is the wall-clock time (unix millis) of
	// the last accepted transition.
	lastConfigChangeTimeMs uint64

	// primaryStates is populated whenever this replica is (or is
	// transiently stepping through) primary.
	primaryStates *PrimaryState

	// prepareList, app, writeQueue are the write-path collaborators;
	// out of scope to implement in full, exposed as interfaces.
	prepareList PrepareList
	app         App
	writeQueue  WriteQueue

	// peers and metaClient are the RPC collaborators.
	peers      PeerTransport
	metaClient MetaServiceClient
	stub       Stub

	// metadata persists ballot/status across restarts.
	metadata *metadataStore

	// learnerTimeouts tracks the deadline of every in-flight learning
	// session this replica's primary state owns.
	learnerTimeouts *learnerTimeoutIndex

	// metrics records prometheus observations; nil is a valid no-op.
	metrics *metrics

	// logger is the zerolog sink for this replica.
	logger *zerolog.Logger

	// opts holds resolved (defaulted) construction-time options.
	opts Options

	// events is the serial executor's inbox; every exported entry
	// point in this package posts to it and every handler in
	// transition_engine.go / proposal_handler.go / meta_client.go /
	// config_sync.go / remove_handler.go runs only after being
	// dequeued here, giving the single-threaded guarantee spec §5
	// requires.
	events chan func()

	// closing guards Close against running its shutdown sequence twice;
	// set only by Close itself.
	closing bool

	// tornDown marks the point where the transition table decided this
	// replica is finished (demoted to ERROR, or evicted to INACTIVE by
	// a ballot bump) and told the owning stub via BeginCloseReplica.
	// Distinct from closing: this replica keeps serving events (a
	// container may still query LocalConfiguration) until the owner
	// actually calls Close.
	tornDown bool

	// onLoop is set for the duration of event processing so
	// checkHashedAccess can assert callers never bypass the executor.
	onLoop bool

	// wg tracks the event loop goroutine for a clean Close.
	wg     sync.WaitGroup
	stopCh chan struct{}
}
