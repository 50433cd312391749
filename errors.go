package repcore

import "errors"

var (
	// ErrShutdown means the replica is closing and can no longer
	// accept the operation.
	ErrShutdown = errors.New("replica is shutting down")

	// ErrInvalidVersion is returned by the meta service when the
	// submitted request's ballot is stale beyond recovery; the
	// response's config is authoritative and must be applied as-is.
	ErrInvalidVersion = errors.New("invalid configuration version")

	// ErrDataDirRequired is returned when the metadata store is
	// opened without a data directory.
	ErrDataDirRequired = errors.New("data directory is required")

	// errUnknownProposalType marks a proposal dispatch that fell
	// through every known ProposalType; reaching this is a
	// programming error, not a runtime condition.
	errUnknownProposalType = errors.New("unknown proposal type")

	// errInvalidTransition marks a (old, new) status pair that isn't
	// in the transition matrix; reaching this is a programming error.
	errInvalidTransition = errors.New("invalid status transition")

	// errTransientMetaError marks any non-OK, non-InvalidVersion reply
	// from the meta service; the caller schedules a retry after the
	// fixed delay rather than giving up (spec §4.4).
	errTransientMetaError = errors.New("transient meta service error")
)
