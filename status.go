package repcore

// Status represents the local role a replica currently plays for its
// partition. It can only be Inactive, PotentialSecondary, Secondary,
// Primary or Error.
type Status uint32

const (
	// Inactive is a replica that currently serves no traffic for the
	// partition. It is reachable either by external removal or by the
	// replica quiescing itself ahead of a reconfiguration (see
	// Replica.inactiveIsTransient).
	Inactive Status = iota

	// PotentialSecondary is a learner: a candidate replica catching up
	// from the primary before being promoted to Secondary.
	PotentialSecondary

	// Secondary participates in two-phase commit and can be promoted
	// to Primary by the meta service.
	Secondary

	// Primary serves all client writes for the partition and drives
	// reconfiguration proposals.
	Primary

	// Error is terminal until the replica is recycled; no further
	// status transitions are accepted from it.
	Error
)

// String returns a human readable status.
func (s Status) String() string {
	switch s {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	case PotentialSecondary:
		return "potentialSecondary"
	case Error:
		return "error"
	}
	return "inactive"
}
