package repcore

// ProposalType is the closed set of reconfiguration proposals that can
// target a replica, either originating at the meta service or issued
// by the current primary on its own behalf.
type ProposalType uint32

const (
	// AssignPrimary asks a replica with no prior primary to become one.
	AssignPrimary ProposalType = iota

	// UpgradeToPrimary asks a secondary to become primary.
	UpgradeToPrimary

	// AddSecondary adds a learner as part of normal replica-count
	// maintenance.
	AddSecondary

	// AddSecondaryForLB adds one extra learner beyond max_replica_count
	// for load-balancing purposes.
	AddSecondaryForLB

	// UpgradeToSecondary is issued by the primary once a learner has
	// caught up.
	UpgradeToSecondary

	// DowngradeToSecondary demotes the current primary to secondary.
	DowngradeToSecondary

	// DowngradeToInactive demotes a node (primary or secondary) to
	// inactive.
	DowngradeToInactive

	// Remove removes a node from the partition's membership entirely.
	Remove
)

// String returns a human readable proposal type.
func (t ProposalType) String() string {
	switch t {
	case AssignPrimary:
		return "assignPrimary"
	case UpgradeToPrimary:
		return "upgradeToPrimary"
	case AddSecondary:
		return "addSecondary"
	case AddSecondaryForLB:
		return "addSecondaryForLB"
	case UpgradeToSecondary:
		return "upgradeToSecondary"
	case DowngradeToSecondary:
		return "downgradeToSecondary"
	case DowngradeToInactive:
		return "downgradeToInactive"
	case Remove:
		return "remove"
	}
	return "unknown"
}
