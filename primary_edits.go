package repcore

import (
	"context"
	"time"
)

// assignPrimary handles ASSIGN_PRIMARY and UPGRADE_TO_PRIMARY. Grounded
// on replica_config.cpp::assign_primary.
func (r *Replica) assignPrimary(p ConfigurationUpdateRequest) {
	r.checkHashedAccess()

	if p.Node != r.address {
		r.logger.Debug().Str("partition", r.pid.String()).Msg("assign primary targets a different node, dropping")
		return
	}
	if r.config.Status == Primary {
		r.logger.Debug().Str("partition", r.pid.String()).Msg("already primary, dropping assign primary")
		return
	}
	if p.Type == UpgradeToPrimary && (r.config.Status != Secondary || r.secondaryCleanup.busy) {
		r.logger.Debug().
			Str("partition", r.pid.String()).
			Str("status", r.config.Status.String()).
			Msg("upgrade to primary rejected, not a clean secondary")
		return
	}

	p.Config.Primary = r.address
	if updated, ok := removeSecondary(p.Config.Secondaries, r.address); ok {
		p.Config.Secondaries = updated
	}

	r.updateConfigurationOnMetaServer(p.Type, r.address, p.Config)
}

// addPotentialSecondary handles ADD_SECONDARY and ADD_SECONDARY_FOR_LB.
// Grounded on replica_config.cpp::add_potential_secondary.
func (r *Replica) addPotentialSecondary(p ConfigurationUpdateRequest) {
	r.checkHashedAccess()

	if r.config.Status != Primary {
		r.logger.Debug().Str("partition", r.pid.String()).Msg("add potential secondary rejected, not primary")
		return
	}
	if r.primaryStates == nil || !r.primaryStates.Membership.sameMembership(p.Config) {
		r.logger.Debug().Str("partition", r.pid.String()).Msg("add potential secondary rejected, membership mismatch")
		return
	}
	if r.primaryStates.checkExist(p.Node, Primary) || r.primaryStates.checkExist(p.Node, Secondary) {
		r.logger.Debug().Str("partition", r.pid.String()).Str("node", p.Node.String()).Msg("add potential secondary rejected, already a member")
		return
	}

	r.primaryStates.mu.Lock()
	existing, isLearner := r.primaryStates.Learners[p.Node]
	potentialCount := int64(len(r.primaryStates.Membership.Secondaries) + len(r.primaryStates.Learners))
	maxCount := int64(r.primaryStates.Membership.MaxReplicaCount)
	r.primaryStates.mu.Unlock()

	accepted := false
	switch p.Type {
	case AddSecondary:
		accepted = potentialCount < maxCount-1 || isLearner
	case AddSecondaryForLB:
		accepted = potentialCount < maxCount
	}
	if !accepted {
		r.metrics.incLearnerRejection(r.pid)
		r.logger.Debug().
			Str("partition", r.pid.String()).
			Str("node", p.Node.String()).
			Int64("potentialCount", potentialCount).
			Int64("max", maxCount).
			Msg("add potential secondary rejected by admission control")
		return
	}

	var signature LearnerSignature
	deadline := time.Now().Add(r.opts.LearnerTimeout)
	r.primaryStates.mu.Lock()
	if isLearner {
		signature = existing.Signature
		existing.deadline = deadline
	} else {
		r.primaryStates.NextLearningVersion++
		signature = LearnerSignature(r.primaryStates.NextLearningVersion)
		r.primaryStates.Learners[p.Node] = &RemoteLearnerState{
			Signature:          signature,
			PrepareStartDecree: r.prepareList.LastCommittedDecree(),
			deadline:           deadline,
		}
	}
	r.primaryStates.Statuses[p.Node] = PotentialSecondary
	r.primaryStates.mu.Unlock()

	r.learnerTimeouts.schedule(p.Node, signature, deadline)
	r.metrics.incLearnerAdmission(r.pid)
	r.peers.SendLearnAddLearner(context.Background(), p.Node, GroupCheckRequest{
		App:                 p.Info,
		Node:                p.Node,
		Config:              ReplicaConfiguration{Pid: r.pid, Ballot: r.config.Ballot, Status: PotentialSecondary},
		Signature:           signature,
		LastCommittedDecree: r.prepareList.LastCommittedDecree(),
	})
}

// upgradeToSecondaryOnPrimary is invoked once a learner has caught up.
// Grounded on replica_config.cpp::upgrade_to_secondary_on_primary.
func (r *Replica) upgradeToSecondaryOnPrimary(node NodeAddress) {
	r.checkHashedAccess()

	if r.config.Status != Primary || r.primaryStates == nil {
		return
	}
	r.primaryStates.mu.Lock()
	if learner, ok := r.primaryStates.Learners[node]; ok {
		r.learnerTimeouts.cancel(node, learner.Signature)
	}
	r.primaryStates.mu.Unlock()

	membership := r.primaryStates.Membership.clone()
	membership.Secondaries = append(membership.Secondaries, node)
	r.updateConfigurationOnMetaServer(UpgradeToSecondary, node, membership)
}

// downgradeToSecondaryOnPrimary demotes the current primary to
// secondary. Grounded on
// replica_config.cpp::downgrade_to_secondary_on_primary.
func (r *Replica) downgradeToSecondaryOnPrimary(p ConfigurationUpdateRequest) {
	r.checkHashedAccess()

	if p.Config.Ballot != r.config.Ballot || r.config.Status != Primary || p.Node != p.Config.Primary {
		r.logger.Debug().Str("partition", r.pid.String()).Msg("downgrade to secondary rejected, guard failed")
		return
	}

	membership := p.Config.clone()
	oldPrimary := membership.Primary
	membership.Primary = InvalidNodeAddress
	membership.Secondaries = append(membership.Secondaries, oldPrimary)
	r.updateConfigurationOnMetaServer(DowngradeToSecondary, p.Node, membership)
}

// downgradeToInactiveOnPrimary demotes p.Node (primary or secondary) to
// inactive. Grounded on
// replica_config.cpp::downgrade_to_inactive_on_primary.
func (r *Replica) downgradeToInactiveOnPrimary(p ConfigurationUpdateRequest) {
	r.checkHashedAccess()

	if p.Config.Ballot != r.config.Ballot || r.config.Status != Primary {
		r.logger.Debug().Str("partition", r.pid.String()).Msg("downgrade to inactive rejected, guard failed")
		return
	}

	membership := p.Config.clone()
	if p.Node == membership.Primary {
		membership.Primary = InvalidNodeAddress
	} else if updated, ok := removeSecondary(membership.Secondaries, p.Node); ok {
		membership.Secondaries = updated
	} else {
		panic("repcore: downgrade to inactive target not found in membership")
	}
	r.updateConfigurationOnMetaServer(DowngradeToInactive, p.Node, membership)
}

// remove drops p.Node from the partition's membership entirely.
// Grounded on replica_config.cpp::remove.
func (r *Replica) remove(p ConfigurationUpdateRequest) {
	r.checkHashedAccess()

	if p.Config.Ballot != r.config.Ballot || r.config.Status != Primary {
		r.logger.Debug().Str("partition", r.pid.String()).Msg("remove rejected, guard failed")
		return
	}

	membership := p.Config.clone()
	switch r.primaryStates.nodeStatus(p.Node) {
	case Primary:
		membership.Primary = InvalidNodeAddress
	case Secondary:
		if updated, ok := removeSecondary(membership.Secondaries, p.Node); ok {
			membership.Secondaries = updated
		}
	case PotentialSecondary:
		// no membership edit: learners are not part of the formal
		// secondaries list.
	}
	r.updateConfigurationOnMetaServer(Remove, p.Node, membership)
}
