package repcore

// projectReplicaConfig derives this node's local role from an
// authoritative partition configuration, the same three-way mapping
// replica_helper::get_replica_config performs in the original: primary
// if the node holds the primary slot, secondary if listed among the
// secondaries, inactive otherwise. Learner roles are never derived
// this way; they are assigned directly by addPotentialSecondary.
func projectReplicaConfig(cfg PartitionConfiguration, self NodeAddress) ReplicaConfiguration {
	status := Inactive
	switch {
	case cfg.Primary == self:
		status = Primary
	default:
		for _, s := range cfg.Secondaries {
			if s == self {
				status = Secondary
				break
			}
		}
	}
	return ReplicaConfiguration{Pid: cfg.Pid, Ballot: cfg.Ballot, Status: status}
}

// updateConfiguration applies an authoritative or proposed partition
// configuration whose ballot is at least the local one. Grounded on
// replica_config.cpp::update_configuration.
func (r *Replica) updateConfiguration(newPc PartitionConfiguration) bool {
	r.checkHashedAccess()

	rc := projectReplicaConfig(newPc, r.address)

	if rc.Status == Primary && (rc.Ballot > r.config.Ballot || r.config.Status != Primary) {
		callerIsNewPrimary := newPc.Primary != r.address
		if r.primaryStates == nil {
			r.primaryStates = &PrimaryState{}
		}
		r.primaryStates.resetMembership(newPc, callerIsNewPrimary)
	}

	if newPc.Ballot > r.config.Ballot || r.isSameBallotStatusChangeAllowed(r.config.Status, rc.Status) {
		return r.updateLocalConfiguration(rc, newPc.Ballot == r.config.Ballot)
	}
	return false
}

// isSameBallotStatusChangeAllowed enumerates the exact same-ballot
// pairs the reconfiguration protocol allows, per spec §4.3.
func (r *Replica) isSameBallotStatusChangeAllowed(oldStatus, newStatus Status) bool {
	switch {
	case oldStatus == newStatus:
		return true
	case oldStatus == Inactive && newStatus == PotentialSecondary:
		return true
	case oldStatus == PotentialSecondary && newStatus == Secondary:
		return true
	case oldStatus == Inactive && newStatus == Secondary && r.inactiveIsTransient:
		return true
	case oldStatus == Inactive && newStatus == Primary && r.inactiveIsTransient:
		return true
	default:
		return false
	}
}

// updateLocalConfiguration enforces the full local status transition
// table. Grounded on replica_config.cpp::update_local_configuration.
func (r *Replica) updateLocalConfiguration(rc ReplicaConfiguration, sameBallot bool) bool {
	r.checkHashedAccess()

	oldStatus := r.config.Status
	oldBallot := r.config.Ballot

	if oldStatus == rc.Status && oldBallot == rc.Ballot {
		return true
	}

	switch oldStatus {
	case Error:
		r.logger.Debug().
			Str("partition", r.pid.String()).
			Str("from", oldStatus.String()).
			Str("to", rc.Status.String()).
			Msg("status change not allowed, replica is in error")
		return false

	case Inactive:
		if (rc.Status == Primary || rc.Status == Secondary) && !r.inactiveIsTransient {
			r.logger.Debug().
				Str("partition", r.pid.String()).
				Str("to", rc.Status.String()).
				Msg("status change not allowed, inactive state is not transient")
			return false
		}

	case PotentialSecondary:
		if rc.Status == Inactive {
			if !r.learnerSelf.cleanup(false) {
				r.logger.Debug().
					Str("partition", r.pid.String()).
					Msg("status change to inactive not allowed, learning is still running")
				return false
			}
		}

	case Secondary:
		if rc.Status != Secondary && rc.Status != Error {
			if !r.secondaryCleanup.cleanup(false) {
				r.logger.Debug().
					Str("partition", r.pid.String()).
					Str("to", rc.Status.String()).
					Msg("status change not allowed, checkpoint task still running")
				return false
			}
		}
	}

	oldChangeTime := r.lastConfigChangeTimeMs
	r.config = rc
	r.lastConfigChangeTimeMs = nowMillis()
	_ = oldChangeTime

	switch oldStatus {
	case Primary:
		switch rc.Status {
		case Primary:
			r.replayPrepareList()
		case Inactive:
			r.primaryStates.cleanup(oldBallot != rc.Ballot)
		case Secondary, Error:
			r.primaryStates.cleanup(true)
		default:
			panic("repcore: invalid transition from primary")
		}

	case Secondary:
		switch rc.Status {
		case Primary:
			r.initGroupCheck()
			r.replayPrepareList()
		case Secondary:
		case PotentialSecondary:
			r.learnerSelf.learningWithoutPrepare = true
		case Inactive, Error:
		default:
			panic("repcore: invalid transition from secondary")
		}

	case PotentialSecondary:
		switch rc.Status {
		case Secondary:
			r.prepareList.Truncate(r.app.LastCommittedDecree())
			if !r.learnerSelf.cleanup(true) {
				panic("repcore: potential secondary cleanup failed")
			}
		case PotentialSecondary, Inactive:
		case Error:
			r.prepareList.Reset(r.app.LastCommittedDecree())
			r.learnerSelf.cleanup(false)
		default:
			panic("repcore: invalid transition from potential secondary")
		}

	case Inactive:
		switch rc.Status {
		case Primary:
			if !r.inactiveIsTransient {
				panic("repcore: must be transient to become primary")
			}
			r.inactiveIsTransient = false
			r.initGroupCheck()
			r.replayPrepareList()
		case Secondary:
			if !r.inactiveIsTransient {
				panic("repcore: must be transient to become secondary")
			}
			r.inactiveIsTransient = false
		case PotentialSecondary:
			r.inactiveIsTransient = false
		case Inactive:
		case Error:
			if r.inactiveIsTransient {
				if r.primaryStates != nil {
					r.primaryStates.cleanup(true)
				}
				r.secondaryCleanup.cleanup(false)
			}
			r.inactiveIsTransient = false
		default:
			panic("repcore: invalid transition from inactive")
		}

	case Error:
		if rc.Status != Error {
			panic("repcore: invalid transition from error")
		}
	}

	r.metrics.setStatus(r.pid, rc.Status)
	r.persistLocked()

	if rc.Status != oldStatus {
		isClosing := rc.Status == Error || (rc.Status == Inactive && rc.Ballot > oldBallot)
		r.stub.NotifyReplicaStateUpdate(rc, isClosing)
		if isClosing {
			r.tornDown = true
			r.stub.BeginCloseReplica(r.pid)
			return false
		}
	} else {
		r.stub.NotifyReplicaStateUpdate(rc, false)
	}

	if rc.Status == Primary {
		window := int64(r.prepareList.MaxDecree()) - int64(r.prepareList.LastCommittedDecree())
		if next := r.writeQueue.CheckPossibleWork(window); next != nil {
			r.initPrepare(next)
		}
	}

	return true
}

// updateLocalConfigurationWithNoBallotChange is the quiesce helper
// used ahead of every meta-service round trip (spec §4.4 step 2).
func (r *Replica) updateLocalConfigurationWithNoBallotChange(s Status) bool {
	r.checkHashedAccess()
	if r.config.Status == s {
		return false
	}
	cfg := r.config
	cfg.Status = s
	return r.updateLocalConfiguration(cfg, true)
}

// replayPrepareList is a no-op placeholder over the externally owned
// prepare list: the mutation replay itself belongs to the write path
// (out of scope, spec §1), so this only reads MaxDecree from the
// collaborator and does nothing else.
func (r *Replica) replayPrepareList() {
	_ = r.prepareList.MaxDecree()
}

// initGroupCheck starts periodic liveness/consistency probes to
// secondaries and learners; the probe scheduling itself is owned by
// the failure-detection subsystem (out of scope, spec §1), so this
// only marks the point in the transition table where a real
// implementation would arm it.
func (r *Replica) initGroupCheck() {}

// initPrepare hands a mutation off to the two-phase-commit path; out
// of scope beyond invoking the write queue accessor, per the
// WriteQueue collaborator boundary (spec §6).
func (r *Replica) initPrepare(m *Mutation) {}

// persistLocked writes the current ballot/status/transient flag to the
// metadata store. Named -Locked for symmetry with the teacher's own
// convention even though the event loop already serializes callers;
// errors are logged rather than propagated since a metadata write
// failure must not block a status transition the meta service already
// committed.
func (r *Replica) persistLocked() {
	err := r.metadata.Save(r.pid, persistedReplicaState{
		Ballot:              r.config.Ballot,
		Status:              r.config.Status,
		InactiveIsTransient: r.inactiveIsTransient,
	})
	if err != nil {
		r.logger.Debug().Err(err).Str("partition", r.pid.String()).Msg("fail to persist replica metadata")
	}
}
