package repcore

import "context"

// OnConfigProposal is the entry point for a reconfiguration proposal
// delivered to this replica, either forwarded by the meta service or
// issued by a peer primary. It is dispatched onto the replica's serial
// executor and blocks the caller until handled. Grounded on
// replica_config.cpp::on_config_proposal.
func (r *Replica) OnConfigProposal(ctx context.Context, p ConfigurationUpdateRequest) error {
	return r.postWait(ctx, func() error {
		r.onConfigProposal(p)
		return nil
	})
}

func (r *Replica) onConfigProposal(p ConfigurationUpdateRequest) {
	r.checkHashedAccess()

	if p.Config.Ballot < r.config.Ballot {
		r.logger.Debug().
			Str("partition", r.pid.String()).
			Uint64("proposalBallot", uint64(p.Config.Ballot)).
			Uint64("localBallot", uint64(r.config.Ballot)).
			Msg("stale config proposal dropped")
		return
	}

	if r.primaryStates != nil {
		r.primaryStates.mu.Lock()
		inFlight := r.primaryStates.ReconfigurationInFlight != nil
		r.primaryStates.mu.Unlock()
		if inFlight {
			r.logger.Debug().Str("partition", r.pid.String()).Msg("reconfiguration already in flight, dropping proposal")
			return
		}
	}

	if p.Config.Ballot > r.config.Ballot {
		if !r.updateConfiguration(p.Config) {
			r.logger.Debug().Str("partition", r.pid.String()).Msg("config proposal rejected by update_configuration")
			return
		}
	}

	switch p.Type {
	case AssignPrimary, UpgradeToPrimary:
		r.assignPrimary(p)
	case AddSecondary, AddSecondaryForLB:
		r.addPotentialSecondary(p)
	case DowngradeToSecondary:
		r.downgradeToSecondaryOnPrimary(p)
	case DowngradeToInactive:
		r.downgradeToInactiveOnPrimary(p)
	case Remove:
		r.remove(p)
	default:
		panic(errUnknownProposalType)
	}
}
