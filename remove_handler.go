package repcore

import "context"

// OnRemove is the entry point for the one-way REMOVE_REPLICA RPC a
// primary sends to a node it is evicting. Grounded on
// replica_config.cpp::on_remove.
func (r *Replica) OnRemove(ctx context.Context, req ReplicaConfiguration) error {
	return r.postWait(ctx, func() error {
		r.onRemove(req)
		return nil
	})
}

func (r *Replica) onRemove(req ReplicaConfiguration) {
	r.checkHashedAccess()

	if req.Ballot < r.config.Ballot {
		r.logger.Debug().Str("partition", r.pid.String()).Msg("stale remove request dropped")
		return
	}
	if req.Ballot == r.config.Ballot && r.config.Status == PotentialSecondary {
		r.logger.Debug().Str("partition", r.pid.String()).Msg("remove request dropped, an in-flight add at the same ballot must win")
		return
	}
	if req.Status != Inactive {
		panic("repcore: remove request must carry inactive status")
	}
	r.updateLocalConfiguration(req, req.Ballot == r.config.Ballot)
}
