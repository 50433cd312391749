package repcore

import "context"

// OnConfigSync is the entry point for the meta service's periodic
// configuration push. Grounded on
// replica_config.cpp::on_config_sync.
func (r *Replica) OnConfigSync(ctx context.Context, config PartitionConfiguration) error {
	return r.postWait(ctx, func() error {
		r.onConfigSync(config)
		return nil
	})
}

func (r *Replica) onConfigSync(config PartitionConfiguration) {
	r.checkHashedAccess()

	r.logger.Debug().Str("partition", r.pid.String()).Msg("configuration sync")

	if config.Ballot < r.config.Ballot {
		return
	}

	inFlight := false
	if r.primaryStates != nil {
		r.primaryStates.mu.Lock()
		inFlight = r.primaryStates.ReconfigurationInFlight != nil
		r.primaryStates.mu.Unlock()
	}
	if r.config.Status == Primary || inFlight {
		return
	}

	r.updateConfiguration(config)

	if r.config.Status == Inactive && !r.inactiveIsTransient {
		if config.Primary == r.address || !config.Primary.IsValid() {
			r.stub.RemoveReplicaOnMetaServer(r.appInfo, config)
		}
	}
}
