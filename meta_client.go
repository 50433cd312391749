package repcore

import (
	"context"
	"time"
)

// reconfigurationTask is the handle spec §4.3 invariant 2 refers to as
// primary_states.reconfiguration_task: non-nil exactly while a request
// to the meta service, or its delayed retry, is outstanding. cancel
// stops any in-flight goroutine or pending retry timer without forcing
// the meta service itself to observe the cancellation, matching the
// original's "defensive, no wait" cancel semantics (spec §5).
type reconfigurationTask struct {
	req   ConfigurationUpdateRequest
	start time.Time

	cancel context.CancelFunc
	timer  *time.Timer
}

func (t *reconfigurationTask) stop() {
	if t == nil {
		return
	}
	if t.cancel != nil {
		t.cancel()
	}
	if t.timer != nil {
		t.timer.Stop()
	}
}

// updateConfigurationOnMetaServer quiesces the replica, submits a
// reconfiguration request to the meta service and returns immediately;
// the reply arrives asynchronously through onUpdateConfigurationOnMetaServerReply,
// posted back onto this replica's event loop. Grounded on
// replica_config.cpp::update_configuration_on_meta_server.
func (r *Replica) updateConfigurationOnMetaServer(proposalType ProposalType, node NodeAddress, newConfig PartitionConfiguration) {
	r.checkHashedAccess()

	newConfig.LastCommittedDecree = r.app.LastCommittedDecree()

	r.updateLocalConfigurationWithNoBallotChange(Inactive)
	r.inactiveIsTransient = true

	req := ConfigurationUpdateRequest{
		Info:   r.appInfo,
		Config: newConfig,
		Type:   proposalType,
		Node:   node,
	}
	req.Config.Ballot++

	if r.primaryStates == nil {
		r.primaryStates = &PrimaryState{}
	}
	r.primaryStates.mu.Lock()
	prior := r.primaryStates.ReconfigurationInFlight
	r.primaryStates.mu.Unlock()
	prior.stop()

	r.logger.Debug().
		Str("partition", r.pid.String()).
		Uint64("ballot", uint64(req.Config.Ballot)).
		Str("type", proposalType.String()).
		Str("node", node.String()).
		Msg("send update configuration request to meta server")

	r.sendMetaRequest(req)
}

// sendMetaRequest dispatches req to the current meta server on a
// background goroutine and installs the reconfiguration task handle;
// the actual RPC never runs on the event loop goroutine, only its
// outcome, posted back via post().
func (r *Replica) sendMetaRequest(req ConfigurationUpdateRequest) {
	ctx, cancel := context.WithCancel(context.Background())
	task := &reconfigurationTask{req: req, start: time.Now(), cancel: cancel}

	if r.primaryStates == nil {
		r.primaryStates = &PrimaryState{}
	}
	r.primaryStates.mu.Lock()
	r.primaryStates.ReconfigurationInFlight = task
	r.primaryStates.mu.Unlock()

	metaAddr := r.stub.CurrentMetaServer()
	go func() {
		resp, err := r.metaClient.UpdatePartitionConfiguration(ctx, metaAddr, req)
		if ctx.Err() != nil {
			return
		}
		r.post(func() {
			r.onUpdateConfigurationOnMetaServerReply(task, req, resp, err)
		})
	}()
}

// onUpdateConfigurationOnMetaServerReply handles the meta service's
// answer to req, or a delayed retry of it. Grounded on
// replica_config.cpp::on_update_configuration_on_meta_server_reply.
func (r *Replica) onUpdateConfigurationOnMetaServerReply(task *reconfigurationTask, req ConfigurationUpdateRequest, resp ConfigurationUpdateResponse, transportErr error) {
	r.checkHashedAccess()

	if r.config.Status != Inactive || !r.stub.IsConnected() {
		r.clearReconfigurationTask(task)
		return
	}

	err := transportErr
	if err == nil {
		err = resp.Err
	}

	if err != nil && err != ErrInvalidVersion {
		r.logger.Debug().
			Err(err).
			Str("partition", r.pid.String()).
			Uint64("ballot", uint64(req.Config.Ballot)).
			Msg("update configuration reply with error, scheduling retry")
		r.metrics.incRetry(r.pid)
		r.scheduleMetaRetry(task, req)
		return
	}

	if err == nil {
		if !resp.Config.sameMembership(req.Config) {
			r.logger.Debug().
				Str("partition", r.pid.String()).
				Msg("update configuration reply config mismatch")
		}
		switch req.Type {
		case UpgradeToPrimary:
			r.primaryStates.mu.Lock()
			r.primaryStates.LastPrepareDecreeOnNewPrimary = r.prepareList.MaxDecree()
			r.primaryStates.mu.Unlock()
		case AssignPrimary:
			r.primaryStates.mu.Lock()
			r.primaryStates.LastPrepareDecreeOnNewPrimary = InvalidDecree
			r.primaryStates.mu.Unlock()
		case Remove:
			if req.Node != r.address {
				r.peers.SendRemoveReplica(context.Background(), req.Node, projectReplicaConfig(resp.Config, req.Node))
			}
		}
	}

	r.metrics.observeReconfiguration(r.pid, req.Type, time.Since(task.start).Seconds())
	r.updateConfiguration(resp.Config)
	r.clearReconfigurationTask(task)
}

// scheduleMetaRetry reuses the identical request after the fixed
// 1000ms (or configured) delay, per spec §4.4 step giving the
// at-most-one-in-flight guarantee across retries.
func (r *Replica) scheduleMetaRetry(task *reconfigurationTask, req ConfigurationUpdateRequest) {
	task.timer = time.AfterFunc(r.opts.MetaRetryInterval, func() {
		r.post(func() {
			if r.primaryStates == nil {
				return
			}
			r.primaryStates.mu.Lock()
			current := r.primaryStates.ReconfigurationInFlight
			r.primaryStates.mu.Unlock()
			if current != task {
				return
			}
			r.sendMetaRequest(req)
			r.primaryStates.mu.Lock()
			r.primaryStates.ReconfigurationInFlight.start = task.start
			r.primaryStates.mu.Unlock()
		})
	})
}

func (r *Replica) clearReconfigurationTask(task *reconfigurationTask) {
	if r.primaryStates == nil {
		return
	}
	r.primaryStates.mu.Lock()
	if r.primaryStates.ReconfigurationInFlight == task {
		r.primaryStates.ReconfigurationInFlight = nil
	}
	r.primaryStates.mu.Unlock()
}
