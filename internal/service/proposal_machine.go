package service

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/noah-isme/campus-events-api/internal/models"
)

// Proposal lifecycle events.
const (
	EventApprove  statekit.EventType = "APPROVE"
	EventDecline  statekit.EventType = "DECLINE"
	EventResubmit statekit.EventType = "RESUBMIT"
)

const proposalMachineID = "proposal"

const (
	statePending  statekit.StateID = statekit.StateID(models.ProposalStatusPending)
	stateApproved statekit.StateID = statekit.StateID(models.ProposalStatusApproved)
	stateDeclined statekit.StateID = statekit.StateID(models.ProposalStatusDeclined)
)

// transitionContext records what the machine actually fired.
type transitionContext struct {
	Event statekit.EventType
	Fired bool
}

func recordTransition(ctx **transitionContext, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	(*ctx).Event = event.Type
	(*ctx).Fired = true
}

// ProposalMachine is the status statechart. Every event is accepted from
// every state; callers decide policy such as the approve no-op.
type ProposalMachine struct {
	config *statekit.MachineConfig[*transitionContext]
}

// NewProposalMachine builds the proposal statechart.
func NewProposalMachine() (*ProposalMachine, error) {
	config, err := statekit.NewMachine[*transitionContext](proposalMachineID).
		WithInitial(statePending).
		WithContext(&transitionContext{}).
		WithAction("recordTransition", recordTransition).
		State(statePending).
			On(EventApprove).Target(stateApproved).Do("recordTransition").
			On(EventDecline).Target(stateDeclined).Do("recordTransition").
			On(EventResubmit).Target(statePending).Do("recordTransition").
			Done().
		State(stateApproved).
			On(EventApprove).Target(stateApproved).Do("recordTransition").
			On(EventDecline).Target(stateDeclined).Do("recordTransition").
			On(EventResubmit).Target(statePending).Do("recordTransition").
			Done().
		State(stateDeclined).
			On(EventApprove).Target(stateApproved).Do("recordTransition").
			On(EventDecline).Target(stateDeclined).Do("recordTransition").
			On(EventResubmit).Target(statePending).Do("recordTransition").
			Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("build proposal machine: %w", err)
	}
	return &ProposalMachine{config: config}, nil
}

// Transition resolves the status reached by applying event from the given
// status.
func (m *ProposalMachine) Transition(from models.ProposalStatus, event statekit.EventType) (models.ProposalStatus, error) {
	if !from.Valid() {
		return "", fmt.Errorf("unknown proposal status %q", from)
	}
	switch event {
	case EventApprove, EventDecline, EventResubmit:
	default:
		return "", fmt.Errorf("unknown proposal event %q", event)
	}

	tc := &transitionContext{}
	interp := statekit.NewInterpreter(m.config)
	interp.UpdateContext(func(c **transitionContext) {
		*c = tc
	})
	interp.Start()
	defer interp.Stop()

	if from != models.ProposalStatusPending {
		snapshot := statekit.Snapshot[*transitionContext]{
			MachineID:    proposalMachineID,
			CurrentState: statekit.StateID(from),
			Context:      tc,
			CreatedAt:    time.Now(),
		}
		if err := interp.Restore(snapshot); err != nil {
			return "", fmt.Errorf("restore proposal state %s: %w", from, err)
		}
	}

	interp.Send(statekit.Event{Type: event})
	if !tc.Fired {
		return "", fmt.Errorf("event %s not accepted from %s", event, from)
	}
	return models.ProposalStatus(interp.State().Value), nil
}
