package service

import (
	"testing"

	"github.com/felixgeelhaar/statekit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-events-api/internal/models"
)

func TestProposalMachineTransitions(t *testing.T) {
	machine, err := NewProposalMachine()
	require.NoError(t, err)

	cases := []struct {
		from  models.ProposalStatus
		event statekit.EventType
		want  models.ProposalStatus
	}{
		{models.ProposalStatusPending, EventApprove, models.ProposalStatusApproved},
		{models.ProposalStatusPending, EventDecline, models.ProposalStatusDeclined},
		{models.ProposalStatusPending, EventResubmit, models.ProposalStatusPending},
		{models.ProposalStatusApproved, EventApprove, models.ProposalStatusApproved},
		{models.ProposalStatusApproved, EventDecline, models.ProposalStatusDeclined},
		{models.ProposalStatusApproved, EventResubmit, models.ProposalStatusPending},
		{models.ProposalStatusDeclined, EventApprove, models.ProposalStatusApproved},
		{models.ProposalStatusDeclined, EventDecline, models.ProposalStatusDeclined},
		{models.ProposalStatusDeclined, EventResubmit, models.ProposalStatusPending},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"/"+string(tc.event), func(t *testing.T) {
			got, err := machine.Transition(tc.from, tc.event)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestProposalMachineRejectsUnknownInput(t *testing.T) {
	machine, err := NewProposalMachine()
	require.NoError(t, err)

	_, err = machine.Transition("Archived", EventApprove)
	assert.Error(t, err)

	_, err = machine.Transition(models.ProposalStatusPending, "PUBLISH")
	assert.Error(t, err)
}
