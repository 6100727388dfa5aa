package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"budget-backend/internal/app/ds"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		action Action
		from   ds.Status
		to     ds.Status
		ok     bool
	}{
		{ActionSubmit, ds.StatusDraft, ds.StatusPending, true},
		{ActionSubmit, ds.StatusPending, "", false},
		{ActionSubmit, ds.StatusApproved, "", false},
		{ActionPartiallyApprove, ds.StatusPending, ds.StatusPartiallyApproved, true},
		{ActionPartiallyApprove, ds.StatusDraft, "", false},
		{ActionReject, ds.StatusPending, ds.StatusRejected, true},
		{ActionReject, ds.StatusPartiallyApproved, "", false},
		{ActionUploadSigned, ds.StatusPartiallyApproved, ds.StatusAwaitingVerification, true},
		{ActionUploadSigned, ds.StatusPending, "", false},
		{ActionVerifyApprove, ds.StatusAwaitingVerification, ds.StatusApproved, true},
		{ActionVerifyApprove, ds.StatusApproved, "", false},
		{ActionVerifyApprove, ds.StatusPartiallyApproved, "", false},
		{ActionVerifyReject, ds.StatusAwaitingVerification, ds.StatusPartiallyApproved, true},
		{ActionVerifyReject, ds.StatusRejected, "", false},
	}

	for _, c := range cases {
		to, ok := Next(c.action, c.from)
		assert.Equal(t, c.ok, ok, "%s from %s", c.action, c.from)
		if c.ok {
			assert.Equal(t, c.to, to, "%s from %s", c.action, c.from)
		}
	}
}

func TestRejectedAndApprovedAreTerminalForConsumption(t *testing.T) {
	assert.False(t, ds.StatusRejected.InFlight())
	assert.False(t, ds.StatusApproved.InFlight())
	assert.False(t, ds.StatusDraft.InFlight())
	assert.True(t, ds.StatusPending.InFlight())
	assert.True(t, ds.StatusPartiallyApproved.InFlight())
	assert.True(t, ds.StatusAwaitingVerification.InFlight())
}
