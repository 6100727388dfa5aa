package workflow

import (
	"budget-backend/internal/app/ds"
)

// Action is one workflow operation a caller can request on a document.
type Action string

const (
	ActionSubmit           Action = "submit"
	ActionPartiallyApprove Action = "partially_approve"
	ActionReject           Action = "reject"
	ActionUploadSigned     Action = "upload_signed"
	ActionVerifyApprove    Action = "verify_approve"
	ActionVerifyReject     Action = "verify_reject"
)

// transitions is the shared approval table for all document kinds.
// verify_reject sends the document back for a corrected upload rather
// than killing it.
var transitions = map[Action]map[ds.Status]ds.Status{
	ActionSubmit: {
		ds.StatusDraft: ds.StatusPending,
	},
	ActionPartiallyApprove: {
		ds.StatusPending: ds.StatusPartiallyApproved,
	},
	ActionReject: {
		ds.StatusPending: ds.StatusRejected,
	},
	ActionUploadSigned: {
		ds.StatusPartiallyApproved: ds.StatusAwaitingVerification,
	},
	ActionVerifyApprove: {
		ds.StatusAwaitingVerification: ds.StatusApproved,
	},
	ActionVerifyReject: {
		ds.StatusAwaitingVerification: ds.StatusPartiallyApproved,
	},
}

// Next returns the status an action leads to from the given one. The
// second result is false when the action is not allowed there.
func Next(action Action, from ds.Status) (ds.Status, bool) {
	to, ok := transitions[action][from]
	return to, ok
}
