package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/siampay/installment-api/internal/models"
)

// ApprovalFSM wraps the contract approval workflow sub-state
type ApprovalFSM struct {
	contract *models.Contract
	fsm      *fsm.FSM
}

// NewApprovalFSM creates a new approval workflow state machine
func NewApprovalFSM(contract *models.Contract) *ApprovalFSM {
	afsm := &ApprovalFSM{
		contract: contract,
	}

	reviewable := []string{
		models.ApprovalStatusPending,
		models.ApprovalStatusUnderReview,
	}

	afsm.fsm = fsm.NewFSM(
		contract.ApprovalStatus,
		fsm.Events{
			// pending → under_review
			{Name: "review", Src: []string{models.ApprovalStatusPending}, Dst: models.ApprovalStatusUnderReview},

			// pending/under_review → approved
			{Name: "approve", Src: reviewable, Dst: models.ApprovalStatusApproved},

			// pending/under_review → rejected
			{Name: "reject", Src: reviewable, Dst: models.ApprovalStatusRejected},
		},
		fsm.Callbacks{},
	)

	return afsm
}

// Review moves the workflow to under_review
func (a *ApprovalFSM) Review(ctx context.Context) error {
	if err := a.fsm.Event(ctx, "review"); err != nil {
		return fmt.Errorf("failed to move contract under review: %w", err)
	}

	a.contract.ApprovalStatus = a.fsm.Current()
	return nil
}

// Approve resolves the workflow as approved
func (a *ApprovalFSM) Approve(ctx context.Context) error {
	if !a.contract.MayApprove() {
		return fmt.Errorf("approval not allowed from status: %s", a.contract.ApprovalStatus)
	}

	if err := a.fsm.Event(ctx, "approve"); err != nil {
		return fmt.Errorf("failed to approve: %w", err)
	}

	a.contract.ApprovalStatus = a.fsm.Current()
	return nil
}

// Reject resolves the workflow as rejected
func (a *ApprovalFSM) Reject(ctx context.Context) error {
	if !a.contract.MayReject() {
		return fmt.Errorf("rejection not allowed from status: %s", a.contract.ApprovalStatus)
	}

	if err := a.fsm.Event(ctx, "reject"); err != nil {
		return fmt.Errorf("failed to reject: %w", err)
	}

	a.contract.ApprovalStatus = a.fsm.Current()
	return nil
}

// Current returns the current approval state
func (a *ApprovalFSM) Current() string {
	return a.fsm.Current()
}

// Can checks if a transition is possible
func (a *ApprovalFSM) Can(event string) bool {
	return a.fsm.Can(event)
}
