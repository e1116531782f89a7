package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/siampay/installment-api/internal/models"
)

// ContractFSM wraps a contract with its lifecycle state machine.
// completed, cancelled and defaulted are terminal: no event leaves them.
type ContractFSM struct {
	contract *models.Contract
	fsm      *fsm.FSM
}

// NewContractFSM creates a new contract lifecycle state machine
func NewContractFSM(contract *models.Contract) *ContractFSM {
	cfsm := &ContractFSM{
		contract: contract,
	}

	repaying := []string{
		models.ContractStatusActive,
		models.ContractStatusOngoing,
		models.ContractStatusOverdue,
	}

	cfsm.fsm = fsm.NewFSM(
		contract.Status,
		fsm.Events{
			// pending → approved
			{Name: "approve", Src: []string{models.ContractStatusPending}, Dst: models.ContractStatusApproved},

			// pending → rejected
			{Name: "reject", Src: []string{models.ContractStatusPending}, Dst: models.ContractStatusRejected},

			// approved → active (repayment begins)
			{Name: "activate", Src: []string{models.ContractStatusApproved}, Dst: models.ContractStatusActive},

			// active → ongoing (first payment recorded)
			{Name: "start_repayment", Src: []string{models.ContractStatusActive, models.ContractStatusOverdue}, Dst: models.ContractStatusOngoing},

			// repaying → overdue (classification sweep)
			{Name: "mark_overdue", Src: []string{models.ContractStatusActive, models.ContractStatusOngoing}, Dst: models.ContractStatusOverdue},

			// repaying → completed
			{Name: "complete", Src: repaying, Dst: models.ContractStatusCompleted},

			// repaying → defaulted
			{Name: "default", Src: repaying, Dst: models.ContractStatusDefaulted},

			// anything not terminal → cancelled
			{Name: "cancel", Src: []string{
				models.ContractStatusPending,
				models.ContractStatusApproved,
				models.ContractStatusActive,
				models.ContractStatusOngoing,
				models.ContractStatusOverdue,
				models.ContractStatusRejected,
			}, Dst: models.ContractStatusCancelled},
		},
		fsm.Callbacks{},
	)

	return cfsm
}

// Approve transitions contract to approved state
func (c *ContractFSM) Approve(ctx context.Context) error {
	if !c.contract.MayApprove() {
		return fmt.Errorf("contract cannot be approved with approval status: %s", c.contract.ApprovalStatus)
	}

	if err := c.fsm.Event(ctx, "approve"); err != nil {
		return fmt.Errorf("failed to approve contract: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// Reject transitions contract to rejected state
func (c *ContractFSM) Reject(ctx context.Context) error {
	if !c.contract.MayReject() {
		return fmt.Errorf("contract cannot be rejected with approval status: %s", c.contract.ApprovalStatus)
	}

	if err := c.fsm.Event(ctx, "reject"); err != nil {
		return fmt.Errorf("failed to reject contract: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// Activate moves an approved contract into repayment
func (c *ContractFSM) Activate(ctx context.Context) error {
	if !c.contract.MayActivate() {
		return fmt.Errorf("contract cannot be activated in current state: %s", c.contract.Status)
	}

	if err := c.fsm.Event(ctx, "activate"); err != nil {
		return fmt.Errorf("failed to activate contract: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// StartRepayment marks the contract ongoing after a payment lands
func (c *ContractFSM) StartRepayment(ctx context.Context) error {
	if err := c.fsm.Event(ctx, "start_repayment"); err != nil {
		return fmt.Errorf("failed to start repayment: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// MarkOverdue persists the overdue classification
func (c *ContractFSM) MarkOverdue(ctx context.Context) error {
	if err := c.fsm.Event(ctx, "mark_overdue"); err != nil {
		return fmt.Errorf("failed to mark contract overdue: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// Complete closes out a fully paid contract
func (c *ContractFSM) Complete(ctx context.Context) error {
	if !c.contract.MayComplete() {
		return fmt.Errorf("contract cannot be completed in current state: %s", c.contract.Status)
	}

	if err := c.fsm.Event(ctx, "complete"); err != nil {
		return fmt.Errorf("failed to complete contract: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// Default marks a contract defaulted
func (c *ContractFSM) Default(ctx context.Context) error {
	if !c.contract.MayDefault() {
		return fmt.Errorf("contract cannot be defaulted in current state: %s", c.contract.Status)
	}

	if err := c.fsm.Event(ctx, "default"); err != nil {
		return fmt.Errorf("failed to default contract: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// Cancel transitions contract to cancelled state
func (c *ContractFSM) Cancel(ctx context.Context) error {
	if !c.contract.MayCancel() {
		return fmt.Errorf("contract cannot be cancelled in current state: %s", c.contract.Status)
	}

	if err := c.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("failed to cancel contract: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// Current returns the current state
func (c *ContractFSM) Current() string {
	return c.fsm.Current()
}

// Can checks if a transition is possible
func (c *ContractFSM) Can(event string) bool {
	return c.fsm.Can(event)
}
