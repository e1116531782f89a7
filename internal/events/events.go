package events

import "context"

// Event names follow a <entity>.<action> convention
const (
	ContractCreated   = "contract.created"
	ContractApproved  = "contract.approved"
	ContractRejected  = "contract.rejected"
	ContractCancelled = "contract.cancelled"
	ContractCompleted = "contract.completed"
	ContractOverdue   = "contract.overdue"
	PaymentRecorded   = "payment.recorded"
	PaymentCancelled  = "payment.cancelled"
)

// Event carries what happened and to which record
type Event struct {
	Name       string
	EntityID   uint
	Title      string
	Message    string
	ActorID    uint
	BranchCode string
}

// Publisher delivers domain events to interested parties. Implementations
// must not block the caller; delivery failures are logged, not returned.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// NopPublisher discards all events
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) {}
