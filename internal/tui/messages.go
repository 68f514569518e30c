package tui

import (
	"github.com/google/uuid"

	"github.com/jonandersen/chicoin/internal/pipeline"
	"github.com/jonandersen/chicoin/internal/workflow"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// Message types for async operations

// LoaderResultMsg carries a finished fetch back to the update loop, where it
// is delivered against the view that is active at that moment.
type LoaderResultMsg struct {
	Delivery pipeline.Delivery
}

// OrderEventMsg resumes the order workflow after a network step.
type OrderEventMsg struct {
	Event workflow.OrderEvent
}

// SimulationEventMsg resumes the simulation workflow.
type SimulationEventMsg struct {
	Event workflow.SimulationEvent
}

// ToastExpiredMsg is scheduled when a toast is pushed and fires at its TTL.
type ToastExpiredMsg struct {
	ID uuid.UUID
}

// BalanceChangedMsg is sent when a deposit or withdrawal completes.
type BalanceChangedMsg struct {
	Kind   BalanceKind
	Result *portalapi.BalanceResult
	Err    error
}

// ComplianceUpdatedMsg is sent when an advisor decision is stored.
type ComplianceUpdatedMsg struct {
	Client portalapi.ClientRecord
	Status portalapi.ComplianceStatus
	Err    error
}
