package workflow

import (
	domainwf "github.com/garyjia/liquidagov/internal/domain/workflow"
)

// Guards holds the validation gates of the forward transitions
type Guards struct {
	HasDocuments      domainwf.GuardFunc
	RequiredFields    domainwf.GuardFunc
	LiquidationFields domainwf.GuardFunc
}

// BuildLiquidationStateMachine creates a state machine configured for the liquidation workflow.
// RESET is permitted from every stage; there is no terminal state.
func BuildLiquidationStateMachine(initialState domainwf.State, guards Guards) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateUpload).
		PermitIf(domainwf.TriggerAdvance, domainwf.StateDataEntry, guards.HasDocuments).
		Permit(domainwf.TriggerReset, domainwf.StateUpload)

	builder.Configure(domainwf.StateDataEntry).
		PermitIf(domainwf.TriggerAdvance, domainwf.StateReview, guards.RequiredFields).
		Permit(domainwf.TriggerBack, domainwf.StateUpload).
		Permit(domainwf.TriggerReset, domainwf.StateUpload)

	builder.Configure(domainwf.StateReview).
		PermitIf(domainwf.TriggerAdvance, domainwf.StateCompleted, guards.LiquidationFields).
		Permit(domainwf.TriggerBack, domainwf.StateDataEntry).
		Permit(domainwf.TriggerReset, domainwf.StateUpload)

	builder.Configure(domainwf.StateCompleted).
		Permit(domainwf.TriggerStartNew, domainwf.StateUpload).
		Permit(domainwf.TriggerViewBatch, domainwf.StateBatchView).
		Permit(domainwf.TriggerReset, domainwf.StateUpload)

	builder.Configure(domainwf.StateBatchView).
		Permit(domainwf.TriggerBack, domainwf.StateCompleted).
		Permit(domainwf.TriggerReset, domainwf.StateUpload)

	return builder.Build(initialState)
}
