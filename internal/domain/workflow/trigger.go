package workflow

// Trigger represents an operator action that can cause a stage transition
type Trigger string

const (
	TriggerAdvance   Trigger = "ADVANCE"
	TriggerBack      Trigger = "BACK"
	TriggerStartNew  Trigger = "START_NEW"
	TriggerViewBatch Trigger = "VIEW_BATCH"
	TriggerReset     Trigger = "RESET"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
