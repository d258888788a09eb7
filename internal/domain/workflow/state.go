package workflow

// State represents a stage of the liquidation workflow
type State string

const (
	StateUpload    State = "UPLOAD"
	StateDataEntry State = "DATA_ENTRY"
	StateReview    State = "REVIEW"
	StateCompleted State = "COMPLETED"
	StateBatchView State = "BATCH_VIEW"
)

var validStates = map[State]bool{
	StateUpload:    true,
	StateDataEntry: true,
	StateReview:    true,
	StateCompleted: true,
	StateBatchView: true,
}

// stageOrder positions the form stages for progress display; BATCH_VIEW sits outside the form
var stageOrder = map[State]int{
	StateUpload:    1,
	StateDataEntry: 2,
	StateReview:    3,
	StateCompleted: 4,
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}

// Step returns the 1-based position of a form stage, or 0 for states outside the form
func (s State) Step() int {
	return stageOrder[s]
}

// IsEditable reports whether the in-progress record may be changed in this state
func (s State) IsEditable() bool {
	return s == StateUpload || s == StateDataEntry || s == StateReview
}
