package segment

// State is a step of a segmentation run.
type State string

const (
	StateStart    State = "START"
	StateClassify State = "CLASSIFY"
	StateOCRPath  State = "OCR_PATH"
	StateTextPath State = "TEXT_PATH"
	StateSplit    State = "SPLIT"
	StateReport   State = "REPORT"
	StateDone     State = "DONE"
	StateFail     State = "FAIL"
)

// trail records the states a run passed through.
type trail []State

func (t *trail) enter(s State) {
	*t = append(*t, s)
}

func (t trail) strings() []string {
	out := make([]string, len(t))
	for i, s := range t {
		out[i] = string(s)
	}
	return out
}
