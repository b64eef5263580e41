package wizard

// State is the serializable snapshot of a wizard: the current step and the
// draft it is editing.
type State struct {
	Step  int   `json:"step"`
	Draft Draft `json:"draft"`
}

// Wizard sequences the steps of a layout over one Draft. The current step is
// always within [1, Len()]; moves past either end are ignored.
type Wizard struct {
	steps []Step
	step  int
	draft *Draft
}

// New starts a wizard with an empty draft at step 1. steps must not be empty.
func New(steps []Step) *Wizard {
	return &Wizard{steps: steps, step: 1, draft: &Draft{}}
}

// Restore rebuilds a wizard from a snapshot, clamping an out of range step.
func Restore(steps []Step, st State) *Wizard {
	d := st.Draft
	w := &Wizard{steps: steps, step: st.Step, draft: &d}
	w.step = w.clamp(w.step)
	return w
}

func (w *Wizard) clamp(n int) int {
	if n < 1 {
		return 1
	}
	if n > len(w.steps) {
		return len(w.steps)
	}
	return n
}

// Draft returns the draft being edited. Mutations through the returned
// pointer are visible to the wizard.
func (w *Wizard) Draft() *Draft { return w.draft }

// Step returns the 1-based index of the current step.
func (w *Wizard) Step() int { return w.step }

// Len returns the number of steps in the layout.
func (w *Wizard) Len() int { return len(w.steps) }

// Steps returns the layout.
func (w *Wizard) Steps() []Step { return w.steps }

// Current returns the step being shown.
func (w *Wizard) Current() Step { return w.steps[w.step-1] }

// IsFinal reports whether the current step is the last one, where submission
// replaces advancing.
func (w *Wizard) IsFinal() bool { return w.step == len(w.steps) }

// CanAdvance reports whether Advance would move forward.
func (w *Wizard) CanAdvance() bool {
	if w.IsFinal() {
		return false
	}
	g := w.Current().Guard
	return g == nil || g(w.draft)
}

// Advance moves one step forward if the current step's guard holds.
// It reports whether the step changed.
func (w *Wizard) Advance() bool {
	if !w.CanAdvance() {
		return false
	}
	w.step++
	return true
}

// Retreat moves one step back, stopping at step 1. It reports whether the
// step changed.
func (w *Wizard) Retreat() bool {
	if w.step <= 1 {
		return false
	}
	w.step--
	return true
}

// Ready reports whether every guarded step is satisfied, regardless of the
// current position.
func (w *Wizard) Ready() bool {
	for _, s := range w.steps {
		if s.Guard != nil && !s.Guard(w.draft) {
			return false
		}
	}
	return true
}

// Has reports whether the layout contains the step id.
func (w *Wizard) Has(id string) bool {
	for _, s := range w.steps {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Reset discards the draft and returns to step 1.
func (w *Wizard) Reset() {
	w.step = 1
	w.draft = &Draft{}
}

// State snapshots the wizard.
func (w *Wizard) State() State {
	return State{Step: w.step, Draft: *w.draft}
}
