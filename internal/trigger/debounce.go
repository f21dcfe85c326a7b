package trigger

import (
	"time"

	"github.com/tphakala/drivesense/internal/motion"
)

// Action tells the caller what to do with the debounce timer.
type Action int

const (
	ActionNone   Action = iota // leave the timer as it is
	ActionArm                  // (re)start the timer for a new candidate
	ActionCancel               // stop the timer, the candidate was contradicted
)

// Debouncer is the hysteresis filter between raw labels and committed motion
// state. A label different from the current one becomes a candidate; the
// candidate is committed only if Confirm is called before any contradicting
// label arrives. It holds no timers itself.
type Debouncer struct {
	state     motion.DebouncedState
	candidate motion.Label
	pending   bool
}

// NewDebouncer starts in Unknown at the given time.
func NewDebouncer(now time.Time) *Debouncer {
	return &Debouncer{state: motion.DebouncedState{Current: motion.Unknown, Since: now}}
}

// State returns the committed state.
func (d *Debouncer) State() motion.DebouncedState {
	return d.state
}

// Candidate returns the label waiting for confirmation, if any.
func (d *Debouncer) Candidate() (motion.Label, bool) {
	return d.candidate, d.pending
}

// Observe feeds one raw label.
func (d *Debouncer) Observe(label motion.Label) Action {
	switch {
	case label == motion.Unknown:
		return ActionNone
	case label == d.state.Current:
		if d.pending {
			d.pending = false
			d.candidate = motion.Unknown
			return ActionCancel
		}
		return ActionNone
	case d.pending && label == d.candidate:
		return ActionNone
	default:
		d.candidate = label
		d.pending = true
		return ActionArm
	}
}

// Confirm commits the pending candidate.
func (d *Debouncer) Confirm(now time.Time) (motion.LabelTransition, bool) {
	if !d.pending {
		return motion.LabelTransition{}, false
	}
	tr := motion.LabelTransition{From: d.state.Current, To: d.candidate, At: now}
	d.state = motion.DebouncedState{Current: d.candidate, Since: now}
	d.candidate = motion.Unknown
	d.pending = false
	return tr, true
}

// Reset returns to Unknown and drops any candidate.
func (d *Debouncer) Reset(now time.Time) {
	*d = Debouncer{state: motion.DebouncedState{Current: motion.Unknown, Since: now}}
}
