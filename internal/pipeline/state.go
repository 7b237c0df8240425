package pipeline

// State is the phase of the most recently started refresh.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateNormalizing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateNormalizing:
		return "normalizing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State returns the phase of the most recently started refresh. Ready and
// Failed fall back to Idle once Refresh returns.
func (p *Pipeline) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// setState records a transition unless a newer run already owns the state.
func (p *Pipeline) setState(seq uint64, s State) {
	p.mu.Lock()
	if seq < p.stateSeq {
		p.mu.Unlock()
		return
	}
	p.stateSeq = seq
	p.state = s
	hook := p.onState
	p.mu.Unlock()

	if hook != nil {
		hook(seq, s)
	}
}
