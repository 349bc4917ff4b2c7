package match

// SessionInfo is the read-only session header exposed to renderers.
type SessionInfo struct {
	MatchID          int64
	OpponentID       int64
	OpponentUsername string
	Kind             string
}

// Snapshot is an immutable view of the machine for rendering. All
// reference fields are copies; holding a Snapshot never blocks or
// observes later mutations.
type Snapshot struct {
	State   State
	ErrMsg  string
	Session *SessionInfo

	Ready           ReadyState
	TimeLeftSeconds *int

	Question *Question
	Locked   bool
	Selected int
	Result   *SubmissionResult

	Results *FinalResults
}

// Snapshot returns the current view of the machine.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:           m.state,
		ErrMsg:          m.errMsg,
		Ready:           m.ready,
		TimeLeftSeconds: m.matchClk.TimeLeftSeconds,
		Locked:          m.locked,
		Selected:        m.selected,
		Results:         m.results,
	}
	if m.session != nil {
		snap.Session = &SessionInfo{
			MatchID:          m.session.MatchID,
			OpponentID:       m.session.OpponentID,
			OpponentUsername: m.session.OpponentUsername,
			Kind:             m.session.Kind,
		}
	}
	if m.question != nil {
		q := *m.question
		snap.Question = &q
	}
	if m.result != nil {
		r := *m.result
		snap.Result = &r
	}
	return snap
}

// publishLocked pushes the latest snapshot to the updates channel,
// dropping the previous unread one so the reader always sees the
// newest state.
func (m *Machine) publishLocked() {
	snap := m.snapshotLocked()
	for {
		select {
		case m.updates <- snap:
			return
		default:
		}
		select {
		case <-m.updates:
		default:
		}
	}
}
