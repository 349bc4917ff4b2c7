package match

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/codeduel/clients/matchapi"
	"github.com/mcdev12/codeduel/internal/identity"
)

// MatchAPI is the subset of the backend client the machine drives.
type MatchAPI interface {
	JoinQueue(userID int64, kind string) (*matchapi.QueueResponse, error)
	CheckQueue(userID int64) (*matchapi.QueueResponse, error)
	LeaveQueue(userID int64) error
	MatchState(matchID, userID int64) (*matchapi.MatchStateResponse, error)
	SetReady(matchID, userID int64, ready bool) error
	CurrentQuestion(matchID int64) (*matchapi.QuestionResponse, error)
	NextQuestion(matchID, userID int64) (*matchapi.QuestionResponse, error)
	SubmitAnswer(matchID, userID, questionID int64, answerIndex int, elapsedMs int64) (*matchapi.SubmitResponse, error)
	FinishMatch(matchID int64) error
	Results(matchID int64) (*matchapi.ResultsResponse, error)
}

// Config holds the machine's scheduling policy.
type Config struct {
	QueueInterval time.Duration
	MatchInterval time.Duration
	Kind          string
}

const (
	defaultQueueInterval = 1500 * time.Millisecond
	defaultMatchInterval = 800 * time.Millisecond
)

// Machine owns the session record and all transitions between
// Idle, Queued, Matched, Active, Finished and Error. Poll ticks, user
// actions and question-loop callbacks all funnel through the one
// mutex, so no two events mutate the session concurrently. Network
// calls are made outside the lock and their effects re-validated
// against the current match id before being applied.
type Machine struct {
	api      MatchAPI
	poller   *Poller
	clock    clockwork.Clock
	cfg      Config
	ident    identity.Identity
	instance string

	mu       sync.Mutex
	state    State
	errMsg   string
	session  *MatchSession
	ready    ReadyState
	matchClk ClockState
	question    *Question
	locked      bool
	selected    int
	shownAt     time.Time
	result      *SubmissionResult
	nextPending bool
	results     *FinalResults

	updates chan Snapshot
}

func NewMachine(api MatchAPI, ident identity.Identity, cfg Config, clock clockwork.Clock) *Machine {
	if cfg.QueueInterval <= 0 {
		cfg.QueueInterval = defaultQueueInterval
	}
	if cfg.MatchInterval <= 0 {
		cfg.MatchInterval = defaultMatchInterval
	}
	if cfg.Kind == "" {
		cfg.Kind = matchapi.KindMCQ
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Machine{
		api:      api,
		poller:   NewPoller(clock),
		clock:    clock,
		cfg:      cfg,
		ident:    ident,
		instance: uuid.New().String()[:8],
		state:    StateIdle,
		selected: -1,
		updates:  make(chan Snapshot, 1),
	}
}

// Updates delivers the latest snapshot after each transition. The
// channel coalesces: a slow reader only ever sees the newest state.
func (m *Machine) Updates() <-chan Snapshot {
	return m.updates
}

// Start moves the machine out of Idle: it verifies the identity, joins
// the queue, and either enters Matched immediately (the server reuses
// an existing match) or begins queue polling.
func (m *Machine) Start() {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return
	}
	if !m.ident.Present() {
		m.state = StateError
		m.errMsg = "no user identity; log in first"
		m.publishLocked()
		m.mu.Unlock()
		log.Error().Str("instance", m.instance).Msg("cannot start without identity")
		return
	}
	m.state = StateQueued
	m.publishLocked()
	m.mu.Unlock()

	resp, err := m.api.JoinQueue(m.ident.UserID, m.cfg.Kind)
	if err != nil {
		m.mu.Lock()
		m.state = StateError
		m.errMsg = "could not reach the server to join the queue"
		m.publishLocked()
		m.mu.Unlock()
		log.Error().Err(err).Str("instance", m.instance).Msg("join queue failed")
		return
	}

	if resp.Matched() {
		m.enterMatched(resp)
		return
	}

	log.Info().
		Str("instance", m.instance).
		Int64("user_id", m.ident.UserID).
		Str("kind", m.cfg.Kind).
		Msg("queued; waiting for an opponent")
	m.poller.Start(PollQueue, m.cfg.QueueInterval, m.pollQueue)
}

// Teardown stops all polling and, when still queued, tells the server
// to drop us from the queue (best effort).
func (m *Machine) Teardown() {
	m.poller.StopAll()

	m.mu.Lock()
	wasQueued := m.state == StateQueued
	if m.state != StateFinished && m.state != StateError {
		m.state = StateIdle
	}
	userID := m.ident.UserID
	m.mu.Unlock()

	if wasQueued {
		if err := m.api.LeaveQueue(userID); err != nil {
			log.Debug().Err(err).Str("instance", m.instance).Msg("leave queue failed; ignoring")
		}
	}
}

// pollQueue is one queue-status tick.
func (m *Machine) pollQueue() {
	m.mu.Lock()
	if m.state != StateQueued {
		m.mu.Unlock()
		return
	}
	userID := m.ident.UserID
	m.mu.Unlock()

	resp, err := m.api.CheckQueue(userID)
	if err != nil {
		log.Debug().Err(err).Str("instance", m.instance).Msg("queue poll failed; retrying next tick")
		return
	}
	if resp.Matched() {
		m.enterMatched(resp)
	}
}

// enterMatched installs a new session and switches polling from the
// queue to the match. Safe to call twice with the same match id.
func (m *Machine) enterMatched(resp *matchapi.QueueResponse) {
	m.mu.Lock()
	if m.session != nil && m.session.MatchID == resp.MatchID {
		m.mu.Unlock()
		return
	}
	kind := resp.Kind
	if kind == "" {
		kind = m.cfg.Kind
	}
	m.session = &MatchSession{
		MatchID:          resp.MatchID,
		OpponentID:       resp.OpponentID,
		OpponentUsername: resp.OpponentUsername,
		Kind:             kind,
	}
	m.state = StateMatched
	m.ready = ReadyState{}
	m.matchClk = ClockState{}
	m.question = nil
	m.locked = false
	m.selected = -1
	m.result = nil
	m.nextPending = false
	m.results = nil
	m.publishLocked()
	m.mu.Unlock()

	log.Info().
		Str("instance", m.instance).
		Int64("match_id", resp.MatchID).
		Str("opponent", resp.OpponentUsername).
		Str("kind", kind).
		Msg("matched")

	m.poller.Stop(PollQueue)
	m.poller.Start(PollMatch, m.cfg.MatchInterval, m.pollMatch)
}

// pollMatch is one match-status tick.
func (m *Machine) pollMatch() {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return
	}
	matchID := m.session.MatchID
	userID := m.ident.UserID
	m.mu.Unlock()

	st, err := m.api.MatchState(matchID, userID)
	if err != nil {
		log.Debug().Err(err).Str("instance", m.instance).Msg("match poll failed; retrying next tick")
		return
	}
	m.applyMatchState(matchID, st)
}

// applyMatchState folds one authoritative state observation into the
// session. The server's values always overwrite the local copies,
// including any optimistic ready flag still in flight.
func (m *Machine) applyMatchState(matchID int64, st *matchapi.MatchStateResponse) {
	m.mu.Lock()
	if m.session == nil || m.session.MatchID != matchID {
		m.mu.Unlock()
		return
	}

	m.ready.YouReady = st.YouReady
	m.ready.OpponentReady = st.OpponentReady
	m.ready.CountdownSeconds = st.CountdownSeconds
	m.matchClk.TimeLeftSeconds = st.TimeLeftSeconds

	started := st.Status == matchapi.StatusActive ||
		(st.CountdownSeconds != nil && *st.CountdownSeconds == 0)
	finished := st.Status == matchapi.StatusFinished ||
		(st.TimeLeftSeconds != nil && *st.TimeLeftSeconds <= 0)

	switch {
	case m.state == StateActive && finished:
		m.publishLocked()
		m.mu.Unlock()
		m.finish(matchID)
		return
	case m.state == StateMatched && started:
		m.state = StateActive
		m.publishLocked()
		m.mu.Unlock()
		log.Info().Str("instance", m.instance).Int64("match_id", matchID).Msg("match active")
		m.fetchFirstQuestion(matchID)
		return
	default:
		retryNext := m.state == StateActive && m.nextPending
		m.publishLocked()
		m.mu.Unlock()
		if retryNext {
			m.advanceQuestion(matchID)
		}
	}
}

// fetchFirstQuestion loads the opening question, at most once per
// match id. The latch is consumed even on failure: the loop advances
// via NextQuestion only.
func (m *Machine) fetchFirstQuestion(matchID int64) {
	m.mu.Lock()
	if m.session == nil || m.session.MatchID != matchID || m.session.questionFetched {
		m.mu.Unlock()
		return
	}
	m.session.questionFetched = true
	m.mu.Unlock()

	resp, err := m.api.CurrentQuestion(matchID)
	if err != nil {
		log.Warn().Err(err).Str("instance", m.instance).Msg("first question fetch failed")
		return
	}

	m.mu.Lock()
	if m.session != nil && m.session.MatchID == matchID {
		m.installQuestionLocked(resp)
		m.publishLocked()
	}
	m.mu.Unlock()
}

// installQuestionLocked replaces the current question and resets the
// per-question lock, selection, result and elapsed timer.
func (m *Machine) installQuestionLocked(resp *matchapi.QuestionResponse) {
	m.question = questionFromResponse(resp)
	m.locked = false
	m.selected = -1
	m.result = nil
	m.nextPending = false
	m.shownAt = m.clock.Now()
}

// ToggleReady flips the local ready flag optimistically, tells the
// server, and rolls the flag back when the call fails. The next state
// poll overwrites the flag with the server's value either way.
func (m *Machine) ToggleReady() {
	m.mu.Lock()
	if m.state != StateMatched || m.session == nil {
		m.mu.Unlock()
		return
	}
	prev := m.ready.YouReady
	next := !prev
	m.ready.YouReady = next
	matchID := m.session.MatchID
	userID := m.ident.UserID
	m.publishLocked()
	m.mu.Unlock()

	if err := m.api.SetReady(matchID, userID, next); err != nil {
		m.mu.Lock()
		// roll back only if nothing authoritative landed in between
		if m.session != nil && m.session.MatchID == matchID && m.ready.YouReady == next {
			m.ready.YouReady = prev
			m.publishLocked()
		}
		m.mu.Unlock()
		log.Debug().Err(err).Str("instance", m.instance).Msg("set ready failed; reverted local flag")
	}
}

// SelectAnswer submits the chosen index for the current question. A
// second selection while the first is outstanding is a no-op. Play
// always advances: a failed submit is recorded locally as incorrect
// and the next question is requested regardless.
func (m *Machine) SelectAnswer(index int) {
	m.mu.Lock()
	if m.state != StateActive || m.question == nil || m.locked {
		m.mu.Unlock()
		return
	}
	if index < 0 || index >= len(m.question.Choices) {
		m.mu.Unlock()
		return
	}
	m.locked = true
	m.selected = index
	questionID := m.question.ID
	matchID := m.session.MatchID
	userID := m.ident.UserID
	elapsedMs := m.clock.Now().Sub(m.shownAt).Milliseconds()
	m.publishLocked()
	m.mu.Unlock()

	resp, err := m.api.SubmitAnswer(matchID, userID, questionID, index, elapsedMs)

	m.mu.Lock()
	if m.session != nil && m.session.MatchID == matchID &&
		m.question != nil && m.question.ID == questionID {
		if err != nil {
			// score it as a miss locally so the loop never stalls
			m.result = &SubmissionResult{Correct: false}
			log.Warn().Err(err).
				Str("instance", m.instance).
				Int64("question_id", questionID).
				Msg("submit failed; recording as incorrect")
		} else {
			m.result = resultFromResponse(resp)
		}
		m.publishLocked()
	}
	m.mu.Unlock()

	m.advanceQuestion(matchID)
}

// advanceQuestion asks the server for the next question. On
// exhaustion the controller goes quiet and waits for the state poll to
// observe the finish; the client never declares the match over itself.
// A transient failure sets nextPending so the next match-poll tick
// retries instead of leaving the locked question stranded.
func (m *Machine) advanceQuestion(matchID int64) {
	m.mu.Lock()
	if m.session == nil || m.session.MatchID != matchID || m.state != StateActive {
		m.mu.Unlock()
		return
	}
	userID := m.ident.UserID
	m.nextPending = false
	m.mu.Unlock()

	resp, err := m.api.NextQuestion(matchID, userID)
	if errors.Is(err, matchapi.ErrNoMoreQuestions) {
		log.Info().Str("instance", m.instance).Int64("match_id", matchID).
			Msg("question list exhausted; waiting for the server to finish the match")
		return
	}
	if err != nil {
		m.mu.Lock()
		if m.session != nil && m.session.MatchID == matchID && m.state == StateActive {
			m.nextPending = true
		}
		m.mu.Unlock()
		log.Debug().Err(err).Str("instance", m.instance).Msg("next question failed; retrying on the next poll tick")
		return
	}

	m.mu.Lock()
	if m.session != nil && m.session.MatchID == matchID {
		m.installQuestionLocked(resp)
		m.publishLocked()
	}
	m.mu.Unlock()
}

// finish runs the end-of-match sequence at most once per match id:
// stop all polling, tell the server to finish (best effort), fetch the
// results, enter Finished.
func (m *Machine) finish(matchID int64) {
	m.mu.Lock()
	if m.session == nil || m.session.MatchID != matchID || m.session.finishDone {
		m.mu.Unlock()
		return
	}
	m.session.finishDone = true
	m.mu.Unlock()

	m.poller.StopAll()

	if err := m.api.FinishMatch(matchID); err != nil {
		// the server may well have finished the match on its own
		log.Debug().Err(err).Str("instance", m.instance).Msg("finish call failed; ignoring")
	}

	res, err := m.api.Results(matchID)

	m.mu.Lock()
	if err != nil {
		log.Warn().Err(err).Str("instance", m.instance).Msg("results unavailable")
	} else {
		m.results = resultsFromResponse(res)
	}
	m.state = StateFinished
	m.publishLocked()
	m.mu.Unlock()

	log.Info().Str("instance", m.instance).Int64("match_id", matchID).Msg("match finished")
}
