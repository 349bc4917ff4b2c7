package match

import "github.com/mcdev12/codeduel/clients/matchapi"

// State is the client-side phase of the duel flow. The server is the
// single source of truth for match status; State only ever advances on
// an observation from a poll, never on a local guess.
type State int

const (
	StateIdle State = iota
	StateQueued
	StateMatched
	StateActive
	StateFinished
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateQueued:
		return "queued"
	case StateMatched:
		return "matched"
	case StateActive:
		return "active"
	case StateFinished:
		return "finished"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MatchSession is one duel between two identities. It also carries the
// per-match one-shot latches: both reset naturally because a new match
// id always means a fresh MatchSession.
type MatchSession struct {
	MatchID          int64
	OpponentID       int64
	OpponentUsername string
	Kind             string

	questionFetched bool
	finishDone      bool
}

// ReadyState is the mutual readiness gate. YouReady is flipped
// optimistically by the local toggle and overwritten by every state
// poll; OpponentReady and CountdownSeconds are server-only.
type ReadyState struct {
	YouReady         bool
	OpponentReady    bool
	CountdownSeconds *int
}

// ClockState is the match-wide time budget, refreshed every poll tick.
type ClockState struct {
	TimeLeftSeconds *int
}

// Question is one posed item. Replaced wholesale on advance, never
// mutated in place.
type Question struct {
	ID           int64
	Kind         string
	Title        string
	Descriptor   string
	Choices      []string
	CorrectIndex *int
}

// SubmissionResult is the outcome of one answer. Cleared when the next
// question loads.
type SubmissionResult struct {
	Correct      bool
	EloDelta     int
	NewElo       *int
	CorrectIndex *int
}

// AnswerOutcome is one answered question in the final summary.
type AnswerOutcome struct {
	QuestionID int64
	Correct    bool
	ElapsedMs  int64
}

// ParticipantSummary is one player's side of the final results.
type ParticipantSummary struct {
	Username string
	Score    int
	Answers  []AnswerOutcome
}

// FinalResults is the end-of-match summary, fetched at most once per
// match id.
type FinalResults struct {
	P1 ParticipantSummary
	P2 ParticipantSummary
}

func questionFromResponse(resp *matchapi.QuestionResponse) *Question {
	return &Question{
		ID:           resp.ID,
		Kind:         resp.Kind,
		Title:        resp.Title,
		Descriptor:   resp.Descriptor,
		Choices:      resp.Choices,
		CorrectIndex: resp.CorrectIndex,
	}
}

func resultFromResponse(resp *matchapi.SubmitResponse) *SubmissionResult {
	return &SubmissionResult{
		Correct:      resp.Correct,
		EloDelta:     resp.EloDelta,
		NewElo:       resp.NewElo,
		CorrectIndex: resp.CorrectIndex,
	}
}

func resultsFromResponse(resp *matchapi.ResultsResponse) *FinalResults {
	return &FinalResults{
		P1: participantFromResponse(resp.P1),
		P2: participantFromResponse(resp.P2),
	}
}

func participantFromResponse(p matchapi.ParticipantResult) ParticipantSummary {
	out := ParticipantSummary{
		Username: p.Username,
		Score:    p.Score,
		Answers:  make([]AnswerOutcome, 0, len(p.Answers)),
	}
	for _, a := range p.Answers {
		out.Answers = append(out.Answers, AnswerOutcome{
			QuestionID: a.QuestionID,
			Correct:    a.IsCorrect,
			ElapsedMs:  a.ElapsedMs,
		})
	}
	return out
}
