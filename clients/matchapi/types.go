package matchapi

// QueueResponse is the shape shared by queue join and queue check.
// Status is "queued"/"waiting" while the server is still pairing, or
// "matched" once an opponent is found, in which case the match fields
// are populated.
type QueueResponse struct {
	Status           string `json:"status"`
	MatchID          int64  `json:"match_id,omitempty"`
	OpponentID       int64  `json:"opponent_id,omitempty"`
	OpponentUsername string `json:"opponent_username,omitempty"`
	Kind             string `json:"kind,omitempty"`
}

// Matched reports whether the server has paired this user.
func (r *QueueResponse) Matched() bool {
	return r.Status == StatusMatched
}

// MatchStateResponse is the authoritative per-tick view of a match.
// CountdownSeconds and TimeLeftSeconds are null until the server arms
// the corresponding clock.
type MatchStateResponse struct {
	Status           string `json:"status"`
	YouReady         bool   `json:"you_ready"`
	OpponentReady    bool   `json:"opponent_ready"`
	CountdownSeconds *int   `json:"countdown_seconds"`
	TimeLeftSeconds  *int   `json:"time_left_seconds"`
}

// QuestionResponse carries one posed question, or the exhaustion
// marker when the question list has run out.
type QuestionResponse struct {
	ID              int64    `json:"id"`
	Kind            string   `json:"kind"`
	Title           string   `json:"title"`
	Descriptor      string   `json:"descriptor"`
	Choices         []string `json:"choices"`
	CorrectIndex    *int     `json:"correct_index,omitempty"`
	NoMoreQuestions bool     `json:"no_more_questions,omitempty"`
}

// SubmitResponse is the outcome of one answer submission.
type SubmitResponse struct {
	Correct      bool `json:"correct"`
	EloDelta     int  `json:"elo_delta"`
	NewElo       *int `json:"new_elo,omitempty"`
	CorrectIndex *int `json:"correct_index,omitempty"`
}

// AnswerRecord is one answered question inside the final results.
type AnswerRecord struct {
	QuestionID int64 `json:"question_id"`
	IsCorrect  bool  `json:"is_correct"`
	ElapsedMs  int64 `json:"elapsed_ms"`
}

// ParticipantResult is one player's side of the final results.
type ParticipantResult struct {
	Username string         `json:"username"`
	Score    int            `json:"score"`
	Answers  []AnswerRecord `json:"answers"`
}

// ResultsResponse is the end-of-match summary for both players.
type ResultsResponse struct {
	P1 ParticipantResult `json:"p1"`
	P2 ParticipantResult `json:"p2"`
}

// LeaderboardEntry is one row of the global ELO ranking.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Elo      int    `json:"elo"`
}

type leaderboardResponse struct {
	Items []LeaderboardEntry `json:"items"`
}
