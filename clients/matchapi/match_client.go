package matchapi

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/mcdev12/codeduel/clients"
)

// ErrNoMoreQuestions is returned by NextQuestion when the server has
// exhausted the question list for the match. The match is not over
// until the state poll says so.
var ErrNoMoreQuestions = errors.New("no more questions")

// Client is the typed request layer over the duel backend. Every call
// is a single request/response mapping; failures are surfaced as plain
// errors for the caller to absorb or retry on its own schedule.
type Client struct {
	*clients.BaseClient
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	c := &Client{
		BaseClient: clients.NewBaseClient(baseURL),
	}
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	c.SetHeader("Content-Type", "application/json")
	return c
}

// JoinQueue enters the matchmaking queue. The server may answer
// "matched" immediately when it already holds a pending or active
// match for this user.
func (c *Client) JoinQueue(userID int64, kind string) (*QueueResponse, error) {
	req := map[string]any{"user_id": userID, "kind": kind}
	var resp QueueResponse
	if err := c.PostJSON(queueJoinEndpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("join queue: %w", err)
	}
	return &resp, nil
}

func (c *Client) CheckQueue(userID int64) (*QueueResponse, error) {
	q := url.Values{"user_id": {strconv.FormatInt(userID, 10)}}
	var resp QueueResponse
	if err := c.GetJSON(queueCheckEndpoint+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("check queue: %w", err)
	}
	return &resp, nil
}

func (c *Client) LeaveQueue(userID int64) error {
	req := map[string]any{"user_id": userID}
	if err := c.PostJSON(queueLeaveEndpoint, req, nil); err != nil {
		return fmt.Errorf("leave queue: %w", err)
	}
	return nil
}

func (c *Client) MatchState(matchID, userID int64) (*MatchStateResponse, error) {
	q := url.Values{
		"match_id": {strconv.FormatInt(matchID, 10)},
		"user_id":  {strconv.FormatInt(userID, 10)},
	}
	var resp MatchStateResponse
	if err := c.GetJSON(matchStateEndpoint+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("match state: %w", err)
	}
	return &resp, nil
}

func (c *Client) SetReady(matchID, userID int64, ready bool) error {
	req := map[string]any{"match_id": matchID, "user_id": userID, "ready": ready}
	if err := c.PostJSON(matchReadyEndpoint, req, nil); err != nil {
		return fmt.Errorf("set ready: %w", err)
	}
	return nil
}

// CurrentQuestion fetches the question currently posed in the match.
func (c *Client) CurrentQuestion(matchID int64) (*QuestionResponse, error) {
	q := url.Values{"match_id": {strconv.FormatInt(matchID, 10)}}
	var resp QuestionResponse
	if err := c.GetJSON(matchQuestionEndpoint+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("current question: %w", err)
	}
	if resp.NoMoreQuestions {
		return nil, ErrNoMoreQuestions
	}
	return &resp, nil
}

// NextQuestion advances this user to the next question. Returns
// ErrNoMoreQuestions once the list is exhausted.
func (c *Client) NextQuestion(matchID, userID int64) (*QuestionResponse, error) {
	req := map[string]any{"match_id": matchID, "user_id": userID}
	var resp QuestionResponse
	if err := c.PostJSON(matchNextQuestionEndpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("next question: %w", err)
	}
	if resp.NoMoreQuestions {
		return nil, ErrNoMoreQuestions
	}
	return &resp, nil
}

func (c *Client) SubmitAnswer(matchID, userID, questionID int64, answerIndex int, elapsedMs int64) (*SubmitResponse, error) {
	req := map[string]any{
		"match_id":     matchID,
		"user_id":      userID,
		"question_id":  questionID,
		"answer_index": answerIndex,
		"elapsed_ms":   elapsedMs,
	}
	var resp SubmitResponse
	if err := c.PostJSON(matchSubmitEndpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("submit answer: %w", err)
	}
	return &resp, nil
}

func (c *Client) FinishMatch(matchID int64) error {
	req := map[string]any{"match_id": matchID}
	if err := c.PostJSON(matchFinishEndpoint, req, nil); err != nil {
		return fmt.Errorf("finish match: %w", err)
	}
	return nil
}

func (c *Client) Results(matchID int64) (*ResultsResponse, error) {
	q := url.Values{"match_id": {strconv.FormatInt(matchID, 10)}}
	var resp ResultsResponse
	if err := c.GetJSON(matchResultsEndpoint+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("match results: %w", err)
	}
	return &resp, nil
}

// Leaderboard fetches the top ranked players.
func (c *Client) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	var resp leaderboardResponse
	if err := c.GetJSON(leaderboardEndpoint+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return resp.Items, nil
}
