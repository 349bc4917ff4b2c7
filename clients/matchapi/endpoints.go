package matchapi

// Backend routes. Query parameters are appended by the individual
// client methods.
const (
	queueJoinEndpoint  = "/api/queue/join/"
	queueCheckEndpoint = "/api/queue/check/"
	queueLeaveEndpoint = "/api/queue/leave/"

	matchStateEndpoint        = "/api/match/state/"
	matchReadyEndpoint        = "/api/match/ready/"
	matchQuestionEndpoint     = "/api/match/question/"
	matchNextQuestionEndpoint = "/api/match/next-question/"
	matchSubmitEndpoint       = "/api/match/submit/"
	matchFinishEndpoint       = "/api/match/finish/"
	matchResultsEndpoint      = "/api/match/results/"

	leaderboardEndpoint = "/api/leaderboard/"
)

// Match lifecycle statuses reported by the backend.
const (
	StatusQueued   = "queued"
	StatusWaiting  = "waiting"
	StatusMatched  = "matched"
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusFinished = "finished"
)

// Match kinds.
const (
	KindMCQ    = "mcq"
	KindCoding = "coding"
)
