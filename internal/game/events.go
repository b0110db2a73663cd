package game

type EventType string

const (
	EventGameCreated    EventType = "gameCreated"
	EventPlayerJoined   EventType = "playerJoined"
	EventGameStarted    EventType = "gameStarted"
	EventNewQuestion    EventType = "newQuestion"
	EventAnswerAccepted EventType = "answerAccepted"
	EventAnswerResult   EventType = "answerResult"
	EventGameFinished   EventType = "gameFinished"
	EventNotice         EventType = "notice"
	EventSessionState   EventType = "sessionState"
)

// Event is the envelope delivered to connected clients.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

type GameCreatedPayload struct {
	Code    string `json:"code"`
	Session View   `json:"session"`
}

type PlayerJoinedPayload struct {
	Code    string   `json:"code"`
	Player  Player   `json:"player"`
	Players []Player `json:"players"`
}

type GameStartedPayload struct {
	Code           string `json:"code"`
	QuestionsCount int    `json:"questions_count"`
	Topic          string `json:"topic,omitempty"`
	Difficulty     string `json:"difficulty,omitempty"`
}

type NewQuestionPayload struct {
	Code            string         `json:"code"`
	Index           int            `json:"index"`
	QuestionsCount  int            `json:"questions_count"`
	Question        PublicQuestion `json:"question"`
	DeadlineSeconds int            `json:"deadline_seconds,omitempty"`
}

type AnswerAcceptedPayload struct {
	Code          string `json:"code"`
	QuestionIndex int    `json:"question_index"`
	PlayerID      string `json:"player_id"`
	Answered      int    `json:"answered"`
	Total         int    `json:"total"`
}

type AnswerResultPayload struct {
	Code               string   `json:"code"`
	QuestionIndex      int      `json:"question_index"`
	CorrectAnswerIndex int      `json:"correct_answer_index"`
	Explanation        string   `json:"explanation,omitempty"`
	CorrectPlayerIDs   []string `json:"correct_player_ids"`
	Players            []Player `json:"players"`
}

type GameFinishedPayload struct {
	Code    string   `json:"code"`
	Players []Player `json:"players"`
}

type NoticePayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Broadcaster fans events out to a session's connections. Implementations
// must not block the caller: events are emitted while the session lock is held.
type Broadcaster interface {
	Broadcast(code string, event Event)
	Notify(code, playerID string, event Event)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, Event)      {}
func (nopBroadcaster) Notify(string, string, Event) {}
