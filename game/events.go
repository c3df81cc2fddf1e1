package game

import (
	"encoding/json"
	"wordrush/domain"
)

// Outbound event types.
const (
	EventLobbyInfo         = "lobbyInfo"
	EventRoomState         = "roomState"
	EventRoomJoinError     = "roomJoinError"
	EventGameStart         = "gameStart"
	EventRoundState        = "roundState"
	EventTimerTick         = "timerTick"
	EventAnswerOutcome     = "answerOutcome"
	EventRoundEnded        = "roundEnded"
	EventGameEnded         = "gameEnded"
	EventGameQuit          = "gameQuit"
	EventInviteReceived    = "inviteReceived"
	EventInviteOutcome     = "inviteOutcome"
	EventLeaderboardResult = "leaderboardResult"
	EventStatsResult       = "statsResult"
	EventError             = "error"
)

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Frame is an inbound message. Payload is decoded according to Type.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type LobbyInfo struct {
	Name        string            `json:"name"`
	Packs       map[string]string `json:"packs"`
	DefaultPack string            `json:"defaultPack"`
}

type MemberView struct {
	Id     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	IsHost bool   `json:"isHost"`
}

type RoomSnapshot struct {
	Id         string       `json:"id"`
	ShortCode  string       `json:"shortCode"`
	Name       string       `json:"name"`
	HostId     string       `json:"hostId"`
	Status     RoomStatus   `json:"status"`
	Mode       Mode         `json:"mode"`
	Pack       string       `json:"pack"`
	Members    []MemberView `json:"members"`
	MaxMembers int          `json:"maxMembers"`
	Round      int          `json:"round"`
	MaxRounds  int          `json:"maxRounds"`
}

type RoundState struct {
	Round         int           `json:"round"`
	MaxRounds     int           `json:"maxRounds,omitempty"`
	MaskedAnswer  string        `json:"maskedAnswer"`
	Hint          string        `json:"hint"`
	HintImage     string        `json:"hintImage,omitempty"`
	TimeRemaining int           `json:"timeRemaining"`
	Score         *int          `json:"score,omitempty"`
	Room          *RoomSnapshot `json:"room,omitempty"`
}

type TimerTick struct {
	Seconds int `json:"seconds"`
}

type AnswerOutcome struct {
	Correct  bool   `json:"correct"`
	Empty    bool   `json:"empty,omitempty"`
	Message  string `json:"message"`
	NewScore int    `json:"newScore"`
}

type RoundEnded struct {
	RevealedAnswer string        `json:"revealedAnswer"`
	TimedOut       bool          `json:"timedOut"`
	SolvedBy       string        `json:"solvedBy,omitempty"`
	Score          *int          `json:"score,omitempty"`
	Room           *RoomSnapshot `json:"room,omitempty"`
}

type Standing struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type GameEnded struct {
	Ranking             []Standing `json:"ranking,omitempty"`
	Winner              string     `json:"winner,omitempty"`
	FinalScore          int        `json:"finalScore"`
	FinalAggregateScore *int       `json:"finalAggregateScore,omitempty"`
	Reason              string     `json:"reason,omitempty"`
}

type GameQuit struct {
	Message string `json:"message"`
}

type RoomJoinError struct {
	Reason string `json:"reason"`
}

type InviteReceived struct {
	RoomId      string `json:"roomId"`
	RoomName    string `json:"roomName"`
	InviterName string `json:"inviterName"`
}

type InviteOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type LeaderboardResult struct {
	Category domain.Category           `json:"category"`
	Entries  []domain.LeaderboardEntry `json:"entries"`
}

type ErrorPayload struct {
	Code string    `json:"code"`
	Kind ErrorKind `json:"kind"`
}

// Reasons attached to a game end.
const (
	ReasonCompleted = "completed"
	ReasonTimeUp    = "time-up"
	ReasonQuit      = "quit"
	ReasonNoContent = "no-content"
)

// Outcome messages.
const (
	MsgCorrect       = "correct"
	MsgWrong         = "wrong"
	MsgTypeSomething = "type something"
)
