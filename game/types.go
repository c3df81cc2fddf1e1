package game

import (
	"strings"
	"unicode/utf8"
)

type Mode string

const (
	ModeNormal  Mode = "normal"
	ModeReverse Mode = "reverse"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeNormal, ModeReverse:
		return m, nil
	default:
		return "", ErrInvalidMode
	}
}

type RoomStatus string

const (
	StatusWaiting RoomStatus = "waiting"
	StatusPlaying RoomStatus = "playing"
	StatusEnded   RoomStatus = "ended"
)

const (
	BasePoints    = 100
	WrongPenalty  = 30
	maxNameLength = 30
	maxAnswerLen  = 100
	inboxSize     = 256
)

type Settings struct {
	Mode Mode
	Pack string
}

// SettingsPatch carries the optional fields of a settings update.
type SettingsPatch struct {
	Mode *string `json:"mode"`
	Pack *string `json:"wordPack"`
	Name *string `json:"name"`
}

func validRoomName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return "", ErrInvalidRoomName
	}
	return name, nil
}

// participant is a member of a session.
type participant struct {
	id       string
	username string
	name     string
	conn     Conn
	score    int
}

func (p *participant) send(ev Event) {
	if p.conn == nil {
		return
	}
	// a failing connection is cleaned up by its own pumps.
	_ = p.conn.Send(ev)
}

func (p *participant) standing() Standing {
	return Standing{Id: p.id, Name: p.name, Score: p.score}
}

func addScore(score, delta int) int {
	if score+delta < 0 {
		return 0
	}
	return score + delta
}
