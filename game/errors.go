package game

import (
	"errors"
	"wordrush/domain"
)

// Validation
var (
	ErrInvalidMode     = errors.New("invalid-mode")
	ErrInvalidRoomName = errors.New("invalid-room-name")
	ErrAnswerTooLong   = errors.New("answer-too-long")
	ErrUnknownMessage  = errors.New("unknown-message")
	ErrBadPayload      = errors.New("bad-payload")
	ErrInviteSelf      = errors.New("invite-self")
	ErrAlreadyMember   = errors.New("already-member")
)

// Authorization
var ErrNotHost = errors.New("not-host")

// Not found
var (
	ErrRoomNotFound    = errors.New("room-not-found")
	ErrNotInRoom       = errors.New("not-in-room")
	ErrPlayerNotOnline = errors.New("player-not-online")
	ErrNoSoloSession   = errors.New("no-solo-session")
	ErrNotConnected    = errors.New("not-connected")
)

// Capacity
var (
	ErrNotEnoughPlayers = errors.New("not-enough-players")
	ErrRoomFull         = errors.New("room-full")
	ErrRoomInGame       = errors.New("room-in-game")
)

var ErrNoContent = errors.New("no-content")

// State
var (
	ErrGameInProgress = errors.New("game-in-progress")
	ErrRoundNotActive = errors.New("round-not-active")
	ErrAlreadyInSolo  = errors.New("already-in-solo")
)

var ErrSendBufferFull = errors.New("send-buffer-full")

var ErrRateLimited = errors.New("rate-limited")

type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindAuthorization      ErrorKind = "authorization"
	KindNotFound           ErrorKind = "not-found"
	KindCapacity           ErrorKind = "capacity"
	KindContentUnavailable ErrorKind = "content-unavailable"
	KindState              ErrorKind = "state"
	KindThrottled          ErrorKind = "throttled"
	KindInternal           ErrorKind = "internal"
)

var kinds = []struct {
	kind ErrorKind
	errs []error
}{
	{KindValidation, []error{ErrInvalidMode, ErrInvalidRoomName, ErrAnswerTooLong, ErrUnknownMessage, ErrBadPayload, ErrInviteSelf, ErrAlreadyMember, domain.ErrUnknownCategory}},
	{KindAuthorization, []error{ErrNotHost}},
	{KindNotFound, []error{ErrRoomNotFound, ErrNotInRoom, ErrPlayerNotOnline, ErrNoSoloSession, ErrNotConnected, domain.ErrUserNotFound}},
	{KindCapacity, []error{ErrNotEnoughPlayers, ErrRoomFull, ErrRoomInGame}},
	{KindContentUnavailable, []error{ErrNoContent}},
	{KindState, []error{ErrGameInProgress, ErrRoundNotActive, ErrAlreadyInSolo}},
	{KindThrottled, []error{ErrRateLimited}},
}

// Kind classifies a game error. Unknown errors are internal.
func Kind(err error) ErrorKind {
	for _, k := range kinds {
		for _, target := range k.errs {
			if errors.Is(err, target) {
				return k.kind
			}
		}
	}
	return KindInternal
}

// code is the kebab-case identifier sent to clients.
func code(err error) string {
	for _, k := range kinds {
		for _, target := range k.errs {
			if errors.Is(err, target) {
				return target.Error()
			}
		}
	}
	return "unknown-error"
}
