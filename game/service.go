package game

import (
	"context"
	"encoding/json"
	"errors"
	"wordrush/domain"
	"wordrush/logger"

	"github.com/rs/zerolog"
)

// Inbound frame types.
const (
	MsgCreateRoom               = "createRoom"
	MsgJoinRoom                 = "joinRoom"
	MsgJoinRoomByCode           = "joinRoomByCode"
	MsgLeaveRoom                = "leaveRoom"
	MsgUpdateRoomSettings       = "updateRoomSettings"
	MsgStartGame                = "startGame"
	MsgSubmitAnswer             = "submitAnswer"
	MsgQuitRoom                 = "quitRoom"
	MsgStartSinglePlayer        = "startSinglePlayer"
	MsgSubmitSinglePlayerAnswer = "submitSinglePlayerAnswer"
	MsgQuitSinglePlayer         = "quitSinglePlayer"
	MsgInvitePlayer             = "invitePlayer"
	MsgAcceptInvite             = "acceptInvite"
	MsgGetLeaderboard           = "getLeaderboard"
	MsgGetMyStats               = "getMyStats"
)

const (
	LobbyName       = "wordrush"
	LeaderboardSize = 10
	MsgInviteSent   = "invitation sent"
)

type roomRef struct {
	RoomId string `json:"roomId"`
}

type codeRef struct {
	Code string `json:"code"`
}

type settingsUpdate struct {
	RoomId string `json:"roomId"`
	SettingsPatch
}

type answer struct {
	RoomId string `json:"roomId"`
	Text   string `json:"text"`
}

type soloStart struct {
	Mode string `json:"mode"`
	Pack string `json:"wordPack"`
}

type invitation struct {
	RoomId   string `json:"roomId"`
	Username string `json:"username"`
}

type categoryRef struct {
	Category string `json:"category"`
}

type releaser interface {
	CancelAndRelease()
}

// Service turns inbound frames into registry operations and reports the
// outcome to the originating connection.
type Service struct {
	registry *Registry
	store    AccountStore
	content  ContentProvider
	logger   zerolog.Logger
}

func NewService(registry *Registry, store AccountStore, content ContentProvider) *Service {
	return &Service{
		registry: registry,
		store:    store,
		content:  content,
		logger:   logger.Component("game-service"),
	}
}

// Connect registers a fresh connection and greets it with the lobby info.
func (s *Service) Connect(id, username, name string, conn Conn) {
	if old := s.registry.Register(id, username, name, conn); old != nil && old != conn {
		if r, ok := old.(releaser); ok {
			r.CancelAndRelease()
		}
	}
	_ = conn.Send(Event{Type: EventLobbyInfo, Payload: LobbyInfo{
		Name:        LobbyName,
		Packs:       s.content.Packs(),
		DefaultPack: s.content.DefaultPack(),
	}})
	s.logger.Debug().Str("player", id).Msg("player connected")
}

// Disconnect is treated as leaving the room and quitting any solo session.
func (s *Service) Disconnect(id string, conn Conn) {
	s.registry.Unregister(id, conn)
	s.logger.Debug().Str("player", id).Msg("player disconnected")
}

func decode(f Frame, v any) error {
	if len(f.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(f.Payload, v); err != nil {
		return ErrBadPayload
	}
	return nil
}

// Handle applies one inbound frame. Failures are sent back on conn and
// also returned.
func (s *Service) Handle(ctx context.Context, id string, conn Conn, f Frame) error {
	err := s.dispatch(ctx, id, conn, f)
	if err != nil {
		s.logger.Debug().Err(err).Str("player", id).Str("type", f.Type).Msg("request rejected")
	}
	return err
}

func (s *Service) dispatch(ctx context.Context, id string, conn Conn, f Frame) error {
	switch f.Type {
	case MsgCreateRoom:
		_, err := s.registry.CreateRoom(id)
		return s.joinResult(conn, err)

	case MsgJoinRoom, MsgAcceptInvite:
		var req roomRef
		if err := decode(f, &req); err != nil {
			return s.joinResult(conn, err)
		}
		return s.joinResult(conn, s.registry.JoinRoom(id, req.RoomId))

	case MsgJoinRoomByCode:
		var req codeRef
		if err := decode(f, &req); err != nil {
			return s.joinResult(conn, err)
		}
		return s.joinResult(conn, s.registry.JoinRoomByCode(id, req.Code))

	case MsgLeaveRoom, MsgQuitRoom:
		var req roomRef
		if err := decode(f, &req); err != nil {
			return s.fail(conn, err)
		}
		return s.fail(conn, s.registry.LeaveRoom(id, req.RoomId, f.Type == MsgQuitRoom))

	case MsgUpdateRoomSettings:
		var req settingsUpdate
		if err := decode(f, &req); err != nil {
			return s.fail(conn, err)
		}
		return s.fail(conn, s.registry.UpdateSettings(id, req.RoomId, req.SettingsPatch))

	case MsgStartGame:
		var req roomRef
		if err := decode(f, &req); err != nil {
			return s.fail(conn, err)
		}
		return s.fail(conn, s.registry.Start(id, req.RoomId))

	case MsgSubmitAnswer:
		var req answer
		if err := decode(f, &req); err != nil {
			return s.fail(conn, err)
		}
		return s.fail(conn, s.registry.Submit(id, req.RoomId, req.Text))

	case MsgStartSinglePlayer:
		var req soloStart
		if err := decode(f, &req); err != nil {
			return s.fail(conn, err)
		}
		// an omitted mode starts a normal session
		var mode Mode
		if req.Mode != "" {
			m, err := ParseMode(req.Mode)
			if err != nil {
				return s.fail(conn, err)
			}
			mode = m
		}
		return s.fail(conn, s.registry.StartSolo(id, Settings{Mode: mode, Pack: req.Pack}))

	case MsgSubmitSinglePlayerAnswer:
		var req answer
		if err := decode(f, &req); err != nil {
			return s.fail(conn, err)
		}
		return s.fail(conn, s.registry.SubmitSolo(id, req.Text))

	case MsgQuitSinglePlayer:
		return s.fail(conn, s.registry.QuitSolo(id))

	case MsgInvitePlayer:
		var req invitation
		if err := decode(f, &req); err != nil {
			return s.inviteResult(conn, err)
		}
		return s.inviteResult(conn, s.registry.Invite(id, req.RoomId, req.Username))

	case MsgGetLeaderboard:
		var req categoryRef
		if err := decode(f, &req); err != nil {
			return s.fail(conn, err)
		}
		return s.sendLeaderboard(ctx, conn, req.Category)

	case MsgGetMyStats:
		profile, err := s.Stats(ctx, id)
		if err != nil {
			return s.fail(conn, err)
		}
		return conn.Send(Event{Type: EventStatsResult, Payload: profile})

	default:
		return s.fail(conn, ErrUnknownMessage)
	}
}

func (s *Service) fail(conn Conn, err error) error {
	if err == nil {
		return nil
	}
	_ = conn.Send(Event{Type: EventError, Payload: ErrorPayload{Code: code(err), Kind: Kind(err)}})
	return err
}

func (s *Service) joinResult(conn Conn, err error) error {
	if err == nil {
		return nil
	}
	_ = conn.Send(Event{Type: EventRoomJoinError, Payload: RoomJoinError{Reason: code(err)}})
	return err
}

func (s *Service) inviteResult(conn Conn, err error) error {
	if err != nil {
		_ = conn.Send(Event{Type: EventInviteOutcome, Payload: InviteOutcome{Message: code(err)}})
		return err
	}
	_ = conn.Send(Event{Type: EventInviteOutcome, Payload: InviteOutcome{Success: true, Message: MsgInviteSent}})
	return nil
}

func (s *Service) sendLeaderboard(ctx context.Context, conn Conn, category string) error {
	c, err := domain.ParseCategory(category)
	if err != nil {
		return s.fail(conn, err)
	}
	entries, err := s.Leaderboard(ctx, c)
	if err != nil {
		return s.fail(conn, err)
	}
	return conn.Send(Event{Type: EventLeaderboardResult, Payload: LeaderboardResult{Category: c, Entries: entries}})
}

// Leaderboard returns the top entries of a category.
func (s *Service) Leaderboard(ctx context.Context, c domain.Category) ([]domain.LeaderboardEntry, error) {
	entries, err := s.store.TopN(ctx, c, LeaderboardSize)
	if err != nil {
		s.logger.Error().Err(err).Str("category", string(c)).Msg("failed to read leaderboard")
		return nil, err
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return entries, nil
}

func (s *Service) Stats(ctx context.Context, id string) (domain.Profile, error) {
	profile, err := s.store.GetProfile(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		s.logger.Error().Err(err).Str("player", id).Msg("failed to read profile")
	}
	return profile, err
}
