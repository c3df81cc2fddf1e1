package game

import (
	"errors"
	"strings"
	"sync"
	"wordrush/config"

	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
	"github.com/rs/zerolog/log"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Registry tracks who is online and which session each identity belongs
// to. Membership changes hold the lock while the room applies them.
type Registry struct {
	mu sync.Mutex

	cfg     config.GameConfig
	content ContentProvider
	sched   Scheduler
	settler *Settler
	newCode func() string

	clients    map[string]participant
	usernames  map[string]string
	membership map[string]*Room
	rooms      map[string]*Room
	codes      map[string]*Room
	solos      map[string]*SoloSession
}

func NewRegistry(cfg config.GameConfig, content ContentProvider, sched Scheduler, settler *Settler) (*Registry, error) {
	gen, err := nanoid.CustomASCII(codeAlphabet, 6)
	if err != nil {
		return nil, err
	}
	return &Registry{
		cfg:        cfg,
		content:    content,
		sched:      sched,
		settler:    settler,
		newCode:    gen,
		clients:    map[string]participant{},
		usernames:  map[string]string{},
		membership: map[string]*Room{},
		rooms:      map[string]*Room{},
		codes:      map[string]*Room{},
		solos:      map[string]*SoloSession{},
	}, nil
}

// Register binds an identity to a connection. The connection it replaces,
// if any, is returned so the caller can close it. name is the display name;
// username is the unique handle invitations are addressed to.
func (reg *Registry) Register(id, username, name string, conn Conn) Conn {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var old Conn
	if prev, ok := reg.clients[id]; ok {
		old = prev.conn
	}
	p := participant{id: id, username: username, name: name, conn: conn}
	reg.clients[id] = p
	reg.usernames[handle(username)] = id

	if r, ok := reg.membership[id]; ok {
		if err := r.Join(p); err != nil {
			delete(reg.membership, id)
		}
	}
	if s, ok := reg.solos[id]; ok {
		if err := s.Rebind(conn); err != nil {
			delete(reg.solos, id)
		}
	}
	return old
}

// Unregister drops an identity whose connection went away. It is a no-op
// when conn was already replaced by a newer one.
func (reg *Registry) Unregister(id string, conn Conn) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	p, ok := reg.clients[id]
	if !ok || p.conn != conn {
		return
	}
	delete(reg.clients, id)
	if reg.usernames[handle(p.username)] == id {
		delete(reg.usernames, handle(p.username))
	}

	if _, ok := reg.membership[id]; ok {
		if err := reg.leave(id, false); err != nil {
			log.Debug().Err(err).Str("player", id).Msg("leave on disconnect")
		}
	}
	if s, ok := reg.solos[id]; ok {
		delete(reg.solos, id)
		// an already finished session has nothing left to settle
		_ = s.Quit()
	}
}

func (reg *Registry) client(id string) (participant, error) {
	p, ok := reg.clients[id]
	if !ok {
		return participant{}, ErrNotConnected
	}
	return p, nil
}

func (reg *Registry) roomOf(id, roomID string) (*Room, error) {
	r, ok := reg.membership[id]
	if !ok || (roomID != "" && r.id != roomID) {
		return nil, ErrNotInRoom
	}
	return r, nil
}

func (reg *Registry) uniqueCode() string {
	for {
		code := reg.newCode()
		if _, taken := reg.codes[code]; !taken {
			return code
		}
	}
}

func (reg *Registry) CreateRoom(id string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	p, err := reg.client(id)
	if err != nil {
		return nil, err
	}
	if _, ok := reg.solos[id]; ok {
		return nil, ErrAlreadyInSolo
	}
	if _, ok := reg.membership[id]; ok {
		if err := reg.leave(id, true); err != nil {
			return nil, err
		}
	}

	r := NewRoom(uuid.NewString(), reg.uniqueCode(), reg.cfg, reg.content, reg.sched, reg.settler, reg.releaseRoom)
	go r.Run()
	if err := r.Join(p); err != nil {
		return nil, err
	}
	reg.rooms[r.id] = r
	reg.codes[r.code] = r
	reg.membership[id] = r
	log.Info().Str("room", r.id).Str("code", r.code).Str("host", id).Msg("room created")
	return r, nil
}

func (reg *Registry) JoinRoom(id, roomID string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	return reg.join(id, r)
}

func (reg *Registry) JoinRoomByCode(id, code string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.codes[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return ErrRoomNotFound
	}
	return reg.join(id, r)
}

func (reg *Registry) join(id string, r *Room) error {
	p, err := reg.client(id)
	if err != nil {
		return err
	}
	if _, ok := reg.solos[id]; ok {
		return ErrAlreadyInSolo
	}

	if err := r.Join(p); err != nil {
		return err
	}
	cur, ok := reg.membership[id]
	reg.membership[id] = r
	if !ok || cur == r {
		return nil
	}

	// the old room is left only once the new one accepted the player
	empty, err := cur.Leave(id, true)
	if empty {
		reg.forget(cur)
	}
	if err != nil {
		log.Warn().Err(err).Str("player", id).Str("room", cur.id).Msg("failed to leave previous room")
	}
	return nil
}

func (reg *Registry) LeaveRoom(id, roomID string, quit bool) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, err := reg.roomOf(id, roomID); err != nil {
		return err
	}
	return reg.leave(id, quit)
}

func (reg *Registry) leave(id string, quit bool) error {
	r := reg.membership[id]
	delete(reg.membership, id)

	empty, err := r.Leave(id, quit)
	if errors.Is(err, ErrRoomNotFound) {
		// the room already ended and its release has not run yet
		reg.forget(r)
		return nil
	}
	if empty {
		reg.forget(r)
	}
	return err
}

// forget removes a room and frees its code. Callers hold the lock.
func (reg *Registry) forget(r *Room) {
	if reg.rooms[r.id] != r {
		return
	}
	delete(reg.rooms, r.id)
	delete(reg.codes, r.code)
	for id, m := range reg.membership {
		if m == r {
			delete(reg.membership, id)
		}
	}
	log.Debug().Str("room", r.id).Str("code", r.code).Msg("room released")
}

func (reg *Registry) releaseRoom(r *Room) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.forget(r)
}

// room looks up the caller's room without holding the lock during the call.
func (reg *Registry) room(id, roomID string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.roomOf(id, roomID)
}

func (reg *Registry) UpdateSettings(id, roomID string, patch SettingsPatch) error {
	r, err := reg.room(id, roomID)
	if err != nil {
		return err
	}
	return r.UpdateSettings(id, patch)
}

func (reg *Registry) Start(id, roomID string) error {
	r, err := reg.room(id, roomID)
	if err != nil {
		return err
	}
	return r.Start(id)
}

func (reg *Registry) Submit(id, roomID, text string) error {
	r, err := reg.room(id, roomID)
	if err != nil {
		return err
	}
	return r.Submit(id, text)
}

func handle(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Invite asks the room to notify an online player found by username.
func (reg *Registry) Invite(id, roomID, username string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, err := reg.roomOf(id, roomID)
	if err != nil {
		return err
	}

	targetID, ok := reg.usernames[handle(username)]
	if !ok {
		return ErrPlayerNotOnline
	}
	if targetID == id {
		return ErrInviteSelf
	}
	return r.Invite(id, reg.clients[targetID])
}

func (reg *Registry) StartSolo(id string, settings Settings) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	p, err := reg.client(id)
	if err != nil {
		return err
	}
	if _, ok := reg.solos[id]; ok {
		return ErrAlreadyInSolo
	}
	if _, ok := reg.membership[id]; ok {
		if err := reg.leave(id, true); err != nil {
			return err
		}
	}

	s := NewSoloSession(p, settings, reg.cfg, reg.content, reg.sched, reg.settler, reg.releaseSolo)
	go s.Run()
	if err := s.Start(); err != nil {
		return err
	}
	reg.solos[id] = s
	return nil
}

func (reg *Registry) solo(id string) (*SoloSession, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	s, ok := reg.solos[id]
	if !ok {
		return nil, ErrNoSoloSession
	}
	return s, nil
}

func (reg *Registry) SubmitSolo(id, text string) error {
	s, err := reg.solo(id)
	if err != nil {
		return err
	}
	return s.Submit(text)
}

func (reg *Registry) QuitSolo(id string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	s, ok := reg.solos[id]
	if !ok {
		return ErrNoSoloSession
	}
	delete(reg.solos, id)
	return s.Quit()
}

func (reg *Registry) releaseSolo(s *SoloSession) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.solos[s.PlayerId()] == s {
		delete(reg.solos, s.PlayerId())
	}
}

// RoomOf returns the id of the caller's room, if any.
func (reg *Registry) RoomOf(id string) (string, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.membership[id]
	if !ok {
		return "", false
	}
	return r.id, true
}

func (reg *Registry) InSolo(id string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	_, ok := reg.solos[id]
	return ok
}
