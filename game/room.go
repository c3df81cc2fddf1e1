package game

import (
	"slices"
	"wordrush/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Room is a multiplayer session. All fields are owned by the room's actor;
// exported methods hand work to it and wait for the result.
type Room struct {
	act     *actor
	rounds  *roundController
	content ContentProvider
	settler *Settler
	onEnded func(*Room)
	logger  zerolog.Logger

	id         string
	code       string
	name       string
	hostID     string
	members    []*participant
	status     RoomStatus
	settings   Settings
	roundIndex int
	maxRounds  int
	minMembers int
	maxMembers int
	settled    bool
}

// NewRoom builds an empty room. The first member to join becomes its host.
// onEnded is called on its own goroutine once the game has been settled.
func NewRoom(id, code string, cfg config.GameConfig, content ContentProvider, sched Scheduler, settler *Settler, onEnded func(*Room)) *Room {
	r := &Room{
		act:        newActor(inboxSize),
		content:    content,
		settler:    settler,
		onEnded:    onEnded,
		logger:     log.With().Str("room", id).Str("code", code).Logger(),
		id:         id,
		code:       code,
		status:     StatusWaiting,
		settings:   Settings{Mode: ModeNormal, Pack: content.DefaultPack()},
		maxRounds:  cfg.MaxRounds,
		minMembers: cfg.MinPlayers,
		maxMembers: cfg.MaxPlayers,
	}
	r.rounds = newRoundController(r.act, sched, content, cfg.RoundDuration, cfg.RevealDelay, r)
	return r
}

func (r *Room) Id() string {
	return r.id
}

func (r *Room) Code() string {
	return r.code
}

// Run processes the room's work until the room is destroyed or ended.
func (r *Room) Run() {
	r.act.run()
}

func (r *Room) Join(p participant) error {
	var err error
	if !r.act.call(func() { err = r.handleJoin(p) }) {
		return ErrRoomNotFound
	}
	return err
}

// Leave removes a member and reports whether the room is now empty and destroyed.
func (r *Room) Leave(id string, quit bool) (bool, error) {
	var empty bool
	var err error
	if !r.act.call(func() { empty, err = r.handleLeave(id, quit) }) {
		return false, ErrRoomNotFound
	}
	return empty, err
}

func (r *Room) UpdateSettings(by string, patch SettingsPatch) error {
	var err error
	if !r.act.call(func() { err = r.handleSettings(by, patch) }) {
		return ErrRoomNotFound
	}
	return err
}

func (r *Room) Start(by string) error {
	var err error
	if !r.act.call(func() { err = r.handleStart(by) }) {
		return ErrRoomNotFound
	}
	return err
}

func (r *Room) Submit(by, text string) error {
	var err error
	if !r.act.call(func() { err = r.handleSubmit(by, text) }) {
		return ErrRoomNotFound
	}
	return err
}

func (r *Room) Invite(by string, target participant) error {
	var err error
	if !r.act.call(func() { err = r.handleInvite(by, target) }) {
		return ErrRoomNotFound
	}
	return err
}

func (r *Room) Snapshot() (*RoomSnapshot, error) {
	var snap *RoomSnapshot
	if !r.act.call(func() { snap = r.snapshot() }) {
		return nil, ErrRoomNotFound
	}
	return snap, nil
}

func (r *Room) member(id string) *participant {
	for _, m := range r.members {
		if m.id == id {
			return m
		}
	}
	return nil
}

func (r *Room) snapshot() *RoomSnapshot {
	snap := &RoomSnapshot{
		Id:         r.id,
		ShortCode:  r.code,
		Name:       r.name,
		HostId:     r.hostID,
		Status:     r.status,
		Mode:       r.settings.Mode,
		Pack:       r.settings.Pack,
		Members:    make([]MemberView, 0, len(r.members)),
		MaxMembers: r.maxMembers,
		Round:      r.roundIndex,
		MaxRounds:  r.maxRounds,
	}
	for _, m := range r.members {
		snap.Members = append(snap.Members, MemberView{Id: m.id, Name: m.name, Score: m.score, IsHost: m.id == r.hostID})
	}
	return snap
}

func (r *Room) broadcast(ev Event) {
	for _, m := range r.members {
		m.send(ev)
	}
}

func (r *Room) broadcastState() {
	r.broadcast(Event{Type: EventRoomState, Payload: r.snapshot()})
}

func (r *Room) roundState(rd *round) Event {
	return Event{Type: EventRoundState, Payload: RoundState{
		Round:         r.roundIndex,
		MaxRounds:     r.maxRounds,
		MaskedAnswer:  rd.masked(),
		Hint:          rd.hint,
		HintImage:     rd.image,
		TimeRemaining: rd.remaining,
		Room:          r.snapshot(),
	}}
}

func (r *Room) handleJoin(p participant) error {
	if existing := r.member(p.id); existing != nil {
		existing.conn = p.conn
		existing.send(Event{Type: EventRoomState, Payload: r.snapshot()})
		if rd := r.rounds.current; rd != nil && rd.phase == phaseActive {
			existing.send(r.roundState(rd))
		}
		return nil
	}

	if r.status != StatusWaiting {
		return ErrRoomInGame
	}
	if len(r.members) >= r.maxMembers {
		return ErrRoomFull
	}

	p.score = 0
	r.members = append(r.members, &p)
	if r.hostID == "" {
		r.hostID = p.id
		r.name = p.name + "'s room"
	}
	r.logger.Debug().Str("player", p.id).Int("members", len(r.members)).Msg("player joined")
	r.broadcastState()
	return nil
}

func (r *Room) handleLeave(id string, quit bool) (bool, error) {
	i := slices.IndexFunc(r.members, func(m *participant) bool { return m.id == id })
	if i < 0 {
		return false, ErrNotInRoom
	}

	left := r.members[i]
	r.members = slices.Delete(r.members, i, i+1)
	if quit && r.status == StatusPlaying {
		left.send(Event{Type: EventGameQuit, Payload: GameQuit{Message: "you left the game"}})
	}
	r.logger.Debug().Str("player", id).Int("members", len(r.members)).Msg("player left")

	if len(r.members) == 0 {
		r.destroy()
		return true, nil
	}

	if r.hostID == id {
		r.hostID = r.members[0].id
	}
	r.broadcastState()
	return false, nil
}

// destroy tears down an empty room without settling it.
func (r *Room) destroy() {
	r.rounds.exit(phaseAborted)
	r.status = StatusEnded
	r.settled = true
	r.act.stop()
	r.logger.Debug().Msg("room destroyed")
}

func (r *Room) authorize(by string) error {
	if r.member(by) == nil {
		return ErrNotInRoom
	}
	if by != r.hostID {
		return ErrNotHost
	}
	if r.status != StatusWaiting {
		return ErrGameInProgress
	}
	return nil
}

func (r *Room) handleSettings(by string, patch SettingsPatch) error {
	if err := r.authorize(by); err != nil {
		return err
	}

	next := r.settings
	name := r.name

	if patch.Mode != nil {
		mode, err := ParseMode(*patch.Mode)
		if err != nil {
			return err
		}
		next.Mode = mode
	}
	if patch.Name != nil {
		n, err := validRoomName(*patch.Name)
		if err != nil {
			return err
		}
		name = n
	}
	if patch.Pack != nil {
		next.Pack = *patch.Pack
		if !r.content.Has(next.Pack) {
			next.Pack = r.content.DefaultPack()
		}
	}

	r.settings = next
	r.name = name
	r.broadcastState()
	return nil
}

func (r *Room) handleStart(by string) error {
	if err := r.authorize(by); err != nil {
		return err
	}
	if len(r.members) < r.minMembers {
		return ErrNotEnoughPlayers
	}

	for _, m := range r.members {
		m.score = 0
	}
	r.status = StatusPlaying
	r.roundIndex = 1
	r.logger.Info().Int("members", len(r.members)).Str("pack", r.settings.Pack).Msg("game started")

	r.broadcast(Event{Type: EventGameStart, Payload: r.snapshot()})
	r.startRound()
	return nil
}

func (r *Room) startRound() {
	rd, err := r.rounds.start(r.settings.Pack, r.settings.Mode)
	if err != nil {
		r.logger.Warn().Err(err).Str("pack", r.settings.Pack).Msg("no content for round")
		r.endGame(ReasonNoContent)
		return
	}
	r.broadcast(r.roundState(rd))
}

func (r *Room) onTick(rd *round) {
	r.broadcast(Event{Type: EventTimerTick, Payload: TimerTick{Seconds: rd.remaining}})
}

func (r *Room) onTimeout(rd *round) {
	r.broadcast(Event{Type: EventRoundEnded, Payload: RoundEnded{
		RevealedAnswer: rd.answer,
		TimedOut:       true,
		Room:           r.snapshot(),
	}})
	r.rounds.scheduleAdvance()
}

func (r *Room) onAdvance() {
	if r.status != StatusPlaying {
		return
	}
	if r.roundIndex < r.maxRounds {
		r.roundIndex++
		r.startRound()
		return
	}
	r.endGame(ReasonCompleted)
}

func (r *Room) handleSubmit(by, text string) error {
	p := r.member(by)
	if p == nil {
		return ErrNotInRoom
	}
	if r.status != StatusPlaying {
		return ErrRoundNotActive
	}

	answer := ""
	if rd := r.rounds.current; rd != nil {
		answer = rd.answer
	}

	verdict, remaining, err := r.rounds.submit(text)
	if err != nil {
		return err
	}

	switch verdict {
	case VerdictEmpty:
		p.send(Event{Type: EventAnswerOutcome, Payload: AnswerOutcome{Empty: true, Message: MsgTypeSomething, NewScore: p.score}})

	case VerdictWrong:
		p.score = addScore(p.score, -WrongPenalty)
		p.send(Event{Type: EventAnswerOutcome, Payload: AnswerOutcome{Message: MsgWrong, NewScore: p.score}})

	case VerdictCorrect:
		p.score = addScore(p.score, BasePoints+remaining)
		p.send(Event{Type: EventAnswerOutcome, Payload: AnswerOutcome{Correct: true, Message: MsgCorrect, NewScore: p.score}})
		r.broadcast(Event{Type: EventRoundEnded, Payload: RoundEnded{
			RevealedAnswer: answer,
			SolvedBy:       p.name,
			Room:           r.snapshot(),
		}})
		r.rounds.scheduleAdvance()
	}
	return nil
}

func (r *Room) handleInvite(by string, target participant) error {
	if err := r.authorize(by); err != nil {
		return err
	}
	if r.member(target.id) != nil {
		return ErrAlreadyMember
	}
	if len(r.members) >= r.maxMembers {
		return ErrRoomFull
	}

	target.send(Event{Type: EventInviteReceived, Payload: InviteReceived{
		RoomId:      r.id,
		RoomName:    r.name,
		InviterName: r.member(by).name,
	}})
	return nil
}

// endGame settles the room once and stops it. Later calls are no-ops.
func (r *Room) endGame(reason string) {
	if r.settled {
		return
	}
	r.settled = true
	r.rounds.exit(phaseAborted)
	r.status = StatusEnded

	members := make([]participant, 0, len(r.members))
	for _, m := range r.members {
		members = append(members, *m)
	}
	r.settler.SettleRoom(r.id, members, reason)
	r.logger.Info().Str("reason", reason).Int("rounds", r.roundIndex).Msg("game ended")

	r.act.stop()
	if r.onEnded != nil {
		go r.onEnded(r)
	}
}
