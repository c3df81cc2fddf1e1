package game

import (
	"wordrush/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SoloSession is a single-player game. Rounds keep coming until one times
// out or the player quits.
type SoloSession struct {
	act     *actor
	rounds  *roundController
	settler *Settler
	onDone  func(*SoloSession)
	logger  zerolog.Logger

	player     participant
	settings   Settings
	roundIndex int
	settled    bool
}

func NewSoloSession(p participant, settings Settings, cfg config.GameConfig, content ContentProvider, sched Scheduler, settler *Settler, onDone func(*SoloSession)) *SoloSession {
	if !content.Has(settings.Pack) {
		settings.Pack = content.DefaultPack()
	}
	if settings.Mode == "" {
		settings.Mode = ModeNormal
	}
	p.score = 0
	s := &SoloSession{
		act:      newActor(inboxSize),
		settler:  settler,
		onDone:   onDone,
		logger:   log.With().Str("solo", p.id).Logger(),
		player:   p,
		settings: settings,
	}
	s.rounds = newRoundController(s.act, sched, content, cfg.RoundDuration, cfg.RevealDelay, s)
	return s
}

func (s *SoloSession) PlayerId() string {
	return s.player.id
}

func (s *SoloSession) Run() {
	s.act.run()
}

// Start begins the first round.
func (s *SoloSession) Start() error {
	var err error
	if !s.act.call(func() { err = s.handleStart() }) {
		return ErrNoSoloSession
	}
	return err
}

func (s *SoloSession) Submit(text string) error {
	var err error
	if !s.act.call(func() { err = s.handleSubmit(text) }) {
		return ErrNoSoloSession
	}
	return err
}

// Quit ends the session and settles the score so far.
func (s *SoloSession) Quit() error {
	if !s.act.call(func() { s.end(ReasonQuit) }) {
		return ErrNoSoloSession
	}
	return nil
}

// Rebind points the session at a new connection of the same player.
func (s *SoloSession) Rebind(conn Conn) error {
	if !s.act.call(func() { s.handleRebind(conn) }) {
		return ErrNoSoloSession
	}
	return nil
}

func (s *SoloSession) roundState(rd *round) Event {
	score := s.player.score
	return Event{Type: EventRoundState, Payload: RoundState{
		Round:         s.roundIndex,
		MaskedAnswer:  rd.masked(),
		Hint:          rd.hint,
		HintImage:     rd.image,
		TimeRemaining: rd.remaining,
		Score:         &score,
	}}
}

func (s *SoloSession) handleStart() error {
	if s.roundIndex > 0 {
		return ErrGameInProgress
	}
	s.logger.Info().Str("pack", s.settings.Pack).Str("mode", string(s.settings.Mode)).Msg("solo session started")
	return s.nextRound()
}

func (s *SoloSession) nextRound() error {
	rd, err := s.rounds.start(s.settings.Pack, s.settings.Mode)
	if err != nil {
		s.logger.Warn().Err(err).Str("pack", s.settings.Pack).Msg("no content for round")
		s.end(ReasonNoContent)
		return err
	}
	s.roundIndex++
	s.player.send(s.roundState(rd))
	return nil
}

func (s *SoloSession) handleRebind(conn Conn) {
	s.player.conn = conn
	if rd := s.rounds.current; rd != nil && rd.phase == phaseActive {
		s.player.send(s.roundState(rd))
	}
}

func (s *SoloSession) handleSubmit(text string) error {
	answer := ""
	if rd := s.rounds.current; rd != nil {
		answer = rd.answer
	}

	verdict, remaining, err := s.rounds.submit(text)
	if err != nil {
		return err
	}

	p := &s.player
	switch verdict {
	case VerdictEmpty:
		p.send(Event{Type: EventAnswerOutcome, Payload: AnswerOutcome{Empty: true, Message: MsgTypeSomething, NewScore: p.score}})

	case VerdictWrong:
		p.score = addScore(p.score, -WrongPenalty)
		p.send(Event{Type: EventAnswerOutcome, Payload: AnswerOutcome{Message: MsgWrong, NewScore: p.score}})

	case VerdictCorrect:
		p.score = addScore(p.score, BasePoints+remaining)
		score := p.score
		p.send(Event{Type: EventAnswerOutcome, Payload: AnswerOutcome{Correct: true, Message: MsgCorrect, NewScore: p.score}})
		p.send(Event{Type: EventRoundEnded, Payload: RoundEnded{RevealedAnswer: answer, SolvedBy: p.name, Score: &score}})
		s.rounds.scheduleAdvance()
	}
	return nil
}

func (s *SoloSession) onTick(rd *round) {
	s.player.send(Event{Type: EventTimerTick, Payload: TimerTick{Seconds: rd.remaining}})
}

func (s *SoloSession) onTimeout(rd *round) {
	score := s.player.score
	s.player.send(Event{Type: EventRoundEnded, Payload: RoundEnded{RevealedAnswer: rd.answer, TimedOut: true, Score: &score}})
	s.end(ReasonTimeUp)
}

func (s *SoloSession) onAdvance() {
	if s.settled {
		return
	}
	// a content failure already ended the session
	_ = s.nextRound()
}

// end settles the session once and stops it.
func (s *SoloSession) end(reason string) {
	if s.settled {
		return
	}
	s.settled = true
	s.rounds.exit(phaseAborted)

	s.settler.SettleSolo(s.player, reason)
	s.logger.Info().Str("reason", reason).Int("rounds", s.roundIndex).Int("score", s.player.score).Msg("solo session ended")

	s.act.stop()
	if s.onDone != nil {
		go s.onDone(s)
	}
}
