package game

import (
	"fmt"
	"time"
	"unicode/utf8"
)

type roundPhase int

const (
	phaseStarting roundPhase = iota
	phaseActive
	phaseSolvedEarly
	phaseTimedOut
	phaseAborted
)

// round is one word to guess. A new value is built for every round.
type round struct {
	seq       int
	answer    string
	hint      string
	image     string
	revealed  map[rune]bool
	remaining int
	phase     roundPhase

	stopTick    func()
	stopAdvance func()
	advanced    bool
}

func (r *round) masked() string {
	return Mask(r.answer, r.revealed)
}

// stopTimers cancels the ticker and any pending advance.
func (r *round) stopTimers() {
	if r.stopTick != nil {
		r.stopTick()
	}
	if r.stopAdvance != nil {
		r.stopAdvance()
	}
}

// roundHooks is implemented by the session owning the rounds. Hooks run on
// the session's actor.
type roundHooks interface {
	onTick(r *round)
	onTimeout(r *round)
	onAdvance()
}

// roundController runs the rounds of one session. Timer callbacks only post
// work tagged with the round seq, so ticks of a finished round are ignored.
type roundController struct {
	act      *actor
	sched    Scheduler
	content  ContentProvider
	duration time.Duration
	reveal   time.Duration
	hooks    roundHooks

	seq     int
	current *round
}

func newRoundController(act *actor, sched Scheduler, content ContentProvider, duration, reveal time.Duration, hooks roundHooks) *roundController {
	return &roundController{
		act:      act,
		sched:    sched,
		content:  content,
		duration: duration,
		reveal:   reveal,
		hooks:    hooks,
	}
}

// start discards the previous round and begins a new one.
func (c *roundController) start(pack string, mode Mode) (*round, error) {
	c.exit(phaseAborted)

	entry, err := c.content.RandomEntry(pack)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoContent, err)
	}

	c.seq++
	r := &round{
		seq:      c.seq,
		phase:    phaseStarting,
		answer:   entry.Word,
		hint:     entry.Meaning,
		image:    entry.Image,
		revealed: map[rune]bool{},
	}
	if mode == ModeReverse {
		r.answer, r.hint = entry.Meaning, entry.Word
	}

	r.remaining = int(c.duration / time.Second)
	r.phase = phaseActive
	seq := r.seq
	r.stopTick = c.sched.Every(time.Second, func() {
		c.act.post(func() { c.tick(seq) })
	})

	c.current = r
	return r, nil
}

func (c *roundController) tick(seq int) {
	r := c.current
	if r == nil || r.seq != seq || r.phase != phaseActive {
		return
	}

	r.remaining--
	c.hooks.onTick(r)

	if r.remaining <= 0 && c.exit(phaseTimedOut) {
		c.hooks.onTimeout(r)
	}
}

// submit checks an answer against the active round. A correct answer ends
// the round; the returned seconds are what was left when it arrived.
func (c *roundController) submit(text string) (Verdict, int, error) {
	r := c.current
	if r == nil || r.phase != phaseActive {
		return VerdictWrong, 0, ErrRoundNotActive
	}
	if utf8.RuneCountInString(text) > maxAnswerLen {
		return VerdictWrong, 0, ErrAnswerTooLong
	}

	v := CheckAnswer(text, r.answer)
	if v == VerdictCorrect {
		c.exit(phaseSolvedEarly)
	}
	return v, r.remaining, nil
}

// scheduleAdvance calls onAdvance once the reveal delay of a finished round
// has passed.
func (c *roundController) scheduleAdvance() {
	r := c.current
	if r == nil || r.phase == phaseActive || r.stopAdvance != nil {
		return
	}
	seq := r.seq
	r.stopAdvance = c.sched.After(c.reveal, func() {
		c.act.post(func() { c.advance(seq) })
	})
}

func (c *roundController) advance(seq int) {
	r := c.current
	if r == nil || r.seq != seq || r.phase == phaseActive || r.advanced {
		return
	}
	r.advanced = true
	c.hooks.onAdvance()
}

// exit is the only way out of a round. Every call cancels the round's
// timers; only the first one leaving the active phase reports true.
// Aborting also forgets the round.
func (c *roundController) exit(to roundPhase) bool {
	r := c.current
	if r == nil {
		return false
	}

	if r.phase == phaseActive || to == phaseAborted {
		r.stopTimers()
	}
	if to == phaseAborted {
		c.current = nil
	}

	if r.phase != phaseActive {
		return false
	}
	r.phase = to
	return true
}
