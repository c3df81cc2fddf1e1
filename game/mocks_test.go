package game

import (
	"context"
	"sync"
	"time"
	"wordrush/config"
	"wordrush/content"
	"wordrush/domain"

	"github.com/stretchr/testify/mock"
)

// --- Scheduler ---

type fakeTask struct {
	every   bool
	delay   time.Duration
	fn      func()
	stopped bool
}

// fakeScheduler only fires tasks when the test says so.
type fakeScheduler struct {
	mu    sync.Mutex
	tasks []*fakeTask
}

func (s *fakeScheduler) add(t *fakeTask) func() {
	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		t.stopped = true
		s.mu.Unlock()
	}
}

func (s *fakeScheduler) Every(interval time.Duration, fn func()) func() {
	return s.add(&fakeTask{every: true, delay: interval, fn: fn})
}

func (s *fakeScheduler) After(delay time.Duration, fn func()) func() {
	return s.add(&fakeTask{delay: delay, fn: fn})
}

func (s *fakeScheduler) live(every bool) []*fakeTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTask
	for _, t := range s.tasks {
		if t.every == every && !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

// tick fires every live periodic task once.
func (s *fakeScheduler) tick() {
	for _, t := range s.live(true) {
		t.fn()
	}
}

// fireAfter fires every pending delayed task.
func (s *fakeScheduler) fireAfter() {
	tasks := s.live(false)
	s.mu.Lock()
	for _, t := range tasks {
		t.stopped = true
	}
	s.mu.Unlock()
	for _, t := range tasks {
		t.fn()
	}
}

func (s *fakeScheduler) liveTickers() int {
	return len(s.live(true))
}

func (s *fakeScheduler) pendingAfters() int {
	return len(s.live(false))
}

// drain runs whatever the actor has queued on the calling goroutine.
func drain(a *actor) {
	for {
		select {
		case fn := <-a.inbox:
			if a.ctx.Err() != nil {
				return
			}
			fn()
		default:
			return
		}
	}
}

// --- Conn ---

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Send(ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) ofType(eventType string) []Event {
	var out []Event
	for _, ev := range r.all() {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) last(eventType string) (Event, bool) {
	evs := r.ofType(eventType)
	if len(evs) == 0 {
		return Event{}, false
	}
	return evs[len(evs)-1], true
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// --- ContentProvider ---

// stubContent hands out the entries of a pack in order, wrapping around.
type stubContent struct {
	mu          sync.Mutex
	packs       map[string][]content.Entry
	defaultPack string
	next        map[string]int
}

func newStubContent(defaultPack string, packs map[string][]content.Entry) *stubContent {
	return &stubContent{packs: packs, defaultPack: defaultPack, next: map[string]int{}}
}

func (c *stubContent) Packs() map[string]string {
	out := map[string]string{}
	for id := range c.packs {
		out[id] = id
	}
	return out
}

func (c *stubContent) Has(packID string) bool {
	_, ok := c.packs[packID]
	return ok
}

func (c *stubContent) DefaultPack() string {
	return c.defaultPack
}

func (c *stubContent) RandomEntry(packID string) (content.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, ok := c.packs[packID]
	if !ok {
		return content.Entry{}, content.ErrUnknownPack
	}
	if len(entries) == 0 {
		return content.Entry{}, content.ErrEmptyPack
	}
	e := entries[c.next[packID]%len(entries)]
	c.next[packID]++
	return e, nil
}

var (
	meo   = content.Entry{Word: "con mèo", Meaning: "animal that says meow", Image: "cat.png"}
	cho   = content.Entry{Word: "con chó", Meaning: "animal that barks"}
	apple = content.Entry{Word: "apple", Meaning: "a red fruit"}
)

func testContent() *stubContent {
	return newStubContent("general", map[string][]content.Entry{
		"general": {meo, apple},
		"animals": {meo, cho},
		"empty":   {},
	})
}

func testGameConfig() config.GameConfig {
	return config.GameConfig{
		MaxRounds:     2,
		MinPlayers:    2,
		MaxPlayers:    3,
		RoundDuration: 30 * time.Second,
		RevealDelay:   3 * time.Second,
	}
}

// --- AccountStore ---

type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) AddScoreDeltas(ctx context.Context, userId string, delta domain.ScoreDelta) error {
	args := m.Called(ctx, userId, delta)
	return args.Error(0)
}

func (m *MockAccountStore) TopN(ctx context.Context, category domain.Category, n int) ([]domain.LeaderboardEntry, error) {
	args := m.Called(ctx, category, n)
	entries, _ := args.Get(0).([]domain.LeaderboardEntry)
	return entries, args.Error(1)
}

func (m *MockAccountStore) GetProfile(ctx context.Context, userId string) (domain.Profile, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).(domain.Profile), args.Error(1)
}

// --- UserGetter ---

type MockUserGetter struct {
	mock.Mock
}

func (m *MockUserGetter) GetUserById(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

// --- Socket ---

type MockWebsocketConnection struct {
	mock.Mock
}

func (m *MockWebsocketConnection) Close() {
	m.Called()
}

func (m *MockWebsocketConnection) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockWebsocketConnection) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockWebsocketConnection) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- FrameHandler ---

type MockFrameHandler struct {
	mock.Mock
}

func (m *MockFrameHandler) Handle(ctx context.Context, id string, conn Conn, f Frame) error {
	args := m.Called(ctx, id, conn, f)
	return args.Error(0)
}

func (m *MockFrameHandler) Disconnect(id string, conn Conn) {
	m.Called(id, conn)
}
