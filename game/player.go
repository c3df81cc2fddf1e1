package game

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const sendBufferSize = 256

// Socket is the transport a Player pumps frames through.
type Socket interface {
	Close()
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

// FrameHandler receives what a Player reads off its socket.
type FrameHandler interface {
	Handle(ctx context.Context, id string, conn Conn, f Frame) error
	Disconnect(id string, conn Conn)
}

// Player is one live connection of an identity.
type Player struct {
	id          string
	username    string
	ctx         context.Context
	cancelCtx   context.CancelFunc
	rateLimiter *rate.Limiter
	inbox       chan []byte
	pingChan    chan struct{}
	handler     FrameHandler
}

func NewPlayer(id, username string, handler FrameHandler) *Player {
	ctx, cancel := context.WithCancel(context.Background())
	return &Player{
		id:          id,
		username:    username,
		ctx:         ctx,
		cancelCtx:   cancel,
		rateLimiter: rate.NewLimiter(3, 5),
		inbox:       make(chan []byte, sendBufferSize),
		pingChan:    make(chan struct{}, 1),
		handler:     handler,
	}
}

// Send queues an event for the write pump. It never blocks.
func (p *Player) Send(ev Event) error {
	if p.ctx.Err() != nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case p.inbox <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (p *Player) Ping() {
	select {
	case p.pingChan <- struct{}{}:
	default:
	}
}

// CancelAndRelease stops both pumps. The socket is closed on the way out.
func (p *Player) CancelAndRelease() {
	p.cancelCtx()
}

func limited(frameType string) bool {
	return frameType == MsgSubmitAnswer || frameType == MsgSubmitSinglePlayerAnswer
}

func (p *Player) ReadPump(socket Socket) {
	defer func() {
		p.cancelCtx()
		socket.Close()
		p.handler.Disconnect(p.id, p)
	}()

	for {
		data, err := socket.Read()
		if err != nil || p.ctx.Err() != nil {
			return
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			log.Debug().Str("player", p.id).Msg("dropping malformed frame")
			continue
		}
		if limited(f.Type) && !p.rateLimiter.Allow() {
			_ = p.Send(Event{Type: EventError, Payload: ErrorPayload{Code: code(ErrRateLimited), Kind: Kind(ErrRateLimited)}})
			continue
		}
		// failures were already reported on this connection
		_ = p.handler.Handle(p.ctx, p.id, p, f)
	}
}

func (p *Player) WritePump(socket Socket) {
	defer func() {
		p.cancelCtx()
		socket.Close()
	}()

	for {
		select {
		case <-p.ctx.Done():
			return
		case data, ok := <-p.inbox:
			if !ok {
				return
			}
			if err := socket.Write(data); err != nil {
				return
			}
		case _, ok := <-p.pingChan:
			if !ok {
				return
			}
			if err := socket.Ping(); err != nil {
				return
			}
		}
	}
}
