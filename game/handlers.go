package game

import (
	"errors"
	"net/http"
	"time"
	"wordrush/domain"
	"wordrush/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var (
	ErrUnauthenticatedStr    = "unauthenticated"
	ErrUserNotFoundStr       = domain.ErrUserNotFound.Error()
	ErrFailedToGetUserStr    = "failed-to-get-user"
	ErrUnknownCategoryStr    = domain.ErrUnknownCategory.Error()
	ErrFailedToGetBoardStr   = "failed-to-get-leaderboard"
	ErrFailedToGetProfileStr = "failed-to-get-profile"
)

const pingInterval = 30 * time.Second

type GameHandler struct {
	service  *Service
	users    UserGetter
	sched    Scheduler
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewGameHandler(service *Service, users UserGetter, sched Scheduler) *GameHandler {
	return &GameHandler{
		service: service,
		users:   users,
		sched:   sched,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origins are checked by the router before any handler runs
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.Component("game-handler"),
	}
}

func (h *GameHandler) currentUser(ctx *gin.Context) (domain.User, bool) {
	id := ctx.GetString("id")
	if id == "" {
		h.logger.Error().Str("ip", ctx.ClientIP()).Msg("id not found in context, is the auth middleware missing?")
		ctx.String(http.StatusUnauthorized, ErrUnauthenticatedStr)
		ctx.Abort()
		return domain.User{}, false
	}

	user, err := h.users.GetUserById(ctx.Request.Context(), id)
	if errors.Is(err, domain.ErrUserNotFound) {
		ctx.String(http.StatusUnauthorized, ErrUserNotFoundStr)
		ctx.Abort()
		return domain.User{}, false
	}
	if err != nil {
		h.logger.Error().Err(err).Str("player", id).Msg("failed to get user")
		ctx.String(http.StatusInternalServerError, ErrFailedToGetUserStr)
		ctx.Abort()
		return domain.User{}, false
	}
	return user, true
}

// WebsocketHandler upgrades an authenticated request and runs the player's
// pumps until the connection goes away.
func (h *GameHandler) WebsocketHandler(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("player", user.Id).Msg("websocket upgrade failed")
		return
	}

	name := user.DisplayName
	if name == "" {
		name = user.Username
	}
	socket := NewGorillaWebSocketWrapper(conn)
	p := NewPlayer(user.Id, name, h.service)
	h.service.Connect(user.Id, user.Username, name, p)

	stopPing := h.sched.Every(pingInterval, p.Ping)
	go p.WritePump(socket)
	go func() {
		defer stopPing()
		p.ReadPump(socket)
	}()
}

func (h *GameHandler) PacksHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, LobbyInfo{
		Name:        LobbyName,
		Packs:       h.service.content.Packs(),
		DefaultPack: h.service.content.DefaultPack(),
	})
}

func (h *GameHandler) LeaderboardHandler(ctx *gin.Context) {
	category, err := domain.ParseCategory(ctx.Param("category"))
	if err != nil {
		ctx.String(http.StatusBadRequest, ErrUnknownCategoryStr)
		return
	}

	entries, err := h.service.Leaderboard(ctx.Request.Context(), category)
	if err != nil {
		ctx.String(http.StatusInternalServerError, ErrFailedToGetBoardStr)
		return
	}
	ctx.JSON(http.StatusOK, LeaderboardResult{Category: category, Entries: entries})
}

func (h *GameHandler) MeHandler(ctx *gin.Context) {
	id := ctx.GetString("id")
	if id == "" {
		ctx.String(http.StatusUnauthorized, ErrUnauthenticatedStr)
		return
	}

	profile, err := h.service.Stats(ctx.Request.Context(), id)
	if errors.Is(err, domain.ErrUserNotFound) {
		ctx.String(http.StatusNotFound, ErrUserNotFoundStr)
		return
	}
	if err != nil {
		ctx.String(http.StatusInternalServerError, ErrFailedToGetProfileStr)
		return
	}
	ctx.JSON(http.StatusOK, profile)
}
