package chat

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/teamflow/realtime/internal/core"
	"github.com/teamflow/realtime/internal/domain"
	"github.com/teamflow/realtime/internal/store"
)

// Close codes returned on admission failure. Distinct so a client can tell
// "retry with different room" from "go log in" from "give up".
const (
	CloseInvalidCredential = 4001
	CloseForbidden         = 4003
	CloseRoomNotFound      = 4004
	CloseInternalError     = 4500
)

// Admitter decides whether a principal may enter a room.
type Admitter interface {
	IsAdmitted(p *domain.Principal, room domain.RoomID) (bool, error)
}

// MessageGateway durably stores chat messages and flips read flags.
type MessageGateway interface {
	Save(m store.NewMessage) (*domain.Message, error)
	MarkRead(ids []string) ([]string, error)
}

// CredentialResolver resolves a handshake token; nil means anonymous.
type CredentialResolver interface {
	Resolve(token string) *domain.Principal
}

// Options carries the transport tunables the pumps need.
type Options struct {
	ReadLimit    int64
	PingPeriod   time.Duration
	WriteTimeout time.Duration
	SendBuffer   int
}

type Controller struct {
	fabric   core.Fabric
	rooms    Admitter
	messages MessageGateway
	tokens   CredentialResolver
	limiter  *RateLimiter
	opts     Options
}

func NewController(fabric core.Fabric, rooms Admitter, messages MessageGateway, tokens CredentialResolver, limiter *RateLimiter, opts Options) *Controller {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 32
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 54 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	return &Controller{
		fabric:   fabric,
		rooms:    rooms,
		messages: messages,
		tokens:   tokens,
		limiter:  limiter,
		opts:     opts,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// session is one admitted connection's state, threaded through every
// handler instead of living in ambient globals.
type session struct {
	conn      *wsConn
	principal domain.Principal
	room      domain.RoomID
	cancel    context.CancelFunc
}

// HandleChat runs the handshake: resolve the token from the query string
// (browser socket APIs cannot set headers), normalize the room key, check
// admission, then register with the fabric and start the pumps. Each
// failure path closes with its own code and never reaches the registry.
func (ctl *Controller) HandleChat(ctx context.Context, c *gin.Context) {
	rawRoom := c.Param("room")
	principal := ctl.tokens.Resolve(c.Query("token"))

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "chat").Msg("ws upgrade")
		return
	}

	if principal == nil {
		log.Info().Str("module", "chat").Str("room", rawRoom).Msg("rejected: no valid credential")
		reject(ws, CloseInvalidCredential, "invalid credential")
		return
	}

	room, err := domain.ParseRoomKey(rawRoom)
	if err != nil {
		reject(ws, CloseRoomNotFound, "room not found")
		return
	}

	admitted, err := ctl.rooms.IsAdmitted(principal, room)
	switch {
	case err == nil && admitted:
	case err == nil:
		log.Info().Str("module", "chat").Str("room", string(room)).Str("user", string(principal.ID)).Msg("rejected: not a member")
		reject(ws, CloseForbidden, "not a member")
		return
	case isRoomNotFound(err):
		log.Info().Str("module", "chat").Str("room", string(room)).Msg("rejected: room not found")
		reject(ws, CloseRoomNotFound, "room not found")
		return
	default:
		log.Error().Err(err).Str("module", "chat").Str("room", string(room)).Msg("admission check failed")
		reject(ws, CloseInternalError, "internal error")
		return
	}

	conn := newWSConn(ws, *principal, ctl.opts.SendBuffer)
	ctx, cancel := context.WithCancel(ctx)
	sess := &session{conn: conn, principal: *principal, room: room, cancel: cancel}

	ctl.fabric.Join(room, conn)
	log.Info().Str("module", "chat").Str("room", string(room)).Str("user", string(principal.ID)).Msg("connection admitted")

	ctl.broadcastPresence(sess, "user_joined")

	// forced closure (shutdown, admission revocation) must unblock the
	// pending read; closing the socket is what releases readPump
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sess)
}

// teardown runs exactly once per connection on entry to the closed state.
func (ctl *Controller) teardown(sess *session) {
	sess.cancel()
	ctl.fabric.Leave(sess.room, sess.conn)
	sess.conn.Close()
	ctl.broadcastPresence(sess, "user_left")
	log.Info().Str("module", "chat").Str("room", string(sess.room)).Str("user", string(sess.principal.ID)).Msg("connection closed")
}

func (ctl *Controller) broadcastPresence(sess *session, event string) {
	frame, ok := encode(struct {
		Type string            `json:"type"`
		User domain.PublicUser `json:"user"`
	}{
		Type: event,
		User: domain.PublicUser{ID: sess.principal.ID, FullName: sess.principal.Name},
	})
	if !ok {
		return
	}
	ctl.fabric.Publish(sess.room, frame)
}

func reject(ws *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	_ = ws.Close()
}

func isRoomNotFound(err error) bool {
	return errors.Is(err, store.ErrRoomNotFound)
}
