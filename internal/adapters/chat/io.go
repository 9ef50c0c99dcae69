package chat

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// writePump is the single owner of the socket's write side. It drains the
// send queue and pings on a timer; a peer that stops answering trips the
// read deadline in readPump.
func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "chat").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "chat").Msg("writePump channel closed")
				return
			}
			if err := c.ws.SetWriteDeadline(time.Now().Add(ctl.opts.WriteTimeout)); err != nil {
				log.Error().Err(err).Str("module", "chat").Msg("writePump set deadline")
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "chat").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteTimeout)); err != nil {
				log.Warn().Err(err).Str("module", "chat").Msg("writePump ping error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, sess *session) {
	defer ctl.teardown(sess)

	pongWait := ctl.opts.PingPeriod * 10 / 9
	c := sess.conn
	if ctl.opts.ReadLimit > 0 {
		c.ws.SetReadLimit(ctl.opts.ReadLimit)
	}
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "chat").Str("user", string(sess.principal.ID)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.ws.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "chat").Str("user", string(sess.principal.ID)).Msg("readPump read error")
				return
			}
			ctl.handleFrame(sess, data)
		}
	}
}
