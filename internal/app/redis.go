package app

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/teamflow/realtime/internal/core"
	"github.com/teamflow/realtime/internal/domain"
)

const channelPrefix = "teamflow.room."

// envelope wraps a frame on the redis wire so an instance can skip its own
// publications when they come back around.
type envelope struct {
	Src    string          `json:"src"`
	Target domain.UserID   `json:"target,omitempty"`
	Frame  json.RawMessage `json:"frame"`
}

// RedisFabric mirrors local publishes onto a per-room redis channel and
// re-injects frames published by other instances, turning the in-process
// registry into a cluster-wide fabric. Join/Leave stay local; membership is
// per instance. The per-room FIFO guarantee holds per instance only.
type RedisFabric struct {
	local    *Registry
	rdb      *redis.Client
	instance string
}

func NewRedisFabric(ctx context.Context, local *Registry, rdb *redis.Client) *RedisFabric {
	f := &RedisFabric{
		local:    local,
		rdb:      rdb,
		instance: uuid.NewString(),
	}
	go f.run(ctx)
	return f
}

func (f *RedisFabric) Join(room domain.RoomID, c core.Conn)  { f.local.Join(room, c) }
func (f *RedisFabric) Leave(room domain.RoomID, c core.Conn) { f.local.Leave(room, c) }

func (f *RedisFabric) Publish(room domain.RoomID, frame core.Frame) {
	f.local.Publish(room, frame)
	f.mirror(room, frame, "")
}

func (f *RedisFabric) PublishTargeted(room domain.RoomID, frame core.Frame, target domain.UserID) {
	f.local.PublishTargeted(room, frame, target)
	f.mirror(room, frame, target)
}

func (f *RedisFabric) mirror(room domain.RoomID, frame core.Frame, target domain.UserID) {
	payload, err := json.Marshal(envelope{Src: f.instance, Target: target, Frame: json.RawMessage(frame)})
	if err != nil {
		log.Error().Err(err).Str("module", "app.redis").Msg("envelope marshal")
		return
	}
	if err := f.rdb.Publish(context.Background(), channelPrefix+string(room), payload).Err(); err != nil {
		log.Warn().Err(err).Str("module", "app.redis").Str("room", string(room)).Msg("mirror publish failed")
	}
}

func (f *RedisFabric) run(ctx context.Context) {
	ps := f.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer ps.Close()

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			f.dispatch(msg)
		}
	}
}

func (f *RedisFabric) dispatch(msg *redis.Message) {
	var env envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		log.Warn().Err(err).Str("module", "app.redis").Msg("bad envelope")
		return
	}
	if env.Src == f.instance {
		return
	}
	room := domain.RoomID(strings.TrimPrefix(msg.Channel, channelPrefix))
	if env.Target != "" {
		f.local.PublishTargeted(room, core.Frame(env.Frame), env.Target)
		return
	}
	f.local.Publish(room, core.Frame(env.Frame))
}
