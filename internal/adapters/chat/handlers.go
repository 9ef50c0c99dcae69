package chat

import (
	"github.com/rs/zerolog/log"

	"github.com/teamflow/realtime/internal/domain"
	"github.com/teamflow/realtime/internal/store"
)

// handleFrame decodes one inbound frame and routes it. Malformed JSON and
// unknown types are dropped without closing the connection; that tolerance
// keeps one misbehaving client from taking down the room.
func (ctl *Controller) handleFrame(sess *session, data []byte) {
	frame, err := decodeFrame(data)
	if err != nil {
		log.Debug().Err(err).Str("module", "chat").Str("user", string(sess.principal.ID)).Msg("discarded frame")
		return
	}

	switch f := frame.(type) {
	case chatMessageFrame:
		ctl.handleChatMessage(sess, f)
	case markReadFrame:
		ctl.handleMarkRead(sess, f)
	case typingFrame:
		ctl.handleTyping(sess, f)
	case callOfferFrame:
		ctl.handleCallOffer(sess, f)
	case callAnswerFrame:
		ctl.handleCallAnswer(sess, f)
	case iceCandidateFrame:
		ctl.handleICECandidate(sess, f)
	case callEndFrame:
		ctl.handleCallEnd(sess, f)
	}
}

// handleChatMessage saves first, broadcasts second. If the process dies in
// between, the message survives in storage and a reconnecting client pages
// it through the history endpoint.
func (ctl *Controller) handleChatMessage(sess *session, f chatMessageFrame) {
	if ctl.limiter != nil && !ctl.limiter.Allow(sess.principal.ID) {
		log.Warn().Str("module", "chat").Str("user", string(sess.principal.ID)).Msg("chat message rate limited")
		return
	}

	msg, err := ctl.messages.Save(store.NewMessage{
		RoomID:         sess.room,
		SenderID:       sess.principal.ID,
		Content:        f.Content,
		Attachment:     f.Attachment,
		AttachmentType: f.AttachmentType,
		ReceiverID:     domain.UserID(f.ReceiverID),
	})
	if err != nil {
		log.Error().Err(err).Str("module", "chat").Str("room", string(sess.room)).Msg("save message failed")
		return
	}

	frame, ok := encode(struct {
		Type    string             `json:"type"`
		Message domain.MessageView `json:"message"`
	}{
		Type:    "chat_message",
		Message: msg.View(),
	})
	if !ok {
		return
	}
	ctl.fabric.Publish(sess.room, frame)
}

func (ctl *Controller) handleMarkRead(sess *session, f markReadFrame) {
	updated, err := ctl.messages.MarkRead(f.MessageIDs)
	if err != nil {
		log.Error().Err(err).Str("module", "chat").Str("room", string(sess.room)).Msg("mark read failed")
		return
	}
	if len(updated) == 0 {
		return
	}

	frame, ok := encode(struct {
		Type       string   `json:"type"`
		MessageIDs []string `json:"message_ids"`
		UserID     string   `json:"user_id"`
	}{
		Type:       "messages_read",
		MessageIDs: updated,
		UserID:     f.UserID,
	})
	if !ok {
		return
	}
	ctl.fabric.Publish(sess.room, frame)
}

// Typing indicators are broadcast only, never persisted.
func (ctl *Controller) handleTyping(sess *session, f typingFrame) {
	frame, ok := encode(struct {
		Type     string `json:"type"`
		UserID   string `json:"user_id"`
		Username string `json:"username"`
		IsTyping bool   `json:"is_typing"`
	}{
		Type:     "typing",
		UserID:   f.UserID,
		Username: f.Username,
		IsTyping: f.IsTyping,
	})
	if !ok {
		return
	}
	ctl.fabric.Publish(sess.room, frame)
}
