package chat

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/teamflow/realtime/internal/core"
)

// Inbound frames form a closed set of variants discriminated by the "type"
// field. Anything that fails to decode into one of them is discarded by the
// caller; a misbehaving client must never terminate its own (or anyone
// else's) connection.

var errUnknownFrame = errors.New("unknown frame type")

type inboundFrame interface {
	frameType() string
}

type chatMessageFrame struct {
	Content        string `json:"content"`
	Attachment     string `json:"attachment,omitempty"`
	AttachmentType string `json:"attachment_type,omitempty"`
	ReceiverID     string `json:"receiver_id,omitempty"`
}

type markReadFrame struct {
	MessageIDs []string `json:"message_ids"`
	UserID     string   `json:"user_id"`
}

type typingFrame struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsTyping bool   `json:"is_typing"`
}

type callOfferFrame struct {
	SDP       string `json:"sdp"`
	UserID    string `json:"userId"`
	Target    string `json:"targetParticipantId,omitempty"`
	AudioOnly bool   `json:"isAudioOnly,omitempty"`
}

type callAnswerFrame struct {
	SDP    string `json:"sdp"`
	UserID string `json:"userId"`
	Target string `json:"targetParticipantId,omitempty"`
}

type iceCandidateFrame struct {
	// форма кандидата зависит от клиента, пересылаем как есть
	Candidate json.RawMessage `json:"candidate"`
	UserID    string          `json:"userId"`
	Target    string          `json:"targetParticipantId,omitempty"`
}

type callEndFrame struct {
	UserID string `json:"userId"`
}

func (chatMessageFrame) frameType() string  { return "chat_message" }
func (markReadFrame) frameType() string     { return "mark_read" }
func (typingFrame) frameType() string       { return "typing" }
func (callOfferFrame) frameType() string    { return "call_offer" }
func (callAnswerFrame) frameType() string   { return "call_answer" }
func (iceCandidateFrame) frameType() string { return "ice_candidate" }
func (callEndFrame) frameType() string      { return "call_end" }

func decodeFrame(data []byte) (inboundFrame, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Type {
	case "chat_message":
		var f chatMessageFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return f, nil
	case "mark_read":
		var f markReadFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return f, nil
	case "typing":
		var f typingFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return f, nil
	case "call_offer":
		var f callOfferFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return f, nil
	case "call_answer":
		var f callAnswerFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return f, nil
	case "ice_candidate":
		var f iceCandidateFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return f, nil
	case "call_end":
		var f callEndFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, errUnknownFrame
	}
}

// encode marshals an outbound event once so every subscriber gets the same
// bytes in the same order.
func encode(v any) (core.Frame, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "chat").Msg("encode outbound frame")
		return nil, false
	}
	return core.Frame(b), true
}
