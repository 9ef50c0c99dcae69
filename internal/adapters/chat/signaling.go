package chat

import (
	"encoding/json"

	"github.com/teamflow/realtime/internal/domain"
)

// Call-signaling relay. Envelopes are forwarded opaquely: no persistence,
// no parsing of SDP or ICE payloads. When a target participant is named the
// envelope goes only to that principal's connections (multi-party calls);
// without one it is broadcast room-wide (the legacy one-to-one flow).
// Call-end is always broadcast so every participant learns the call ended.

func (ctl *Controller) relay(sess *session, frame []byte, target string) {
	if target != "" {
		ctl.fabric.PublishTargeted(sess.room, frame, domain.UserID(target))
		return
	}
	ctl.fabric.Publish(sess.room, frame)
}

func (ctl *Controller) handleCallOffer(sess *session, f callOfferFrame) {
	frame, ok := encode(struct {
		Type       string `json:"type"`
		SignalType string `json:"signal_type"`
		SDP        string `json:"sdp"`
		UserID     string `json:"userId"`
		Target     string `json:"targetParticipantId,omitempty"`
		AudioOnly  bool   `json:"isAudioOnly"`
	}{
		Type:       "webrtc_signal",
		SignalType: "call_offer",
		SDP:        f.SDP,
		UserID:     f.UserID,
		Target:     f.Target,
		AudioOnly:  f.AudioOnly,
	})
	if !ok {
		return
	}
	ctl.relay(sess, frame, f.Target)
}

func (ctl *Controller) handleCallAnswer(sess *session, f callAnswerFrame) {
	frame, ok := encode(struct {
		Type       string `json:"type"`
		SignalType string `json:"signal_type"`
		SDP        string `json:"sdp"`
		UserID     string `json:"userId"`
		Target     string `json:"targetParticipantId,omitempty"`
	}{
		Type:       "webrtc_signal",
		SignalType: "call_answer",
		SDP:        f.SDP,
		UserID:     f.UserID,
		Target:     f.Target,
	})
	if !ok {
		return
	}
	ctl.relay(sess, frame, f.Target)
}

func (ctl *Controller) handleICECandidate(sess *session, f iceCandidateFrame) {
	frame, ok := encode(struct {
		Type       string          `json:"type"`
		SignalType string          `json:"signal_type"`
		Candidate  json.RawMessage `json:"candidate"`
		UserID     string          `json:"userId"`
		Target     string          `json:"targetParticipantId,omitempty"`
	}{
		Type:       "webrtc_signal",
		SignalType: "ice_candidate",
		Candidate:  f.Candidate,
		UserID:     f.UserID,
		Target:     f.Target,
	})
	if !ok {
		return
	}
	ctl.relay(sess, frame, f.Target)
}

func (ctl *Controller) handleCallEnd(sess *session, f callEndFrame) {
	frame, ok := encode(struct {
		Type       string `json:"type"`
		SignalType string `json:"signal_type"`
		UserID     string `json:"userId"`
	}{
		Type:       "webrtc_signal",
		SignalType: "call_end",
		UserID:     f.UserID,
	})
	if !ok {
		return
	}
	ctl.fabric.Publish(sess.room, frame)
}
