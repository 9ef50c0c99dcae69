package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/teamflow/realtime/internal/domain"
	"github.com/teamflow/realtime/internal/store"
)

type fakeTokens struct{}

func (fakeTokens) Resolve(token string) *domain.Principal {
	if token == "good" {
		return &domain.Principal{ID: "u1", Name: "Alice Nguyen"}
	}
	return nil
}

type fakeAdmitter struct {
	admit bool
	err   error
}

func (f fakeAdmitter) IsAdmitted(p *domain.Principal, room domain.RoomID) (bool, error) {
	return f.admit, f.err
}

type fakeHistory struct {
	msgs []domain.Message
}

func (f fakeHistory) History(room domain.RoomID, limit int) ([]domain.Message, error) {
	return f.msgs, nil
}

func newTestRouter(admit fakeAdmitter, hist fakeHistory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := NewAPI(fakeTokens{}, admit, hist)
	authed := r.Group("/api")
	authed.Use(TokenMiddleware(fakeTokens{}))
	authed.GET("/rooms/:room/messages", api.RoomMessages)
	return r
}

func TestRoomMessages_RequiresCredential(t *testing.T) {
	r := newTestRouter(fakeAdmitter{admit: true}, fakeHistory{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/rooms/chat_42/messages", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/rooms/chat_42/messages", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("bearer token: status = %d, want 200", w.Code)
	}
}

func TestRoomMessages_AdmissionMirrorsSocket(t *testing.T) {
	tests := []struct {
		name   string
		admit  fakeAdmitter
		status int
	}{
		{"member", fakeAdmitter{admit: true}, http.StatusOK},
		{"outsider", fakeAdmitter{admit: false}, http.StatusForbidden},
		{"missing room", fakeAdmitter{err: store.ErrRoomNotFound}, http.StatusNotFound},
	}
	for _, tt := range tests {
		r := newTestRouter(tt.admit, fakeHistory{})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/rooms/chat_42/messages?token=good", nil)
		r.ServeHTTP(w, req)
		if w.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.name, w.Code, tt.status)
		}
	}
}

func TestRoomMessages_ExpandsSenders(t *testing.T) {
	sender := &domain.User{ID: "u1", FullName: "Alice Nguyen", Role: domain.RoleUser}
	hist := fakeHistory{msgs: []domain.Message{{
		ID:       "msg-1",
		Content:  "hello",
		RoomID:   "42",
		SenderID: "u1",
		Sender:   sender,
		SentAt:   time.Now(),
	}}}
	r := newTestRouter(fakeAdmitter{admit: true}, hist)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/rooms/chat-42/messages?token=good", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body struct {
		Messages []struct {
			ID     string `json:"message_id"`
			SentBy struct {
				FullName string `json:"full_name"`
			} `json:"sent_by"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Messages) != 1 {
		t.Fatalf("returned %d messages, want 1", len(body.Messages))
	}
	if body.Messages[0].SentBy.FullName != "Alice Nguyen" {
		t.Error("sender not expanded in history payload")
	}
}
