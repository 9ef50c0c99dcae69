package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/teamflow/realtime/internal/adapters/chat"
	"github.com/teamflow/realtime/internal/domain"
	"github.com/teamflow/realtime/internal/store"
)

// HistoryReader pages a room's persisted messages newest-first.
type HistoryReader interface {
	History(room domain.RoomID, limit int) ([]domain.Message, error)
}

type API struct {
	tokens   chat.CredentialResolver
	rooms    chat.Admitter
	messages HistoryReader
}

func NewAPI(tokens chat.CredentialResolver, rooms chat.Admitter, messages HistoryReader) *API {
	return &API{tokens: tokens, rooms: rooms, messages: messages}
}

// RoomMessages serves the catch-up read a reconnecting realtime client
// performs; the same admission rule as the websocket handshake applies.
func (a *API) RoomMessages(c *gin.Context) {
	principal := c.MustGet("principal").(*domain.Principal)

	room, err := domain.ParseRoomKey(c.Param("room"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	admitted, err := a.rooms.IsAdmitted(principal, room)
	switch {
	case errors.Is(err, store.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	case !admitted:
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	msgs, err := a.messages.History(room, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	views := make([]domain.MessageView, 0, len(msgs))
	for i := range msgs {
		views = append(views, msgs[i].View())
	}
	c.JSON(http.StatusOK, gin.H{"messages": views})
}
