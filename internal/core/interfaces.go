// Package core declares the transport-agnostic contracts between the
// connection layer and the pub-sub fabric.
package core

import "github.com/teamflow/realtime/internal/domain"

// Frame is an encoded outbound payload, delivered verbatim to subscribers.
type Frame []byte

// Conn is a live subscriber endpoint registered with the fabric.
// Owned by the adapter; the adapter must close it.
type Conn interface {
	PrincipalID() domain.UserID
	TrySend(Frame) error
}

// Fabric is the room-keyed publish/subscribe surface shared by every
// connection in the process (or the cluster, with the redis bridge).
//
// Join is idempotent per connection. Leave is safe to call on a connection
// that was never joined or already left; disconnects race with error paths.
// Publish delivers to every member currently joined, the publisher included.
// PublishTargeted delivers only to connections whose principal matches the
// target; everyone else silently drops the frame. Frames published into one
// room by a single source are delivered in publish order.
type Fabric interface {
	Join(room domain.RoomID, c Conn)
	Leave(room domain.RoomID, c Conn)
	Publish(room domain.RoomID, f Frame)
	PublishTargeted(room domain.RoomID, f Frame, target domain.UserID)
}
