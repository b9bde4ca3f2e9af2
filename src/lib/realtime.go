package lib

import (
	"fmt"
	"log"

	"github.com/zishang520/socket.io/v2/socket"
)

// CanteenRoom is the shared room every canteen-operator connection
// joins; employees each join their own UserRoom.
const CanteenRoom = "canteen_room"

func UserRoom(userID uint) string {
	return fmt.Sprintf("user_%d", userID)
}

// EventEmitter fans a lifecycle event out to every subscriber of a
// room. Delivery is fire-and-forget and at-most-once; the booking row
// stays authoritative and clients re-fetch on reconnect.
type EventEmitter interface {
	Emit(room string, event string, data map[string]any)
}

var emitter EventEmitter = &realtimeEmitter{}

func GetEmitter() EventEmitter {
	return emitter
}

// NewEmitter Replace emitter with custom implementation, used by tests
func NewEmitter(e EventEmitter) EventEmitter {
	emitter = e
	return emitter
}

var socketServer *socket.Server

// SetSocketServer hands the socket.io server to the emitter once the
// router has mounted it.
func SetSocketServer(s *socket.Server) {
	socketServer = s
}

type realtimeEmitter struct{}

func (realtimeEmitter) Emit(room string, event string, data map[string]any) {
	if socketServer != nil {
		if err := socketServer.To(socket.Room(room)).Emit(event, data); err != nil {
			log.Printf("[realtime] Error emitting %s to %s: %s\n", event, room, err.Error())
		}
	}
	if pc := GetPusherClient(); pc != nil {
		if err := pc.Trigger(room, event, data); err != nil {
			log.Printf("[realtime] Error mirroring %s to pusher channel %s: %s\n", event, room, err.Error())
		}
	}
}
