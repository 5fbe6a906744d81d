package room

const (
	EventRoomUpdated        = "room:updated"
	EventRoomClosed         = "room:closed"
	EventGameStarted        = "game:started"
	EventQuestOptions       = "game:questOptions"
	EventStateUpdate        = "game:stateUpdate"
	EventPrivateData        = "game:privateData"
	EventActionResult       = "game:actionResult"
	EventGameOver           = "game:over"
	EventPlayerReconnected  = "player:reconnected"
	EventPlayerDisconnected = "player:disconnected"
)

// Broadcaster delivers server pushes. Broadcast reaches every connection in
// the room, SendTo only the connections of one player.
type Broadcaster interface {
	Broadcast(roomCode string, action string, data interface{})
	SendTo(roomCode, playerID string, action string, data interface{})
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, string, interface{})      {}
func (nopBroadcaster) SendTo(string, string, string, interface{}) {}
