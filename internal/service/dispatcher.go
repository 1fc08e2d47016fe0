package service

import (
	"log"
	"sync"
	"time"

	"jobboard/internal/models"
	"jobboard/internal/repository"
	"jobboard/pkg/errors"
)

// Dispatcher persists outgoing messages and broadcasts them to the room.
// A per-room mutex makes persist-then-enqueue a single ordered step, so every
// session observes one room's messages in persistence order.
type Dispatcher struct {
	registry *Registry
	rooms    repository.RoomRepository
	messages repository.MessageRepository

	mu        sync.Mutex
	roomLocks map[uint]*sync.Mutex
}

func NewDispatcher(registry *Registry, rooms repository.RoomRepository, messages repository.MessageRepository) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		rooms:     rooms,
		messages:  messages,
		roomLocks: make(map[uint]*sync.Mutex),
	}
}

// Send validates, persists and broadcasts one message. Nothing is broadcast
// unless the store accepted it first; a store failure surfaces as Failed with
// no partial write visible. The sender receives the broadcast too, carrying
// the authoritative id and timestamp.
func (d *Dispatcher) Send(sessionID string, req SendMessageRequest) (*models.ChatMessage, error) {
	session := d.registry.Lookup(sessionID)
	if session == nil {
		return nil, errors.Unauthenticated("not authenticated")
	}
	if req.RoomID == 0 || req.Content == "" {
		return nil, errors.InvalidRequest("room_id and content required")
	}
	if !d.registry.IsJoined(sessionID, req.RoomID) {
		return nil, errors.NotInRoom("not in this room")
	}

	message := &models.ChatMessage{
		RoomID:      req.RoomID,
		SenderID:    session.Identity.UserID,
		ReceiverID:  req.ReceiverID,
		Content:     req.Content,
		MessageType: models.MessageText,
	}
	if err := d.persistAndBroadcast(message); err != nil {
		return nil, err
	}
	return message, nil
}

// SendSystem persists and broadcasts a room-wide system notice.
func (d *Dispatcher) SendSystem(roomID uint, content string) error {
	if roomID == 0 || content == "" {
		return errors.InvalidRequest("room_id and content required")
	}
	return d.persistAndBroadcast(models.NewSystemMessage(roomID, content))
}

func (d *Dispatcher) persistAndBroadcast(message *models.ChatMessage) error {
	lock := d.roomLock(message.RoomID)
	lock.Lock()
	defer lock.Unlock()

	message.Timestamp = time.Now()
	if err := d.messages.Create(message); err != nil {
		return errors.Failed("failed to send message", err)
	}
	if err := d.rooms.TouchLastMessage(message.RoomID, message.Timestamp); err != nil {
		// Message is durable; a stale last_message_at only skews room sorting.
		log.Printf("touch last_message_at for room %d: %v", message.RoomID, err)
	}

	d.registry.Broadcast(message.RoomID, &ServerEvent{
		Event: EventNewMessage,
		Data:  NewMessagePayload(message),
	}, "")
	return nil
}

func (d *Dispatcher) roomLock(roomID uint) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock, ok := d.roomLocks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		d.roomLocks[roomID] = lock
	}
	return lock
}
