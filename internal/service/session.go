package service

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"jobboard/internal/models"
	"jobboard/pkg/errors"
)

const (
	readLimit  = 4096
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// ChatService is the chat core behind one websocket endpoint: registry,
// membership coordinator, message dispatcher and presence fan-out.
type ChatService struct {
	Registry    *Registry
	Coordinator *Coordinator
	Dispatcher  *Dispatcher
	Presence    *Presence
}

// ServeSession drives an authenticated connection until it drops, then tears
// the session down. Deregistration runs exactly once no matter how the
// connection ends: voluntary close, read timeout or transport failure.
func (s *ChatService) ServeSession(conn *websocket.Conn, session *Session) {
	defer func() {
		s.Registry.Deregister(session.ID)
		conn.Close()
	}()

	go writePump(conn, session)
	s.readPump(conn, session)
}

// readPump reads client frames until the connection fails. Malformed frames
// and rejected operations answer with an error event on this session only;
// they never end the connection.
func (s *ChatService) readPump(conn *websocket.Conn, session *Session) {
	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket unexpected close error: %v", err)
			}
			break
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			session.enqueue(errorEvent(errors.InvalidRequest("malformed event")))
			continue
		}
		s.dispatch(session, env)
	}
}

// dispatch decodes the typed payload for the named event and runs it.
func (s *ChatService) dispatch(session *Session, env Envelope) {
	var err error

	switch env.Event {
	case EventJoinRoom:
		var req JoinRoomRequest
		if err = decodePayload(env.Data, &req); err == nil {
			var room *models.ChatRoom
			var history []models.ChatMessage
			if room, history, err = s.Coordinator.Join(session.ID, req); err == nil {
				session.enqueue(&ServerEvent{
					Event: EventChatHistory,
					Data:  ChatHistoryPayload{RoomID: room.ID, Messages: NewMessagePayloads(history)},
				})
			}
		}

	case EventSendMessage:
		var req SendMessageRequest
		if err = decodePayload(env.Data, &req); err == nil {
			_, err = s.Dispatcher.Send(session.ID, req)
		}

	case EventStartTyping:
		var req RoomRequest
		if err = decodePayload(env.Data, &req); err == nil {
			err = s.Presence.StartTyping(session.ID, req.RoomID)
		}

	case EventStopTyping:
		var req RoomRequest
		if err = decodePayload(env.Data, &req); err == nil {
			err = s.Presence.StopTyping(session.ID, req.RoomID)
		}

	case EventMarkAsRead:
		var req RoomRequest
		if err = decodePayload(env.Data, &req); err == nil {
			err = s.Coordinator.MarkRead(session.ID, req.RoomID)
		}

	case EventLeaveRoom:
		var req RoomRequest
		if err = decodePayload(env.Data, &req); err == nil {
			if err = s.Coordinator.Leave(session.ID, req.RoomID); err == nil {
				session.enqueue(&ServerEvent{
					Event: EventRoomLeft,
					Data:  RoomLeftPayload{RoomID: req.RoomID},
				})
			}
		}

	default:
		err = errors.InvalidRequest("unknown event: " + env.Event)
	}

	if err != nil {
		session.enqueue(errorEvent(err))
	}
}

func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return errors.InvalidRequest("missing event data")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.InvalidRequest("malformed event data")
	}
	return nil
}

// writePump drains the session's queue onto the wire and keeps the
// connection alive with pings. Closing the connection on the way out also
// unblocks the read pump when the session was dropped server-side.
func writePump(conn *websocket.Conn, session *Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case ev := <-session.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			payload, err := json.Marshal(ev)
			if err != nil {
				log.Printf("event encoding error: %v", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-session.done:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
