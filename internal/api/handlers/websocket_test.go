package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"jobboard/internal/auth"
	"jobboard/internal/models"
	"jobboard/internal/service"
)

// memRooms and memMessages satisfy the repository interfaces so the
// connection path can be exercised without a database.
type memRooms struct {
	mu     sync.Mutex
	nextID uint
	rooms  map[uint]*models.ChatRoom
}

func newMemRooms() *memRooms {
	return &memRooms{rooms: make(map[uint]*models.ChatRoom)}
}

func (m *memRooms) FindOrCreate(jobID, studentID, recruiterID uint) (*models.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, room := range m.rooms {
		if room.IsActive && room.JobID == jobID && room.StudentID == studentID && room.RecruiterID == recruiterID {
			r := *room
			return &r, nil
		}
	}
	m.nextID++
	room := &models.ChatRoom{JobID: jobID, StudentID: studentID, RecruiterID: recruiterID, LastMessageAt: time.Now(), IsActive: true}
	room.ID = m.nextID
	m.rooms[room.ID] = room
	r := *room
	return &r, nil
}

func (m *memRooms) FindByID(id uint) (*models.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %d: record not found", id)
	}
	r := *room
	return &r, nil
}

func (m *memRooms) FindByParticipant(userID uint) ([]models.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ChatRoom
	for _, room := range m.rooms {
		if room.IsActive && room.HasParticipant(userID) {
			out = append(out, *room)
		}
	}
	return out, nil
}

func (m *memRooms) TouchLastMessage(roomID uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok := m.rooms[roomID]; ok {
		room.LastMessageAt = at
	}
	return nil
}

func (m *memRooms) Deactivate(roomID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok := m.rooms[roomID]; ok {
		room.IsActive = false
	}
	return nil
}

type memMessages struct {
	mu     sync.Mutex
	nextID uint
	list   []models.ChatMessage
}

func newMemMessages() *memMessages { return &memMessages{} }

func (m *memMessages) Create(message *models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	message.ID = m.nextID
	m.list = append(m.list, *message)
	return nil
}

func (m *memMessages) FindRecent(roomID uint, limit int, before *time.Time) ([]models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ChatMessage
	for _, msg := range m.list {
		if msg.RoomID != roomID {
			continue
		}
		if before != nil && !msg.Timestamp.Before(*before) {
			continue
		}
		out = append(out, msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *memMessages) MarkRead(roomID, receiverID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.list {
		msg := &m.list[i]
		if msg.RoomID == roomID && msg.ReceiverID != nil && *msg.ReceiverID == receiverID && !msg.Read {
			msg.Read = true
			n++
		}
	}
	return n, nil
}

func (m *memMessages) CountUnread(roomID, receiverID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, msg := range m.list {
		if msg.RoomID == roomID && msg.ReceiverID != nil && *msg.ReceiverID == receiverID && !msg.Read {
			n++
		}
	}
	return n, nil
}

func (m *memMessages) FindLast(roomID uint) (*models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.list) - 1; i >= 0; i-- {
		if m.list[i].RoomID == roomID {
			msg := m.list[i]
			return &msg, nil
		}
	}
	return nil, nil
}

func newChatServer(t *testing.T) (*httptest.Server, *auth.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := service.NewRegistry()
	rooms := newMemRooms()
	messages := newMemMessages()
	chat := &service.ChatService{
		Registry:    registry,
		Coordinator: service.NewCoordinator(registry, rooms, messages),
		Dispatcher:  service.NewDispatcher(registry, rooms, messages),
		Presence:    service.NewPresence(registry),
	}
	tokens := auth.NewManager("test-secret", 1)

	r := gin.New()
	r.GET("/ws", NewWebSocketHandler(chat, tokens).HandleWebSocket)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, tokens
}

func tokenFor(t *testing.T, tokens *auth.Manager, id uint, role models.UserRole) string {
	t.Helper()
	user := &models.User{Model: gorm.Model{ID: id}, Role: role, DisplayName: fmt.Sprintf("user-%d", id)}
	token, err := tokens.GenerateToken(user)
	require.NoError(t, err)
	return token
}

func dialChat(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wireEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev wireEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func writeEvent(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(wireEvent{Event: event, Data: raw}))
}

func TestConnectionRefusedWithoutToken(t *testing.T) {
	req := require.New(t)
	srv, _ := newChatServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestConnectionRefusedWithInvalidToken(t *testing.T) {
	req := require.New(t)
	srv, _ := newChatServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=forged"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestConnectionAcceptsBearerHeader(t *testing.T) {
	req := require.New(t)
	srv, tokens := newChatServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{"Authorization": {"Bearer " + tokenFor(t, tokens, 1, models.RoleStudent)}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	req.NoError(err)
	conn.Close()
}

func TestChatOverWebSocket(t *testing.T) {
	req := require.New(t)
	srv, tokens := newChatServer(t)

	student := dialChat(t, srv, tokenFor(t, tokens, 100, models.RoleStudent))
	recruiter := dialChat(t, srv, tokenFor(t, tokens, 200, models.RoleRecruiter))

	// Student applies: join by job + counterpart creates the room.
	writeEvent(t, student, "join_room", map[string]interface{}{"job_id": 9, "recruiter_id": 200})
	ev := readEvent(t, student)
	req.Equal("chat_history", ev.Event)

	var history struct {
		RoomID   uint              `json:"room_id"`
		Messages []json.RawMessage `json:"messages"`
	}
	req.NoError(json.Unmarshal(ev.Data, &history))
	req.NotZero(history.RoomID)
	req.Empty(history.Messages)

	// Recruiter joins the same room by id.
	writeEvent(t, recruiter, "join_room", map[string]interface{}{"room_id": history.RoomID})
	ev = readEvent(t, recruiter)
	req.Equal("chat_history", ev.Event)

	// Student talks; both ends see the authoritative frame.
	writeEvent(t, student, "send_message", map[string]interface{}{"room_id": history.RoomID, "content": "Hello"})

	var msg struct {
		ID       uint   `json:"id"`
		SenderID uint   `json:"sender_id"`
		Content  string `json:"content"`
	}

	ev = readEvent(t, recruiter)
	req.Equal("new_message", ev.Event)
	req.NoError(json.Unmarshal(ev.Data, &msg))
	req.Equal(uint(100), msg.SenderID)
	req.Equal("Hello", msg.Content)

	ev = readEvent(t, student)
	req.Equal("new_message", ev.Event)

	// Typing reaches the counterpart only.
	writeEvent(t, student, "start_typing", map[string]interface{}{"room_id": history.RoomID})
	ev = readEvent(t, recruiter)
	req.Equal("user_typing", ev.Event)

	// Leaving confirms to the leaver and revokes send rights.
	writeEvent(t, student, "leave_room", map[string]interface{}{"room_id": history.RoomID})
	ev = readEvent(t, student)
	req.Equal("room_left", ev.Event)

	writeEvent(t, student, "send_message", map[string]interface{}{"room_id": history.RoomID, "content": "after leave"})
	ev = readEvent(t, student)
	req.Equal("error", ev.Event)

	var wireErr struct {
		Code string `json:"code"`
	}
	req.NoError(json.Unmarshal(ev.Data, &wireErr))
	req.Equal("NOT_IN_ROOM", wireErr.Code)
}

func TestMalformedFrameGetsErrorEvent(t *testing.T) {
	req := require.New(t)
	srv, tokens := newChatServer(t)

	conn := dialChat(t, srv, tokenFor(t, tokens, 1, models.RoleStudent))
	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	ev := readEvent(t, conn)
	req.Equal("error", ev.Event)

	// The connection survives the bad frame.
	writeEvent(t, conn, "join_room", map[string]interface{}{"job_id": 1, "recruiter_id": 2})
	ev = readEvent(t, conn)
	req.Equal("chat_history", ev.Event)
}
