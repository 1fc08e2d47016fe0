package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"jobboard/internal/models"
)

// fakeRoomRepo emulates the room store with the same uniqueness guarantee the
// database index provides: one active room per triple, racing creators
// converge on the same row.
type fakeRoomRepo struct {
	mu     sync.Mutex
	nextID uint
	rooms  map[uint]*models.ChatRoom

	touched map[uint]time.Time
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{
		rooms:   make(map[uint]*models.ChatRoom),
		touched: make(map[uint]time.Time),
	}
}

func (f *fakeRoomRepo) FindOrCreate(jobID, studentID, recruiterID uint) (*models.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, room := range f.rooms {
		if room.IsActive && room.JobID == jobID && room.StudentID == studentID && room.RecruiterID == recruiterID {
			copy := *room
			return &copy, nil
		}
	}

	f.nextID++
	room := &models.ChatRoom{
		JobID:         jobID,
		StudentID:     studentID,
		RecruiterID:   recruiterID,
		LastMessageAt: time.Now(),
		IsActive:      true,
	}
	room.ID = f.nextID
	f.rooms[room.ID] = room
	copy := *room
	return &copy, nil
}

func (f *fakeRoomRepo) FindByID(id uint) (*models.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %d: record not found", id)
	}
	copy := *room
	return &copy, nil
}

func (f *fakeRoomRepo) FindByParticipant(userID uint) ([]models.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rooms []models.ChatRoom
	for _, room := range f.rooms {
		if room.IsActive && room.HasParticipant(userID) {
			rooms = append(rooms, *room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].LastMessageAt.After(rooms[j].LastMessageAt)
	})
	return rooms, nil
}

func (f *fakeRoomRepo) TouchLastMessage(roomID uint, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok := f.rooms[roomID]; ok {
		room.LastMessageAt = at
	}
	f.touched[roomID] = at
	return nil
}

func (f *fakeRoomRepo) Deactivate(roomID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok := f.rooms[roomID]; ok {
		room.IsActive = false
	}
	return nil
}

func (f *fakeRoomRepo) activeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, room := range f.rooms {
		if room.IsActive {
			n++
		}
	}
	return n
}

// fakeMessageRepo is an in-memory append-only message log.
type fakeMessageRepo struct {
	mu       sync.Mutex
	nextID   uint
	messages []models.ChatMessage

	failCreate error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (f *fakeMessageRepo) Create(message *models.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return f.failCreate
	}
	f.nextID++
	message.ID = f.nextID
	f.messages = append(f.messages, *message)
	return nil
}

func (f *fakeMessageRepo) FindRecent(roomID uint, limit int, before *time.Time) ([]models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []models.ChatMessage
	for _, m := range f.messages {
		if m.RoomID != roomID {
			continue
		}
		if before != nil && !m.Timestamp.Before(*before) {
			continue
		}
		matched = append(matched, m)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})
	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched, nil
}

func (f *fakeMessageRepo) MarkRead(roomID, receiverID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.messages {
		m := &f.messages[i]
		if m.RoomID == roomID && m.ReceiverID != nil && *m.ReceiverID == receiverID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageRepo) CountUnread(roomID, receiverID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.messages {
		if m.RoomID == roomID && m.ReceiverID != nil && *m.ReceiverID == receiverID && !m.Read {
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageRepo) FindLast(roomID uint) (*models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var last *models.ChatMessage
	for i := range f.messages {
		m := &f.messages[i]
		if m.RoomID != roomID {
			continue
		}
		if last == nil || m.Timestamp.After(last.Timestamp) || (m.Timestamp.Equal(last.Timestamp) && m.ID > last.ID) {
			last = m
		}
	}
	if last == nil {
		return nil, nil
	}
	copy := *last
	return &copy, nil
}

func (f *fakeMessageRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakeMessageRepo) byID(id uint) *models.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].ID == id {
			copy := f.messages[i]
			return &copy
		}
	}
	return nil
}

// newTestChat builds a ChatService over fresh fakes.
func newTestChat() (*ChatService, *fakeRoomRepo, *fakeMessageRepo) {
	registry := NewRegistry()
	rooms := newFakeRoomRepo()
	messages := newFakeMessageRepo()
	chat := &ChatService{
		Registry:    registry,
		Coordinator: NewCoordinator(registry, rooms, messages),
		Dispatcher:  NewDispatcher(registry, rooms, messages),
		Presence:    NewPresence(registry),
	}
	return chat, rooms, messages
}

// drain pops every event currently queued for the session.
func drain(s *Session) []*ServerEvent {
	var events []*ServerEvent
	for {
		select {
		case ev := <-s.send:
			events = append(events, ev)
		default:
			return events
		}
	}
}
