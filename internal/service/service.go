package service

import (
	"jobboard/internal/repository"
)

type Services struct {
	User *UserService
	Room *RoomService
	Chat *ChatService
}

func NewServices(repos *repository.Repositories) *Services {
	registry := NewRegistry()
	chat := &ChatService{
		Registry:    registry,
		Coordinator: NewCoordinator(registry, repos.Room, repos.Message),
		Dispatcher:  NewDispatcher(registry, repos.Room, repos.Message),
		Presence:    NewPresence(registry),
	}

	return &Services{
		User: NewUserService(repos.User),
		Room: NewRoomService(repos.Room, repos.Message),
		Chat: chat,
	}
}
