package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"optiday/internal/model"
	"optiday/internal/planner"
	"optiday/internal/repository"
)

const maxChatTurns = 20

// Assistant answers free-form planning questions.
type Assistant interface {
	Chat(ctx context.Context, history []model.ChatMessage, message string) (string, error)
}

// Session is the planner state of one chat plus its assistant conversation.
type Session struct {
	ChatID  int64
	Manager *planner.Manager

	mu   sync.Mutex
	chat []model.ChatMessage
}

func (s *Session) ChatHistory() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ChatMessage(nil), s.chat...)
}

func (s *Session) appendChat(msgs ...model.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = append(s.chat, msgs...)
	if len(s.chat) > maxChatTurns {
		s.chat = s.chat[len(s.chat)-maxChatTurns:]
	}
}

// SessionOptions tunes sessions created by SessionService.
type SessionOptions struct {
	DefaultTheme    model.Theme
	GenerateTimeout time.Duration
}

// SessionService opens one planner session per chat and keeps it in memory.
type SessionService struct {
	settings  *repository.SettingRepository
	profiles  *repository.ProfileRepository
	scheduler planner.Scheduler
	assistant Assistant
	opts      SessionOptions

	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewSessionService(settings *repository.SettingRepository, profiles *repository.ProfileRepository, scheduler planner.Scheduler, assistant Assistant, opts SessionOptions) *SessionService {
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = time.Minute
	}
	return &SessionService{
		settings:  settings,
		profiles:  profiles,
		scheduler: scheduler,
		assistant: assistant,
		opts:      opts,
		sessions:  make(map[int64]*Session),
	}
}

// Open records the chat owner and returns the chat's session.
func (s *SessionService) Open(ctx context.Context, chatID int64, firstName, lastName, username string) (*Session, error) {
	if _, err := s.profiles.UpsertFromTelegram(ctx, chatID, firstName, lastName, username); err != nil {
		return nil, err
	}
	return s.Get(ctx, chatID)
}

// Get returns the session of chatID, restoring it from storage on first use.
func (s *SessionService) Get(ctx context.Context, chatID int64) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[chatID]; ok {
		return sess, nil
	}

	store := s.settings.Scoped(namespace(chatID))
	manager, err := planner.Open(ctx, store, s.scheduler, s.opts.DefaultTheme)
	if err != nil {
		return nil, fmt.Errorf("open session %d: %w", chatID, err)
	}
	sess := &Session{ChatID: chatID, Manager: manager}
	s.sessions[chatID] = sess
	log.Printf("[info] session opened chat=%d tasks=%d", chatID, len(manager.Tasks()))
	return sess, nil
}

// Generate runs schedule generation for sess with the configured timeout.
func (s *SessionService) Generate(ctx context.Context, sess *Session) (*model.Schedule, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.GenerateTimeout)
	defer cancel()
	return sess.Manager.GenerateSchedule(ctx)
}

// Ask sends question to the assistant and records both turns.
func (s *SessionService) Ask(ctx context.Context, sess *Session, question string) (string, error) {
	if s.assistant == nil {
		return "", errors.New("assistant is not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.GenerateTimeout)
	defer cancel()

	answer, err := s.assistant.Chat(ctx, sess.ChatHistory(), question)
	if err != nil {
		return "", fmt.Errorf("ask assistant: %w", err)
	}
	sess.appendChat(
		model.ChatMessage{Role: model.RoleUser, Text: question},
		model.ChatMessage{Role: model.RoleModel, Text: answer},
	)
	return answer, nil
}

// Profiles lists every chat that has opened a session.
func (s *SessionService) Profiles(ctx context.Context) ([]model.Profile, error) {
	return s.profiles.ListAll(ctx)
}

func namespace(chatID int64) string {
	return fmt.Sprintf("chat:%d", chatID)
}
