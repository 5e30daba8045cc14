package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Visionatedigital/M-and-T/apperr"
	"github.com/Visionatedigital/M-and-T/authz"
	"github.com/Visionatedigital/M-and-T/models"
	"github.com/Visionatedigital/M-and-T/store"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	titleLength = 50
)

// ConversationService keeps each staff member's assistant chats. Messages
// are append-only and read back in the order they were written.
type ConversationService struct {
	db            *gorm.DB
	conversations *store.Table[models.Conversation]
	messages      *store.Table[models.ChatMessage]
	now           func() time.Time
}

func NewConversationService(db *gorm.DB, now func() time.Time) *ConversationService {
	return &ConversationService{
		db:            db,
		conversations: store.NewTable[models.Conversation](db),
		messages:      store.NewTable[models.ChatMessage](db),
		now:           now,
	}
}

// Title is the first 50 characters of the opening message.
func Title(firstMessage string) string {
	r := []rune(strings.TrimSpace(firstMessage))
	if len(r) > titleLength {
		return string(r[:titleLength]) + "..."
	}
	return string(r)
}

func (s *ConversationService) Create(ctx context.Context, caller *authz.Caller, firstMessage string) (*models.Conversation, error) {
	if err := authz.RequireStaff(caller); err != nil {
		return nil, err
	}
	title := Title(firstMessage)
	if title == "" {
		return nil, fmt.Errorf("empty first message: %w", apperr.ErrInvalidArgument)
	}

	now := s.now()
	c := &models.Conversation{UserID: caller.UserID, Title: title, CreatedAt: now, UpdatedAt: now}
	if err := s.conversations.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns the caller's conversations, most recently active first.
func (s *ConversationService) List(ctx context.Context, caller *authz.Caller) ([]models.Conversation, error) {
	if err := authz.RequireStaff(caller); err != nil {
		return nil, err
	}
	return s.conversations.Select(ctx, store.Where(store.Eq("user_id", caller.UserID)).Newest("updated_at"))
}

func (s *ConversationService) Get(ctx context.Context, caller *authz.Caller, id uuid.UUID) (*models.Conversation, error) {
	if err := authz.RequireStaff(caller); err != nil {
		return nil, err
	}
	return owned(ctx, s.conversations, caller, id)
}

func (s *ConversationService) Messages(ctx context.Context, caller *authz.Caller, id uuid.UUID) ([]models.ChatMessage, error) {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.messages.Select(ctx, store.Where(store.Eq("conversation_id", id)).Oldest("created_at"))
}

// Append stores a message and bumps the conversation's updated_at in one
// transaction. created_at is kept strictly after the previous message so
// the read order is the write order.
func (s *ConversationService) Append(ctx context.Context, caller *authz.Caller, id uuid.UUID, role, content string) (*models.ChatMessage, error) {
	if err := authz.RequireStaff(caller); err != nil {
		return nil, err
	}
	if role != RoleUser && role != RoleAssistant {
		return nil, fmt.Errorf("message role %q: %w", role, apperr.ErrInvalidArgument)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty message: %w", apperr.ErrInvalidArgument)
	}

	msg := &models.ChatMessage{ConversationID: id, Role: role, Content: content}
	err := store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		conversations := store.NewTable[models.Conversation](tx)
		messages := store.NewTable[models.ChatMessage](tx)

		if _, err := owned(ctx, conversations, caller, id); err != nil {
			return err
		}

		at := s.now()
		last, err := messages.First(ctx, store.Where(store.Eq("conversation_id", id)).Newest("created_at"))
		switch {
		case err == nil:
			if !at.After(last.CreatedAt) {
				at = last.CreatedAt.Add(time.Microsecond)
			}
		case !errors.Is(err, apperr.ErrNotFound):
			return err
		}
		msg.CreatedAt = at

		if err := messages.Insert(ctx, msg); err != nil {
			return err
		}
		_, err = conversations.Update(ctx, store.ByID(id), map[string]interface{}{"updated_at": at})
		return err
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// Delete removes a conversation together with its messages.
func (s *ConversationService) Delete(ctx context.Context, caller *authz.Caller, id uuid.UUID) error {
	if err := authz.RequireStaff(caller); err != nil {
		return err
	}
	return store.Transact(ctx, s.db, func(tx *gorm.DB) error {
		conversations := store.NewTable[models.Conversation](tx)
		if _, err := owned(ctx, conversations, caller, id); err != nil {
			return err
		}
		if _, err := store.NewTable[models.ChatMessage](tx).Delete(ctx, store.Where(store.Eq("conversation_id", id))); err != nil {
			return err
		}
		_, err := conversations.Delete(ctx, store.ByID(id))
		return err
	})
}

// owned loads a conversation of the caller. Someone else's conversation is
// reported as not found.
func owned(ctx context.Context, t *store.Table[models.Conversation], caller *authz.Caller, id uuid.UUID) (*models.Conversation, error) {
	return t.First(ctx, store.ByID(id).And(store.Eq("user_id", caller.UserID)))
}
