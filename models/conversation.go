package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Conversation struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Title     string    `json:"title" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"index"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

type ChatMessage struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID `json:"conversation_id" gorm:"type:uuid;not null;index"`
	Role           string    `json:"role" gorm:"not null"` // user, assistant
	Content        string    `json:"content" gorm:"not null"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

type ConversationRequest struct {
	Message string `json:"message" validate:"required"`
}

type MessageRequest struct {
	Content string `json:"content" validate:"required"`
}
