package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/Visionatedigital/M-and-T/apperr"
	"github.com/Visionatedigital/M-and-T/assistant"
	"github.com/Visionatedigital/M-and-T/authz"
	"github.com/Visionatedigital/M-and-T/models"
	"github.com/Visionatedigital/M-and-T/services"
	"github.com/google/uuid"
)

type assistantRequest struct {
	Messages []assistant.Message `json:"messages" validate:"required,min=1,dive"`
}

// Assist answers a stateless chat: the client sends the whole history.
func (h *Handlers) Assist(w http.ResponseWriter, r *http.Request) {
	var req assistantRequest
	if !decode(w, r, &req) {
		return
	}

	answer, err := h.assistant.Ask(r.Context(), authz.FromContext(r.Context()), req.Messages)
	if err != nil {
		sendServiceError(w, r, "Assistant request failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": answer})
}

func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Conversations.List(r.Context(), authz.FromContext(r.Context()))
	if err != nil {
		sendServiceError(w, r, "Failed to fetch conversations", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateConversation opens a conversation with its first question and
// answers it.
func (h *Handlers) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req models.ConversationRequest
	if !decode(w, r, &req) {
		return
	}
	caller := authz.FromContext(r.Context())

	conv, err := h.svc.Conversations.Create(r.Context(), caller, req.Message)
	if err != nil {
		sendServiceError(w, r, "Failed to create conversation", err)
		return
	}
	h.auditCaller(r, "CREATE", "CONVERSATION", conv.ID.String(), conv.Title)

	reply, err := h.exchange(r.Context(), caller, conv.ID, req.Message)
	if err != nil {
		sendServiceError(w, r, "Assistant request failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"conversation": conv,
		"message":      reply,
	})
}

func (h *Handlers) GetConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	caller := authz.FromContext(r.Context())

	conv, err := h.svc.Conversations.Get(r.Context(), caller, id)
	if err != nil {
		sendServiceError(w, r, "Failed to fetch conversation", err)
		return
	}
	messages, err := h.svc.Conversations.Messages(r.Context(), caller, id)
	if err != nil {
		sendServiceError(w, r, "Failed to fetch messages", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversation": conv,
		"messages":     messages,
	})
}

func (h *Handlers) PostMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.MessageRequest
	if !decode(w, r, &req) {
		return
	}

	reply, err := h.exchange(r.Context(), authz.FromContext(r.Context()), id, req.Content)
	if err != nil {
		sendServiceError(w, r, "Assistant request failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  reply,
		"response": reply.Content,
	})
}

func (h *Handlers) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Conversations.Delete(r.Context(), authz.FromContext(r.Context()), id); err != nil {
		sendServiceError(w, r, "Failed to delete conversation", err)
		return
	}
	h.auditCaller(r, "DELETE", "CONVERSATION", id.String(), "Conversation deleted")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Conversation deleted successfully"})
}

// exchange stores the user's message, asks the assistant with the whole
// conversation as history and stores its answer. The user's message is
// kept even when the assistant fails.
func (h *Handlers) exchange(ctx context.Context, caller *authz.Caller, id uuid.UUID, content string) (*models.ChatMessage, error) {
	if _, err := h.svc.Conversations.Append(ctx, caller, id, services.RoleUser, content); err != nil {
		return nil, err
	}

	stored, err := h.svc.Conversations.Messages(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	history := make([]assistant.Message, len(stored))
	for i, m := range stored {
		history[i] = assistant.Message{Role: m.Role, Content: m.Content}
	}

	answer, err := h.assistant.Ask(ctx, caller, history)
	if err != nil {
		log.Printf("Assistant failed on conversation %s: %v", id, err)
		return nil, err
	}
	if strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("empty reply on conversation %s: %w", id, apperr.ErrUpstream)
	}
	return h.svc.Conversations.Append(ctx, caller, id, services.RoleAssistant, answer)
}
