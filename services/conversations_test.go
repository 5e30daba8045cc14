package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Visionatedigital/M-and-T/apperr"
	"github.com/Visionatedigital/M-and-T/models"
	"github.com/Visionatedigital/M-and-T/store"
	"github.com/google/uuid"
)

func TestTitle(t *testing.T) {
	if got := Title("  How many loans are pending?  "); got != "How many loans are pending?" {
		t.Errorf("Unexpected short title %q", got)
	}
	long := strings.Repeat("a", 60)
	if got := Title(long); got != strings.Repeat("a", 50)+"..." {
		t.Errorf("Expected 50 characters and an ellipsis, got %q", got)
	}
	if got := Title(strings.Repeat("é", 51)); got != strings.Repeat("é", 50)+"..." {
		t.Errorf("Expected title to cut on characters, got %q", got)
	}
}

func TestConversationAppendKeepsOrder(t *testing.T) {
	svc, _ := newTestServices(t, Options{})
	ctx := context.Background()
	me := staff()

	conv, err := svc.Conversations.Create(ctx, me, "Show me pending applications")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// The test clock never moves, so every append happens at the same instant.
	contents := []string{"Show me pending applications", "There are 2 pending.", "Who are they?", "Brian and Carol."}
	for i, c := range contents {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		if _, err := svc.Conversations.Append(ctx, me, conv.ID, role, c); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	msgs, err := svc.Conversations.Messages(ctx, me, conv.ID)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(msgs) != len(contents) {
		t.Fatalf("Expected %d messages, got %d", len(contents), len(msgs))
	}
	for i, m := range msgs {
		if m.Content != contents[i] {
			t.Errorf("Message %d: expected %q, got %q", i, contents[i], m.Content)
		}
		if i > 0 && !m.CreatedAt.After(msgs[i-1].CreatedAt) {
			t.Errorf("Message %d: expected created_at after the previous message", i)
		}
	}

	got, err := svc.Conversations.Get(ctx, me, conv.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.UpdatedAt.Equal(msgs[len(msgs)-1].CreatedAt) {
		t.Errorf("Expected updated_at to follow the last message, got %s vs %s", got.UpdatedAt, msgs[len(msgs)-1].CreatedAt)
	}
}

func TestConversationsArePrivate(t *testing.T) {
	svc, _ := newTestServices(t, Options{})
	ctx := context.Background()
	alice, bob := staff(), staff()

	conv, err := svc.Conversations.Create(ctx, alice, "Portfolio at risk")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Conversations.Messages(ctx, bob, conv.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected another user's conversation to be hidden, got %v", err)
	}
	if _, err := svc.Conversations.Append(ctx, bob, conv.ID, RoleUser, "hi"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected append to another user's conversation to fail, got %v", err)
	}
	if list, _ := svc.Conversations.List(ctx, bob); len(list) != 0 {
		t.Errorf("Expected bob to see no conversations, got %d", len(list))
	}
	if list, _ := svc.Conversations.List(ctx, alice); len(list) != 1 {
		t.Errorf("Expected alice to see her conversation, got %d", len(list))
	}
}

func TestConversationAppendValidates(t *testing.T) {
	svc, _ := newTestServices(t, Options{})
	ctx := context.Background()
	me := staff()
	conv, _ := svc.Conversations.Create(ctx, me, "hello")

	if _, err := svc.Conversations.Append(ctx, me, conv.ID, "system", "x"); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("Expected system role to be refused, got %v", err)
	}
	if _, err := svc.Conversations.Append(ctx, me, conv.ID, RoleUser, "   "); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("Expected blank content to be refused, got %v", err)
	}
	if _, err := svc.Conversations.Create(ctx, me, " "); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("Expected blank first message to be refused, got %v", err)
	}
}

func TestConversationDeleteCascades(t *testing.T) {
	svc, db := newTestServices(t, Options{})
	ctx := context.Background()
	me := staff()

	conv, _ := svc.Conversations.Create(ctx, me, "hello")
	svc.Conversations.Append(ctx, me, conv.ID, RoleUser, "hello")
	svc.Conversations.Append(ctx, me, conv.ID, RoleAssistant, "Hi, how can I help?")

	if err := svc.Conversations.Delete(ctx, me, conv.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Conversations.Get(ctx, me, conv.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected conversation to be gone, got %v", err)
	}
	n, err := store.NewTable[models.ChatMessage](db).Count(ctx, store.Where(store.Eq("conversation_id", conv.ID)))
	if err != nil || n != 0 {
		t.Errorf("Expected messages to be deleted, got %d (%v)", n, err)
	}

	if err := svc.Conversations.Delete(ctx, me, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for an unknown conversation, got %v", err)
	}
}
