// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/morganforge/quill-tui/internal/util"
)

// MaxMessages is the maximum number of messages to keep in conversation
// history. When exceeded, old messages are pruned to prevent unbounded
// memory growth.
const MaxMessages = 1000

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a chat conversation with history and metadata.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []*Message `json:"messages"`

	// Pending control request awaiting a reply; nil when none is active.
	Approval *ApprovalRequest `json:"approval,omitempty"`
}

// NewConversation creates a new conversation with a generated ID.
func NewConversation() *Conversation {
	return &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message to the conversation.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	c.updateTitle()
	c.pruneOldMessages()
}

// AddUserMessage creates and appends a user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewMessage(RoleUser, content)
	c.AddMessage(msg)
	return msg
}

// AddAgentMessage creates and appends an agent message.
func (c *Conversation) AddAgentMessage(content string) *Message {
	msg := NewMessage(RoleAgent, content)
	c.AddMessage(msg)
	return msg
}

// updateTitle derives the title from the first user message.
func (c *Conversation) updateTitle() {
	if c.Title != "" {
		return
	}
	for _, m := range c.Messages {
		if m.Role != RoleUser {
			continue
		}
		title := strings.TrimSpace(m.Content)
		if i := strings.IndexByte(title, '\n'); i >= 0 {
			title = title[:i]
		}
		c.Title = util.TruncateRunes(title, 60)
		return
	}
}

func (c *Conversation) pruneOldMessages() {
	if len(c.Messages) <= MaxMessages {
		return
	}
	c.Messages = c.Messages[len(c.Messages)-MaxMessages:]
}

// =============================================================================
// APPROVAL REQUESTS
// =============================================================================

// ApprovalRequest is a pending control request from the agent. Its ID
// scopes the composer's draft so a reply does not clobber the
// conversation's main draft.
type ApprovalRequest struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
}

// NewApprovalRequest creates an approval request with a generated ID.
func NewApprovalRequest(prompt string) *ApprovalRequest {
	return &ApprovalRequest{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		CreatedAt: time.Now(),
	}
}
