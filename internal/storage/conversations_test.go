// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/morganforge/quill-tui/internal/model"
)

func newTestStore(t *testing.T) *ConversationStore {
	t.Helper()
	store, err := NewConversationStoreWithDir(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestConversationStoreSaveAndLoad(t *testing.T) {
	store := newTestStore(t)

	conv := model.NewConversation()
	conv.AddUserMessage("Hello")
	conv.AddAgentMessage("Hi there!")
	require.NoError(t, store.Save(conv))

	loaded, err := store.Load(conv.ID)
	require.NoError(t, err)
	require.Equal(t, conv.ID, loaded.ID)
	require.Len(t, loaded.Messages, 2)
	require.Equal(t, "Hello", loaded.Messages[0].Content)
	require.Equal(t, "Hello", loaded.Title)
}

func TestSaveSkipsBlankConversation(t *testing.T) {
	store := newTestStore(t)

	conv := model.NewConversation()
	require.NoError(t, store.Save(conv))

	_, err := store.Load(conv.ID)
	require.ErrorIs(t, err, ErrConversationNotFound)
}

func TestLoadMissingConversation(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("nope")
	require.ErrorIs(t, err, ErrConversationNotFound)
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t)

	old := model.NewConversation()
	old.AddUserMessage("old")
	old.UpdatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Save(old))

	recent := model.NewConversation()
	recent.AddUserMessage("recent")
	require.NoError(t, store.Save(recent))

	metas, err := store.List()
	require.NoError(t, err)
	require.Len(t, metas, 2)
	require.Equal(t, recent.ID, metas[0].ID, "most recent conversation should list first")
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)

	conv := model.NewConversation()
	conv.AddUserMessage("bye")
	require.NoError(t, store.Save(conv))

	require.NoError(t, store.Delete(conv.ID))
	require.ErrorIs(t, store.Delete(conv.ID), ErrConversationNotFound)
}

func TestEnforceLimit(t *testing.T) {
	store := newTestStore(t)
	store.MaxConversations = 2

	for i := 0; i < 4; i++ {
		conv := model.NewConversation()
		conv.AddUserMessage("msg")
		conv.UpdatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Save(conv))
	}

	metas, err := store.List()
	require.NoError(t, err)
	require.Len(t, metas, 2, "oldest conversations past the cap should be discarded")
}
