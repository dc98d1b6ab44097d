// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for the quill TUI.
//
// Conversations are stored as one JSON file per conversation under
// ~/.quill/conversations/, written atomically so a crash never leaves a
// truncated file. The store enforces a configurable cap by discarding
// the oldest conversations.
package storage
