// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// =============================================================================
// TOKEN MODEL
// =============================================================================

// Token is one styled fragment of a code line.
type Token struct {
	Text   string
	Color  string // hex color, "" = default foreground
	Bold   bool
	Italic bool
}

// Row is one line of tokens.
type Row []Token

// =============================================================================
// TOKENIZER SERVICE
// =============================================================================

// Service tokenizes code for display, caching results by (language, code).
type Service struct {
	cache *Cache
	style *chroma.Style
}

// DefaultCacheSize bounds the token cache. Code blocks retokenize per
// keystroke, so the working set is the handful of blocks on screen.
const DefaultCacheSize = 64

// NewService returns a tokenizer with the given cache capacity and the
// default style.
func NewService(capacity int) *Service {
	return NewServiceStyle(capacity, "monokai")
}

// NewServiceStyle returns a tokenizer using the named chroma style. An
// unknown name falls back to chroma's default.
func NewServiceStyle(capacity int, theme string) *Service {
	style := chromaStyles.Get(theme)
	if style == nil {
		style = chromaStyles.Fallback
	}
	return &Service{cache: NewCache(capacity), style: style}
}

// Highlight tokenizes code in the given language. It returns nil when no
// lexer matches, which callers render as plain text. Results are cached.
func (s *Service) Highlight(language, code string) []Row {
	if rows, ok := s.cache.Get(language, code); ok {
		return rows
	}
	rows := s.tokenize(language, code)
	if rows != nil {
		s.cache.Put(language, code, rows)
	}
	return rows
}

func (s *Service) tokenize(language, code string) []Row {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		return nil
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return nil
	}

	rows := []Row{{}}
	for _, tok := range iterator.Tokens() {
		entry := s.style.Get(tok.Type)
		parts := strings.Split(tok.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				rows = append(rows, Row{})
			}
			if part == "" {
				continue
			}
			t := Token{Text: part, Bold: entry.Bold == chroma.Yes, Italic: entry.Italic == chroma.Yes}
			if entry.Colour.IsSet() {
				t.Color = entry.Colour.String()
			}
			last := len(rows) - 1
			rows[last] = append(rows[last], t)
		}
	}
	return rows
}
