// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"io"
	"log/slog"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// LevelHandler filters records by a level read on every record, so a
// *slog.LevelVar changes the output of a running handler.
type LevelHandler struct {
	level slog.Leveler
	inner slog.Handler
}

// NewLevelHandler filters inner, which should itself pass every level.
func NewLevelHandler(level slog.Leveler, inner slog.Handler) *LevelHandler {
	if lh, ok := inner.(*LevelHandler); ok {
		inner = lh.inner
	}
	return &LevelHandler{level: level, inner: inner}
}

// NewTerminalHandlerWithLevel is the go-ethereum terminal format filtered by lvl.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl slog.Leveler, useColor bool) *LevelHandler {
	return NewLevelHandler(lvl, ethlog.NewTerminalHandlerWithLevel(wr, LevelTrace, useColor))
}

// JSONHandlerWithLevel is the go-ethereum JSON format filtered by lvl.
func JSONHandlerWithLevel(wr io.Writer, lvl slog.Leveler) *LevelHandler {
	return NewLevelHandler(lvl, ethlog.JSONHandlerWithLevel(wr, LevelTrace))
}

func (h *LevelHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *LevelHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.Enabled(ctx, r.Level) {
		return nil
	}
	return h.inner.Handle(ctx, r)
}

func (h *LevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LevelHandler{level: h.level, inner: h.inner.WithAttrs(attrs)}
}

func (h *LevelHandler) WithGroup(name string) slog.Handler {
	return &LevelHandler{level: h.level, inner: h.inner.WithGroup(name)}
}
