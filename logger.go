package scenegraph

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with scene graph specific helpers.
// Field names are kept consistent across packages.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// WithLayer adds a layer field to the logger.
func (l *Logger) WithLayer(layer LayerID) *Logger {
	return &Logger{
		Logger: l.Logger.With("layer", layer.String()),
	}
}

// WithComponent adds a component field to the logger.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", name),
	}
}

// LogNodeInsert logs a node insertion.
func (l *Logger) LogNodeInsert(ctx context.Context, layer LayerID, id NodeID, err error) {
	if err != nil {
		l.WarnContext(ctx, "node insert failed",
			"layer", layer.String(),
			"node", Symbol(layer, id).String(),
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "node inserted",
		"layer", layer.String(),
		"node", Symbol(layer, id).String(),
	)
}

// LogEdgeInsert logs a stored edge.
func (l *Logger) LogEdgeInsert(ctx context.Context, e Edge) {
	l.DebugContext(ctx, "edge inserted",
		"edge_id", int64(e.ID),
		"source", Symbol(e.StartLayer, e.StartNode).String(),
		"target", Symbol(e.EndLayer, e.EndNode).String(),
		"inter_layer", e.IsInterLayer(),
	)
}

// LogEdgeCorrection logs an inter-layer edge whose direction was swapped.
func (l *Logger) LogEdgeCorrection(ctx context.Context, submitted Edge) {
	l.WarnContext(ctx, "inter-layer edge submitted child first, storing reversed",
		"edge_id", int64(submitted.ID),
		"source", Symbol(submitted.StartLayer, submitted.StartNode).String(),
		"target", Symbol(submitted.EndLayer, submitted.EndNode).String(),
	)
}

// LogConnect logs a connector pass.
func (l *Logger) LogConnect(ctx context.Context, parent LayerID, children, connected int) {
	l.DebugContext(ctx, "layer connection completed",
		"parent_layer", parent.String(),
		"active_children", children,
		"connected", connected,
	)
}

// LogSnapshot logs a snapshot operation.
func (l *Logger) LogSnapshot(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot saved",
		"name", name,
	)
}

// LogRestore logs a snapshot load.
func (l *Logger) LogRestore(ctx context.Context, name string, nodes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot restore failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot restored",
		"name", name,
		"nodes", nodes,
	)
}
