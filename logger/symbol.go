package logger

import (
	"go.uber.org/zap"

	"github.com/teranos/HUD/sym"
)

// Symbol-aware logging helpers.
// A subsystem attaches its symbol once and every line it emits carries it
// as a structured field, keeping messages clean and logs queryable:
//
//	log := logger.AddFlowSymbol(s.logger)
//	log.Infow("Throttle table swept", "evicted", n)

// WithSymbol wraps a logger with an explicit subsystem symbol.
func WithSymbol(l *zap.SugaredLogger, symbol string) *zap.SugaredLogger {
	return l.With(FieldSymbol, symbol)
}

// AddIngestSymbol wraps a logger with the event-intake symbol (⇉)
func AddIngestSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Ingest)
}

// AddFlowSymbol wraps a logger with the rate-control symbol (≋)
func AddFlowSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Flow)
}

// AddLayoutSymbol wraps a logger with the layout-engine symbol (▦)
func AddLayoutSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Layout)
}

// AddAnimSymbol wraps a logger with the animation-coordinator symbol (✦)
func AddAnimSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Anim)
}

// AddHubSymbol wraps a logger with the viewer-hub symbol (⇶)
func AddHubSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Hub)
}

// AddConfigSymbol wraps a logger with the configuration symbol (⚙)
func AddConfigSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Config)
}

// AddPulseSymbol wraps a logger with the timer symbol (꩜)
// Used by debounce flushes and table sweeps.
func AddPulseSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Pulse)
}
