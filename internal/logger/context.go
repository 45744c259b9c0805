package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	Op        string    // operation name (pull_chunk, put_object, ropen, ...)
	Zone      string    // zone/device identifier the operation concerns
	ClientIP  string    // peer IP address (without port)
	TunnelID  string    // RTCP tunnel identifier, when applicable
	StartTime time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext with the given client IP
func NewLogContext(clientIP string) *LogContext {
	return &LogContext{
		ClientIP:  clientIP,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:   lc.TraceID,
		SpanID:    lc.SpanID,
		Op:        lc.Op,
		Zone:      lc.Zone,
		ClientIP:  lc.ClientIP,
		TunnelID:  lc.TunnelID,
		StartTime: lc.StartTime,
	}
}

// WithOp returns a copy with the operation name set
func (lc *LogContext) WithOp(op string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Op = op
	}
	return clone
}

// WithZone returns a copy with the zone set
func (lc *LogContext) WithZone(zone string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Zone = zone
	}
	return clone
}

// WithTunnel returns a copy with the tunnel identifier set
func (lc *LogContext) WithTunnel(tunnelID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TunnelID = tunnelID
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
