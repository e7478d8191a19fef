package ctxutil

import "context"

type traceDataKey struct{}

// TraceData correlates log lines and responses for one request.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td TraceData) context.Context {
	return context.WithValue(Default(ctx), traceDataKey{}, td)
}

func TraceDataFrom(ctx context.Context) (TraceData, bool) {
	if ctx == nil {
		return TraceData{}, false
	}
	td, ok := ctx.Value(traceDataKey{}).(TraceData)
	return td, ok
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
