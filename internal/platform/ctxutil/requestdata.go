package ctxutil

import "context"

type requestDataKey struct{}

// RequestData is the caller identity resolved from a bearer token.
type RequestData struct {
	TokenString string
	WorkspaceID string
	UserID      string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}
