package ctxutil

import "context"

type requestDataKey struct{}

// RequestData carries the identity resolved for the current request.
type RequestData struct {
	UserID      int
	UserName    string
	TokenString string
	TokenKind   string
}

func (rd *RequestData) Authenticated() bool {
	return rd != nil && rd.UserID != 0
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
