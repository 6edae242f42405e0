package helper

import (
	"context"

	"storefront/model"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	userKey
)

// Mọi thứ gắn với một request đi qua context, không dùng biến toàn cục
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func WithUser(ctx context.Context, claim model.TokenClaim) context.Context {
	return context.WithValue(ctx, userKey, claim)
}

// UserFrom trả về người dùng đã xác thực của request hiện tại
func UserFrom(ctx context.Context) (model.TokenClaim, bool) {
	u, ok := ctx.Value(userKey).(model.TokenClaim)
	return u, ok && u.UserId != 0
}
