package helper

import (
	"context"

	"github.com/gofiber/fiber/v2/log"
)

// RequestLogger ghi log có kèm request_id và user_id của request
type RequestLogger struct {
	fields []interface{}
}

func Logger(ctx context.Context) RequestLogger {
	var fields []interface{}
	if id := RequestID(ctx); id != "" {
		fields = append(fields, "request_id", id)
	}
	if u, ok := UserFrom(ctx); ok {
		fields = append(fields, "user_id", u.UserId)
	}
	return RequestLogger{fields: fields}
}

func (l RequestLogger) with(kv []interface{}) []interface{} {
	out := make([]interface{}, 0, len(l.fields)+len(kv))
	out = append(out, l.fields...)
	return append(out, kv...)
}

func (l RequestLogger) Infow(msg string, keysAndValues ...interface{}) {
	log.Infow(msg, l.with(keysAndValues)...)
}

func (l RequestLogger) Warnw(msg string, keysAndValues ...interface{}) {
	log.Warnw(msg, l.with(keysAndValues)...)
}

func (l RequestLogger) Errorw(msg string, keysAndValues ...interface{}) {
	log.Errorw(msg, l.with(keysAndValues)...)
}
