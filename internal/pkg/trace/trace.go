package trace

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const Header = "X-Trace-ID"

type ctxKey string

const traceIDKey ctxKey = "trace_id"

// Middleware takes the trace id from the request header, or generates one,
// and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(Header)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		w.Header().Set(Header, traceID)
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), traceID)))
	})
}

func NewContext(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// FromContext returns the trace id, or "" outside a traced request.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return ""
}
