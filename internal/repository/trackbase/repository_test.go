package trackbase_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/config"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/trackbase"
	repo "github.com/cmlabs-hris/trackbase-backend-go/internal/repository/trackbase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendanceRepository(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/attendance":
			_, _ = io.WriteString(w, `[{"email":"a@x.com","entryTime":"2024-12-02T09:00:00Z"},{"email":"b@x.com","entryTime":"2024-12-02T09:00:00Z"}]`)
		case "/api/attendance/a@x.com":
			_, _ = io.WriteString(w, `[{"email":"a@x.com","entryTime":"2024-12-02T09:00:00Z"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := trackbase.NewClient(config.TrackbaseConfig{
		BaseURL:         server.URL,
		Timeout:         time.Second,
		RateLimit:       100,
		RateBurst:       10,
		BreakerFailures: 5,
		BreakerTimeout:  time.Second,
	}, nil)

	var r attendance.AttendanceRepository = repo.NewAttendanceRepository(client)

	all, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := r.ListByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "a@x.com", mine[0].Email)

	assert.NotNil(t, repo.NewAttendanceRecorder(client))
	assert.NotNil(t, repo.NewUserRepository(client))
}
