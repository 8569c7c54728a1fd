package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/travelmint/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCustomRate(t *testing.T) {
	tests := []struct {
		in     string
		limit  int64
		period time.Duration
	}{
		{"10-2m", 10, 2 * time.Minute},
		{"20-10s", 20, 10 * time.Second},
		{"5-1h", 5, time.Hour},
	}
	for _, tt := range tests {
		rate, err := ParseCustomRate(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.limit, rate.Limit)
		assert.Equal(t, tt.period, rate.Period)
	}

	for _, bad := range []string{"10", "x-2m", "10-2d", "10-m", "0-1m", "10-0s", "10-"} {
		_, err := ParseCustomRate(bad)
		assert.Error(t, err, bad)
	}
}

func TestLimitKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.RemoteAddr = "203.0.113.7:5555"

	assert.Equal(t, "ip:203.0.113.7", limitKey(c))

	id := uuid.New()
	c.Set(utils.ContextUserIDKey, id)
	assert.Equal(t, "user:"+id.String(), limitKey(c))
}
