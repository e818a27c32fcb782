package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultBurst(t *testing.T) {
	assert.Equal(t, 5, DefaultBurst(1))
	assert.Equal(t, 5, DefaultBurst(10))
	assert.Equal(t, 30, DefaultBurst(60))
	assert.Equal(t, 60, DefaultBurst(120))
}

func TestAllowAdmitsExactlyBurst(t *testing.T) {
	l := New(Config{PerMinute: 10, Burst: 5})
	base := time.Now()
	l.now = func() time.Time { return base }

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("client-a"), "request %d within burst", i+1)
	}
	assert.False(t, l.Allow("client-a"), "burst exhausted")
}

func TestRefillAfterInterval(t *testing.T) {
	l := New(Config{PerMinute: 10, Burst: 5})
	base := time.Now()
	l.now = func() time.Time { return base }

	for i := 0; i < 5; i++ {
		l.Allow("client-a")
	}
	assert.False(t, l.Allow("client-a"))

	// 10/min refills one token every 6 seconds.
	base = base.Add(6 * time.Second)
	assert.True(t, l.Allow("client-a"))
	assert.False(t, l.Allow("client-a"))
}

func TestBucketsAreIndependent(t *testing.T) {
	l := New(Config{PerMinute: 10, Burst: 1})
	base := time.Now()
	l.now = func() time.Time { return base }

	assert.True(t, l.Allow("client-a"))
	assert.False(t, l.Allow("client-a"))
	assert.True(t, l.Allow("client-b"))
}

func TestIdleEviction(t *testing.T) {
	l := New(Config{PerMinute: 10, Burst: 5, IdleEviction: time.Minute})
	base := time.Now()
	l.now = func() time.Time { return base }

	l.Allow("client-a")
	l.Allow("client-b")
	assert.Equal(t, 2, l.Len())

	base = base.Add(2 * time.Minute)
	l.Allow("client-c")
	assert.Equal(t, 1, l.Len(), "idle buckets dropped on next admission")
}

func TestClientIDPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest("POST", "/v1/parse", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2")
	assert.Equal(t, "203.0.113.7", ClientID(r))
}

func TestClientIDFallsBackToRemoteHost(t *testing.T) {
	r := httptest.NewRequest("POST", "/v1/parse", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1", ClientID(r))
}

func TestClientIDUnknown(t *testing.T) {
	r := httptest.NewRequest("POST", "/v1/parse", nil)
	r.RemoteAddr = ""
	assert.Equal(t, "unknown", ClientID(r))
}
