package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brewtemp/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "http://industrial.api.ubidots.com:80", BaseURL(config.Default().Telemetry))
}

func TestHTTPTransport_Publish(t *testing.T) {
	var got map[string]float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1.6/devices/fermenter-1", r.URL.Path)
		assert.Equal(t, "tok", r.Header.Get("X-Auth-Token"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL+"/", "tok", time.Second)
	defer tr.Close()

	err := tr.Publish(context.Background(), "fermenter-1", map[string]float64{"tempferm": 18.5, "outputtime": -4})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"tempferm": 18.5, "outputtime": -4}, got)
}

func TestHTTPTransport_PublishRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewHTTPTransport(srv.URL, "bad", time.Second).Publish(context.Background(), "d", map[string]float64{"x": 1})
	assert.ErrorContains(t, err, "401")
}

func TestHTTPTransport_LastValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.Header.Get("X-Auth-Token"))
		switch r.URL.Path {
		case "/api/v1.6/devices/d/tempset/lv":
			_, _ = w.Write([]byte("19.5\n"))
		case "/api/v1.6/devices/d/mode/lv":
			_, _ = w.Write([]byte("null"))
		case "/api/v1.6/devices/d/garbage/lv":
			_, _ = w.Write([]byte("abc"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL, "tok", time.Second)
	ctx := context.Background()

	v, err := tr.LastValue(ctx, "d", "tempset")
	require.NoError(t, err)
	assert.Equal(t, 19.5, v)

	_, err = tr.LastValue(ctx, "d", "mode")
	assert.ErrorIs(t, err, ErrNoValue)

	_, err = tr.LastValue(ctx, "d", "ramphours")
	assert.ErrorIs(t, err, ErrNoValue)

	_, err = tr.LastValue(ctx, "d", "garbage")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoValue)

	assert.NoError(t, tr.Resubscribe(ctx, "d", []string{"mode"}))
}

func TestFailureTracker(t *testing.T) {
	f := NewFailureTracker(3)
	assert.False(t, f.Fail())
	assert.False(t, f.Fail())
	assert.Equal(t, 2, f.Count())
	assert.True(t, f.Fail(), "third failure in a row")
	assert.Equal(t, 0, f.Count())

	f.Fail()
	f.Reset()
	assert.Equal(t, 0, f.Count())

	disabled := NewFailureTracker(0)
	for i := 0; i < 500; i++ {
		assert.False(t, disabled.Fail())
	}
	assert.Equal(t, 500, disabled.Count())
}
