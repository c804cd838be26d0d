package assemblyai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, statuses []string) (*httptest.Server, *int) {
	t.Helper()
	polls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("Authorization"))

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/transcript":
			var req map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "https://cdn.example.com/1.mp3", req["audio_url"])
			assert.Equal(t, true, req["speaker_labels"])
			assert.Equal(t, "ja", req["language_code"])
			io.WriteString(w, `{"id":"job1","status":"queued"}`)

		case r.Method == http.MethodGet && r.URL.Path == "/transcript/job1":
			status := statuses[polls]
			polls++
			switch status {
			case "completed":
				io.WriteString(w, `{"id":"job1","status":"completed","text":"こんにちは","audio_duration":61.5,
					"utterances":[{"speaker":"A","text":"こんにちは","start":1000,"end":2000,"words":[]}]}`)
			case "error":
				io.WriteString(w, `{"id":"job1","status":"error","error":"bad audio"}`)
			default:
				io.WriteString(w, `{"id":"job1","status":"`+status+`"}`)
			}

		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &polls
}

func TestTranscribeCompletes(t *testing.T) {
	srv, polls := newServer(t, []string{"queued", "processing", "completed"})

	c, err := NewClient("key", logrus.New(), WithBaseURL(srv.URL), WithPolling(time.Millisecond, 10))
	require.NoError(t, err)

	result, err := c.Transcribe(context.Background(), "https://cdn.example.com/1.mp3")
	require.NoError(t, err)
	assert.Equal(t, 3, *polls)
	assert.Equal(t, "こんにちは", result.Text)
	assert.Equal(t, 61.5, result.AudioDuration)
	require.Len(t, result.Utterances, 1)
	assert.Equal(t, "A", result.Utterances[0].Speaker)
}

func TestTranscribeErrorIsPermanent(t *testing.T) {
	srv, polls := newServer(t, []string{"processing", "error", "completed"})

	c, err := NewClient("key", logrus.New(), WithBaseURL(srv.URL), WithPolling(time.Millisecond, 10))
	require.NoError(t, err)

	_, err = c.Transcribe(context.Background(), "https://cdn.example.com/1.mp3")
	assert.True(t, errors.Is(err, ErrTranscriptionFailed))
	assert.Contains(t, err.Error(), "bad audio")
	assert.Equal(t, 2, *polls)
}

func TestTranscribeTimesOut(t *testing.T) {
	srv, polls := newServer(t, []string{"processing", "processing", "processing", "processing"})

	c, err := NewClient("key", logrus.New(), WithBaseURL(srv.URL), WithPolling(time.Millisecond, 3))
	require.NoError(t, err)

	_, err = c.Transcribe(context.Background(), "https://cdn.example.com/1.mp3")
	assert.True(t, errors.Is(err, ErrTranscriptionTimeout))
	assert.Equal(t, 3, *polls)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("", logrus.New())
	assert.Error(t, err)
}
