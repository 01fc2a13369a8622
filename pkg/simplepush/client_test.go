package simplepush

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPostsFormData(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/send", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"key":   r.PostForm.Get("key"),
			"title": r.PostForm.Get("title"),
			"msg":   r.PostForm.Get("msg"),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("default-key", WithBaseURL(srv.URL), WithRateLimit(1000))
	err := c.Send(context.Background(), Message{
		Title: "Street Sweeping Reminder",
		Body:  "Move your car from Valencia St by 8:00 tomorrow",
	})
	require.NoError(t, err)

	assert.Equal(t, "default-key", gotForm["key"])
	assert.Equal(t, "Street Sweeping Reminder", gotForm["title"])
	assert.Equal(t, "Move your car from Valencia St by 8:00 tomorrow", gotForm["msg"])
}

func TestSendMessageKeyOverridesDefault(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotKey = r.PostForm.Get("key")
	}))
	defer srv.Close()

	c := NewClient("default-key", WithBaseURL(srv.URL), WithRateLimit(1000))
	require.NoError(t, c.Send(context.Background(), Message{Key: "per-caller-key", Body: "hi"}))
	assert.Equal(t, "per-caller-key", gotKey)
}

func TestSendRequiresKey(t *testing.T) {
	c := NewClient("", WithRateLimit(1000))
	err := c.Send(context.Background(), Message{Body: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recipient key")
}

func TestSendServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("key", WithBaseURL(srv.URL), WithRateLimit(1000))
	err := c.Send(context.Background(), Message{Body: "hi"})
	require.Error(t, err)

	var te *TransientSendError
	require.True(t, eris.As(err, &te))
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
	assert.Contains(t, err.Error(), "gateway busy")
}

func TestSendClientErrorIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("key", WithBaseURL(srv.URL), WithRateLimit(1000))
	err := c.Send(context.Background(), Message{Body: "hi"})
	require.Error(t, err)

	var te *TransientSendError
	assert.False(t, eris.As(err, &te))
}
