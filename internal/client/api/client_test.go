package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Decodes the response and tags the request", func(t *testing.T) {
		// Given: A service answering with a JSON list
		var requestID, accept string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID = r.Header.Get(requestIDHeader)
			accept = r.Header.Get("Accept")
			assert.Equal(t, "/api/games", r.URL.Path)
			w.Write([]byte(`["g1","g2"]`))
		}))
		defer srv.Close()

		c := New(srv.URL+"/api/", logr.Discard())

		// When: Getting the games
		var ids []string
		err := c.Get(ctx, "/games", &ids)

		// Then: The list is decoded and the request carried an id
		require.NoError(t, err)
		assert.Equal(t, []string{"g1", "g2"}, ids)
		_, perr := uuid.Parse(requestID)
		assert.NoError(t, perr)
		assert.Equal(t, "application/json", accept)
	})

	t.Run("Reports an empty body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer srv.Close()

		var ids []string
		err := New(srv.URL, logr.Discard()).Get(ctx, "/games", &ids)

		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("Returns a status error with the plain text reason", func(t *testing.T) {
		// Given: A service answering with http.Error
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "workflow not found for ID: g1", http.StatusInternalServerError)
		}))
		defer srv.Close()

		// When: Getting the game
		err := New(srv.URL, logr.Discard()).Get(ctx, "/games/g1", nil)

		// Then: The error keeps the status and the reason
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
		assert.Equal(t, "workflow not found for ID: g1", statusErr.Reason())
		assert.Contains(t, err.Error(), "GET /games/g1")
		assert.True(t, IsStatus(err, http.StatusInternalServerError))
		assert.False(t, IsStatus(err, http.StatusNotFound))
	})
}

func TestClient_Post(t *testing.T) {
	// Given: A service echoing the request body
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"id":"g1"}`))
	}))
	defer srv.Close()

	// When: Posting a body
	var resp struct {
		ID string `json:"id"`
	}
	err := New(srv.URL, logr.Discard()).Post(context.Background(), "/games", map[string]string{"color": "w"}, &resp)

	// Then: The reply is decoded
	require.NoError(t, err)
	assert.Equal(t, "g1", resp.ID)
}

func TestClient_Raw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid move","details":"e2e5"}`))
	}))
	defer srv.Close()

	c := New("http://127.0.0.1:1", logr.Discard())
	c.SetBaseURL(srv.URL + "/")

	body, err := c.Raw(context.Background(), "post", "/games/g1/move/e2e5", nil)

	assert.JSONEq(t, `{"error":"invalid move","details":"e2e5"}`, string(body))
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.MethodPost, statusErr.Method)
	assert.Equal(t, "invalid move (e2e5)", statusErr.Reason())
}

func TestStatusError_Reason(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{body: `{"reason":"game over"}`, want: "game over"},
		{body: `{"error":"invalid request body"}`, want: "invalid request body"},
		{body: "plain text\n", want: "plain text"},
		{body: "", want: ""},
	}

	for _, tt := range tests {
		e := &StatusError{StatusCode: http.StatusBadRequest, Body: []byte(tt.body)}
		assert.Equal(t, tt.want, e.Reason(), tt.body)
	}
}
