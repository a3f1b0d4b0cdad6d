package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/iksnae/modular-chat/internal"
	"github.com/iksnae/modular-chat/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

func requireRequestFailed(t *testing.T, err error) *internal.RequestFailedError {
	t.Helper()
	var rf *internal.RequestFailedError
	require.True(t, errors.As(err, &rf), "expected RequestFailedError, got %T: %v", err, err)
	return rf
}

func TestSendMessage(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.SetReply("hello there", 2)
	c := New(backend.URL() + "/")

	reply, err := c.SendMessage(context.Background(), "chat_1", "hi")
	require.NoError(t, err)
	assert.Equal(t, &ChatReply{Reply: "hello there", Steps: 2}, reply)
	assert.Equal(t, []testutil.ChatRequest{{UserID: "chat_1", Message: "hi"}}, backend.ChatRequests())
}

func TestFetchMemory_EscapesUserID(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	id := "user 1/ä?x"
	backend.SetMemories(id, []string{"likes tea"})
	c := New(backend.URL())

	mem, err := c.FetchMemory(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, mem.UserID)
	assert.Equal(t, []string{"likes tea"}, mem.Memories)
	assert.Equal(t, []string{id}, backend.MemoryRequests())
}

func TestFetchMemory_Empty(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	c := New(backend.URL())

	mem, err := c.FetchMemory(context.Background(), "chat_1")
	require.NoError(t, err)
	assert.NotNil(t, mem.Memories)
	assert.Empty(t, mem.Memories)
}

func TestAddDocuments(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	c := New(backend.URL())

	result, err := c.AddDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, &DocumentsResult{Status: "ok", Count: 2}, result)
	assert.Equal(t, [][]string{{"a", "b"}}, backend.DocumentRequests())
}

func TestPing(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	require.NoError(t, New(backend.URL()).Ping(context.Background()))

	backend.Fail(http.StatusServiceUnavailable, "")
	rf := requireRequestFailed(t, New(backend.URL()).Ping(context.Background()))
	assert.Equal(t, OpPing, rf.Op)
	assert.Equal(t, http.StatusServiceUnavailable, rf.StatusCode)
}

// Test that non-2xx responses surface the body, or the operation default when blank
func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		call    func(c *Client) error
		op      string
		message string
	}{
		{
			name: "chat with body",
			body: "model overloaded",
			call: func(c *Client) error {
				_, err := c.SendMessage(context.Background(), "u", "hi")
				return err
			},
			op:      OpChat,
			message: "model overloaded",
		},
		{
			name: "chat blank body",
			body: "  \n",
			call: func(c *Client) error {
				_, err := c.SendMessage(context.Background(), "u", "hi")
				return err
			},
			op:      OpChat,
			message: "Request failed",
		},
		{
			name: "memory blank body",
			call: func(c *Client) error {
				_, err := c.FetchMemory(context.Background(), "u")
				return err
			},
			op:      OpMemory,
			message: "Failed to load memory",
		},
		{
			name: "documents blank body",
			call: func(c *Client) error {
				_, err := c.AddDocuments(context.Background(), []string{"a"})
				return err
			},
			op:      OpDocuments,
			message: "Failed to add documents",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := testutil.NewFakeBackend(t)
			backend.Fail(http.StatusInternalServerError, tt.body)

			rf := requireRequestFailed(t, tt.call(New(backend.URL())))
			assert.Equal(t, tt.op, rf.Op)
			assert.Equal(t, http.StatusInternalServerError, rf.StatusCode)
			assert.Equal(t, tt.message, rf.Error())
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).SendMessage(context.Background(), "u", "hi")
	rf := requireRequestFailed(t, err)
	assert.Equal(t, 0, rf.StatusCode)
	assert.Equal(t, "Request failed", rf.Message)
	assert.NotNil(t, rf.Unwrap())
}

func TestUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).SendMessage(context.Background(), "u", "hi")
	rf := requireRequestFailed(t, err)
	assert.Equal(t, http.StatusOK, rf.StatusCode)
	assert.Equal(t, "Request failed", rf.Message)
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"reply":"ok","steps":1}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).SendMessage(context.Background(), "u", "hi")
	require.NoError(t, err)
	assert.Len(t, got.Get(RequestIDHeader), 36)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
}

func TestCancelledContext(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(backend.URL()).SendMessage(ctx, "u", "hi")
	rf := requireRequestFailed(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "Request cancelled", rf.Message)
	assert.Empty(t, backend.ChatRequests())
}

func TestWithTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, WithTimeout(20*time.Millisecond))
	_, err := c.SendMessage(context.Background(), "u", "hi")
	rf := requireRequestFailed(t, err)
	assert.Equal(t, 0, rf.StatusCode)
}

func TestWithHTTPClient(t *testing.T) {
	hc := &http.Client{Timeout: time.Second}
	c := New("http://example.invalid", WithHTTPClient(hc))
	assert.Same(t, hc, c.HTTPClient)

	// WithTimeout copies rather than mutating a caller-owned client
	c = New("http://example.invalid", WithHTTPClient(hc), WithTimeout(5*time.Second))
	assert.Equal(t, time.Second, hc.Timeout)
	assert.Equal(t, 5*time.Second, c.HTTPClient.Timeout)
}

func TestWithDefaultMessages(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.Fail(http.StatusInternalServerError, "")
	c := New(backend.URL(), WithDefaultMessages(map[string]string{
		OpChat:   "Falha na requisição",
		OpMemory: "  ",
	}))

	_, err := c.SendMessage(context.Background(), "u", "hi")
	assert.Equal(t, "Falha na requisição", requireRequestFailed(t, err).Message)

	// blank overrides keep the built-in default
	_, err = c.FetchMemory(context.Background(), "u")
	assert.Equal(t, "Failed to load memory", requireRequestFailed(t, err).Message)

	// a body still wins over any default
	backend.Fail(http.StatusBadGateway, "upstream down")
	_, err = c.SendMessage(context.Background(), "u", "hi")
	assert.Equal(t, "upstream down", requireRequestFailed(t, err).Message)

	// other clients keep the package defaults
	backend.Fail(http.StatusInternalServerError, "")
	_, err = New(backend.URL()).SendMessage(context.Background(), "u", "hi")
	assert.Equal(t, "Request failed", requireRequestFailed(t, err).Message)
}
