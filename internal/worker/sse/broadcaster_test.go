package sse

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// BroadcasterSuite is a test suite for Broadcaster operations.
type BroadcasterSuite struct {
	suite.Suite
	broadcaster *Broadcaster
}

func (s *BroadcasterSuite) SetupTest() {
	s.broadcaster = NewBroadcaster()
}

func TestBroadcasterSuite(t *testing.T) {
	suite.Run(t, new(BroadcasterSuite))
}

// mockResponseWriter implements http.ResponseWriter and http.Flusher for testing.
type mockResponseWriter struct {
	header     http.Header
	body       []byte
	statusCode int
	failWrites bool
	mu         sync.Mutex
}

func newMockResponseWriter() *mockResponseWriter {
	return &mockResponseWriter{
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func (m *mockResponseWriter) Header() http.Header {
	return m.header
}

func (m *mockResponseWriter) Write(data []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return 0, errors.New("broken pipe")
	}
	m.body = append(m.body, data...)
	return len(data), nil
}

func (m *mockResponseWriter) WriteHeader(statusCode int) {
	m.statusCode = statusCode
}

func (m *mockResponseWriter) Flush() {}

func (m *mockResponseWriter) GetBody() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.body)
}

// nonFlusher lacks http.Flusher.
type nonFlusher struct{ http.ResponseWriter }

func (s *BroadcasterSuite) TestNewBroadcaster() {
	s.NotNil(s.broadcaster.clients)
	s.Equal(0, s.broadcaster.ClientCount())
}

func (s *BroadcasterSuite) TestAddClient() {
	client, err := s.broadcaster.AddClient(newMockResponseWriter())
	s.NoError(err)
	s.NotNil(client.Done)
	_, parseErr := uuid.Parse(client.ID)
	s.NoError(parseErr)
	s.Equal(1, s.broadcaster.ClientCount())
}

func (s *BroadcasterSuite) TestAddClientWithoutFlusher() {
	_, err := s.broadcaster.AddClient(nonFlusher{httptest.NewRecorder()})
	s.Error(err)
	s.Equal(0, s.broadcaster.ClientCount())
}

func (s *BroadcasterSuite) TestRemoveClient() {
	client, err := s.broadcaster.AddClient(newMockResponseWriter())
	s.Require().NoError(err)

	s.broadcaster.RemoveClient(client)
	s.Equal(0, s.broadcaster.ClientCount())

	select {
	case <-client.Done:
	default:
		s.Fail("Done channel should be closed")
	}

	// second remove must not panic on the closed channel
	s.broadcaster.RemoveClient(client)
}

func (s *BroadcasterSuite) TestBroadcastEvent() {
	w := newMockResponseWriter()
	_, err := s.broadcaster.AddClient(w)
	s.Require().NoError(err)

	s.broadcaster.Broadcast(Event{Type: EventLibraryReloaded, Version: "abc123", Count: 7})

	body := w.GetBody()
	s.True(strings.HasPrefix(body, "data: "))
	s.True(strings.HasSuffix(body, "\n\n"))

	var ev Event
	s.Require().NoError(json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(body, "data: "))), &ev))
	s.Equal(Event{Type: EventLibraryReloaded, Version: "abc123", Count: 7}, ev)
}

func (s *BroadcasterSuite) TestBroadcastNoClients() {
	s.broadcaster.Broadcast(Event{Type: EventLibraryError})
}

func (s *BroadcasterSuite) TestBroadcastMultipleClients() {
	writers := make([]*mockResponseWriter, 3)
	for i := range writers {
		writers[i] = newMockResponseWriter()
		_, err := s.broadcaster.AddClient(writers[i])
		s.Require().NoError(err)
	}

	s.broadcaster.Broadcast(Event{Type: EventLibraryReloaded})

	for i, w := range writers {
		s.Contains(w.GetBody(), EventLibraryReloaded, "client %d should receive data", i)
	}
}

func (s *BroadcasterSuite) TestBroadcastRemovesDeadClients() {
	healthy := newMockResponseWriter()
	broken := newMockResponseWriter()
	broken.failWrites = true

	_, err := s.broadcaster.AddClient(healthy)
	s.Require().NoError(err)
	dead, err := s.broadcaster.AddClient(broken)
	s.Require().NoError(err)

	s.broadcaster.Broadcast(Event{Type: EventLibraryReloaded})

	s.Equal(1, s.broadcaster.ClientCount())
	select {
	case <-dead.Done:
	default:
		s.Fail("dead client should be closed")
	}
}

func (s *BroadcasterSuite) TestCloseAll() {
	c1, err := s.broadcaster.AddClient(newMockResponseWriter())
	s.Require().NoError(err)
	c2, err := s.broadcaster.AddClient(newMockResponseWriter())
	s.Require().NoError(err)

	s.broadcaster.CloseAll()
	s.Equal(0, s.broadcaster.ClientCount())
	for _, c := range []*Client{c1, c2} {
		select {
		case <-c.Done:
		default:
			s.Fail("client should be closed")
		}
	}

	// handlers still call RemoveClient afterwards
	s.broadcaster.RemoveClient(c1)
}

func TestClientUniqueIDs(t *testing.T) {
	b := NewBroadcaster()
	ids := make(map[string]bool)

	for i := 0; i < 100; i++ {
		client, err := b.AddClient(newMockResponseWriter())
		require.NoError(t, err)
		assert.False(t, ids[client.ID], "ID %s should be unique", client.ID)
		ids[client.ID] = true
	}
}

func TestWriteTimeout(t *testing.T) {
	assert.Equal(t, 2*time.Second, WriteTimeout)
}

func TestHandleSSE(t *testing.T) {
	b := NewBroadcaster()
	srv := httptest.NewServer(http.HandlerFunc(b.HandleSSE))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)

	var hello Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data: "))), &hello))
	assert.Equal(t, EventConnected, hello.Type)
	assert.NotEmpty(t, hello.ClientID)
	assert.Equal(t, 1, b.ClientCount())

	_, err = reader.ReadString('\n') // blank separator
	require.NoError(t, err)

	b.Broadcast(Event{Type: EventLibraryReloaded, Count: 3})
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, EventLibraryReloaded)

	cancel()
	assert.Eventually(t, func() bool { return b.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestConcurrentBroadcast(t *testing.T) {
	b := NewBroadcaster()
	for i := 0; i < 10; i++ {
		_, err := b.AddClient(newMockResponseWriter())
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b.Broadcast(Event{Type: EventLibraryReloaded, Count: i})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, b.ClientCount())
}

func TestRemoveNonExistentClient(t *testing.T) {
	b := NewBroadcaster()
	client := &Client{ID: "fake-client", Done: make(chan struct{})}

	b.RemoveClient(client)

	select {
	case <-client.Done:
	default:
		t.Error("Done channel should be closed")
	}
}
