package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingController struct {
	mu      sync.Mutex
	running []bool
	ups     []int
	until   []uint64
}

func (c *recordingController) SetRunning(v bool) { c.mu.Lock(); c.running = append(c.running, v); c.mu.Unlock() }
func (c *recordingController) LimitUPS(v int)    { c.mu.Lock(); c.ups = append(c.ups, v); c.mu.Unlock() }
func (c *recordingController) RunUntil(v uint64) { c.mu.Lock(); c.until = append(c.until, v); c.mu.Unlock() }

func (c *recordingController) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.running) + len(c.ups) + len(c.until)
}

func serve(t *testing.T, h *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(func() {
		_ = h.Close()
		srv.Close()
	})
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, kind)
	f, err := DecodeFrame(data)
	require.NoError(t, err)
	return f
}

func TestFrameLayout(t *testing.T) {
	b := EncodeFrame(Frame{W: 2, H: 1, Tick: 7, Heights: []int32{-1, 300000}})
	require.Len(t, b, 16+8)
	assert.Equal(t, []byte{2, 0, 0, 0, 1, 0, 0, 0, 7, 0, 0, 0, 0, 0, 0, 0}, b[:16])
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, b[16:20])

	f, err := DecodeFrame(b)
	require.NoError(t, err)
	assert.Equal(t, []int32{-1, 300000}, f.Heights)
	assert.Equal(t, uint64(7), f.Tick)
}

func TestDecodeFrameRejectsBadLengths(t *testing.T) {
	_, err := DecodeFrame([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrBadFrame)

	b := EncodeFrame(Frame{W: 3, H: 3, Heights: make([]int32, 9)})
	_, err = DecodeFrame(b[:len(b)-4])
	assert.ErrorIs(t, err, ErrBadFrame)
}

func TestPublishReachesClients(t *testing.T) {
	h := NewHub(nil)
	srv := serve(t, h)
	a, b := dial(t, srv), dial(t, srv)
	require.Eventually(t, func() bool { return h.Clients() == 2 }, 2*time.Second, 5*time.Millisecond)

	h.Publish(Frame{W: 2, H: 2, Tick: 3, Heights: []int32{1, 2, 3, 4}})
	for _, conn := range []*websocket.Conn{a, b} {
		f := readFrame(t, conn)
		assert.Equal(t, 2, f.W)
		assert.Equal(t, uint64(3), f.Tick)
		assert.Equal(t, []int32{1, 2, 3, 4}, f.Heights)
	}
}

func TestLateClientGetsLatestFrame(t *testing.T) {
	h := NewHub(nil)
	srv := serve(t, h)
	h.Publish(Frame{W: 1, H: 1, Tick: 1, Heights: []int32{10}})
	h.Publish(Frame{W: 1, H: 1, Tick: 2, Heights: []int32{20}})

	conn := dial(t, srv)
	f := readFrame(t, conn)
	assert.Equal(t, uint64(2), f.Tick)
	assert.Equal(t, []int32{20}, f.Heights)
}

func TestControlsReachController(t *testing.T) {
	ctrl := &recordingController{}
	h := NewHub(ctrl)
	srv := serve(t, h)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(map[string]any{"run": true, "ups": 5, "runUntil": 9}))
	require.NoError(t, conn.WriteJSON(map[string]any{"run": false}))

	require.Eventually(t, func() bool { return ctrl.calls() == 4 }, 2*time.Second, 5*time.Millisecond)
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	assert.Equal(t, []bool{true, false}, ctrl.running)
	assert.Equal(t, []int{5}, ctrl.ups)
	assert.Equal(t, []uint64{9}, ctrl.until)
}

func TestMaxClients(t *testing.T) {
	h := NewHub(nil, WithMaxClients(1))
	srv := serve(t, h)
	dial(t, srv)
	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestDisconnectRemovesClient(t *testing.T) {
	h := NewHub(nil)
	srv := serve(t, h)
	conn := dial(t, srv)
	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return h.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestStatusEndpoint(t *testing.T) {
	h := NewHub(nil, WithStatus(func() any { return map[string]int{"tick": 42} }))
	srv := serve(t, h)

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got struct {
		Clients int            `json:"clients"`
		State   map[string]int `json:"state"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 0, got.Clients)
	assert.Equal(t, 42, got.State["tick"])
}

func TestPublishAfterCloseIsIgnored(t *testing.T) {
	h := NewHub(nil)
	require.NoError(t, h.Close())
	assert.NotPanics(t, func() { h.Publish(Frame{W: 1, H: 1, Heights: []int32{1}}) })
}
