package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-chat-presence/pkg/config"
	"go-chat-presence/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func setupTestWebsocket(t *testing.T) {
	if err := config.InitTest(); err != nil {
		t.Fatalf("Failed to initialize config: %v", err)
	}
	if err := logger.InitLogger("debug", false); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
}

// 测试服务器设置; 身份直接取自查询参数 uid
func setupTestServer(t *testing.T, gateway *Gateway) string {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.GET("/ws", func(c *gin.Context) {
		conn, err := testUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			t.Errorf("Failed to upgrade connection: %v", err)
			return
		}
		gateway.Accept(conn, c.Query("uid"))
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	// 将 http:// 替换为 ws://
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

// 创建WebSocket客户端连接
func connectWebSocket(t *testing.T, url, userID string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(url+"?uid="+userID, nil)
	require.NoError(t, err)
	return conn
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame map[string]any
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func TestGateway_PresenceAndTypingScenario(t *testing.T) {
	setupTestWebsocket(t)
	store := newFakePresenceStore()
	registry := NewRegistry()
	recorder := NewPresenceRecorder(store, registry, time.Second)
	gateway := NewGateway(registry, NewDispatcher(registry), recorder)
	url := setupTestServer(t, gateway)

	connA := connectWebSocket(t, url, "A")
	defer connA.Close()
	sendJSON(t, connA, map[string]any{"type": "auth", "userId": "A"})
	require.Eventually(t, func() bool {
		_, ok := registry.Lookup("A")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	connB := connectWebSocket(t, url, "B")
	sendJSON(t, connB, map[string]any{"type": "auth", "userId": "B"})

	// A 和 B 各自收到一条关于对方的 userStatus
	assert.Equal(t, map[string]any{"type": "userStatus", "userId": "B", "isOnline": true}, readFrame(t, connA))
	assert.Equal(t, map[string]any{"type": "userStatus", "userId": "A", "isOnline": true}, readFrame(t, connB))

	sendJSON(t, connB, map[string]any{"type": "typing", "recipientId": "A", "isTyping": true})
	assert.Equal(t, map[string]any{"type": "typing", "senderId": "B", "isTyping": true}, readFrame(t, connA))

	require.NoError(t, connB.Close())
	assert.Equal(t, map[string]any{"type": "userStatus", "userId": "B", "isOnline": false}, readFrame(t, connA))
	assert.Eventually(t, func() bool {
		_, ok := registry.Lookup("B")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	recorder.Wait()
	online, _ := store.online("B")
	assert.False(t, online)
	online, _ = store.online("A")
	assert.True(t, online)
}

func TestGateway_ReconnectReplacesPreviousConnection(t *testing.T) {
	setupTestWebsocket(t)
	registry := NewRegistry()
	gateway := NewGateway(registry, NewDispatcher(registry), NewPresenceRecorder(newFakePresenceStore(), registry, time.Second))
	url := setupTestServer(t, gateway)

	first := connectWebSocket(t, url, "A")
	defer first.Close()
	sendJSON(t, first, map[string]any{"type": "auth"})
	require.Eventually(t, func() bool {
		_, ok := registry.Lookup("A")
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	old, _ := registry.Lookup("A")

	second := connectWebSocket(t, url, "A")
	defer second.Close()
	sendJSON(t, second, map[string]any{"type": "auth", "userId": "A"})
	require.Eventually(t, func() bool {
		c, ok := registry.Lookup("A")
		return ok && c != old
	}, 2*time.Second, 10*time.Millisecond)

	// 旧连接被服务端关闭
	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := first.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 1, registry.Len())
}

func TestGateway_PendingTimeoutClosesTransport(t *testing.T) {
	setupTestWebsocket(t)
	registry := NewRegistry()
	gateway := NewGateway(registry, NewDispatcher(registry), nil)
	gateway.authTimeout = 50 * time.Millisecond
	url := setupTestServer(t, gateway)

	conn := connectWebSocket(t, url, "A")
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
	assert.Equal(t, 0, registry.Len())
}
