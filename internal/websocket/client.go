package websocket

import (
	"sync"
	"time"

	"go-chat-presence/pkg/config"
	"go-chat-presence/pkg/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type ClientOptions struct {
	SendBufferSize int
	WriteWait      time.Duration // 写超时
	PongWait       time.Duration // 等待pong的最大时间
	MaxMessageSize int64         // 消息最大长度
}

func ClientOptionsFromConfig(wsConfig config.WebSocketConfig) ClientOptions {
	opts := ClientOptions{
		SendBufferSize: wsConfig.SendBufferSize,
		WriteWait:      time.Duration(wsConfig.WriteWaitSeconds) * time.Second,
		PongWait:       time.Duration(wsConfig.PongWaitSeconds) * time.Second,
		MaxMessageSize: wsConfig.MaxMessageSize,
	}
	if opts.SendBufferSize <= 0 {
		opts.SendBufferSize = 256
		logger.L.Warn("Invalid SendBufferSize, using default", zap.Int("default", opts.SendBufferSize))
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = 10 * time.Second
		logger.L.Warn("Invalid WriteWait, using default", zap.Duration("default", opts.WriteWait))
	}
	if opts.PongWait <= 0 {
		opts.PongWait = 60 * time.Second
		logger.L.Warn("Invalid PongWait, using default", zap.Duration("default", opts.PongWait))
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = 4096
		logger.L.Warn("Invalid MaxMessageSize, using default", zap.Int64("default", opts.MaxMessageSize))
	}
	return opts
}

// 发送ping的周期
func (o ClientOptions) pingPeriod() time.Duration {
	return (o.PongWait * 9) / 10
}

// Client 包装一条 gorilla websocket 连接: 一个读协程, 一个写协程, 带缓冲的发送队列
type Client struct {
	conn *websocket.Conn
	opts ClientOptions

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, opts ClientOptions) *Client {
	return &Client{
		conn: conn,
		opts: opts,
		send: make(chan []byte, opts.SendBufferSize),
		done: make(chan struct{}),
	}
}

// Run 启动读写协程. handler 在读协程退出时被关闭.
func (c *Client) Run(handler FrameHandler) {
	go c.writePump()
	go c.readPump(handler)
}

// Enqueue 非阻塞入队; 队列满或连接已关闭时返回 false
func (c *Client) Enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close 通知写协程发送关闭帧并断开连接, 可重复调用
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Client) readPump(handler FrameHandler) {
	defer func() {
		c.Close()
		handler.Close()
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.L.Warn("Unexpected websocket close", zap.Error(err))
			} else {
				logger.L.Debug("WebSocket read ended", zap.Error(err))
			}
			return
		}
		handler.HandleFrame(data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.opts.pingPeriod())
	defer func() {
		ticker.Stop()
		c.Close()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.L.Debug("Failed to write frame", zap.Error(err))
				return
			}

			// 顺带写出已经排队的帧
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					logger.L.Debug("Failed to write queued frame", zap.Error(err))
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.L.Debug("Failed to send ping", zap.Error(err))
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
