package websocket

// Transport 是会话下面的双工连接
// Client 实现
type Transport interface {
	Enqueue(frame []byte) bool
	Close()
}

// FrameHandler 处理从连接读到的帧, 连接结束时调用 Close
// Session 实现
type FrameHandler interface {
	HandleFrame(data []byte)
	Close()
}
