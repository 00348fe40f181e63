package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"github.com/colorfulnotion/treeprogram/log"
	"github.com/gorilla/websocket"
)

// WebsocketPath is where ServeHTTP upgrades to JSON-RPC over websocket.
const WebsocketPath = "/ws"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn adapts a websocket to the byte stream net/rpc codecs expect. Each
// Write is sent as one text message; reads concatenate incoming messages.
type wsConn struct {
	conn *websocket.Conn
	r    io.Reader
}

func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.r == nil {
			_, r, err := c.conn.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			c.r = r
		}
		n, err := c.r.Read(p)
		if errors.Is(err, io.EOF) {
			c.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	if err := c.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error {
	deadline := time.Now().Add(time.Second)
	c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return c.conn.Close()
}

// ServeHTTP serves JSON-RPC over websocket at WebsocketPath, so browser
// clients can call "tree.Describe" and friends.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != WebsocketPath {
		http.NotFound(w, r)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn(log.RPCMonitoring, "websocket upgrade", "err", err)
		return
	}
	log.Debug(log.RPCMonitoring, "websocket client connected", "remote", conn.RemoteAddr())
	s.srv.ServeCodec(jsonrpc.NewServerCodec(&wsConn{conn: conn}))
}

// ListenAndServeHTTP serves the websocket endpoint on addr until ctx is done.
func (s *Server) ListenAndServeHTTP(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		hs.Close()
	}()
	log.Info(log.RPCMonitoring, "websocket server started", "addr", addr, "path", WebsocketPath)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("websocket server %s: %w", addr, err)
	}
	return nil
}

// DialWebsocket connects to a websocket endpoint such as ws://host:port/ws.
func DialWebsocket(url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{Client: rpc.NewClientWithCodec(jsonrpc.NewClientCodec(&wsConn{conn: conn}))}, nil
}
