// Package server exposes the assembler as a JSON-RPC 2.0 service over
// stdio, TCP or WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"github.com/sourcegraph/jsonrpc2"
	wsjsonrpc2 "github.com/sourcegraph/jsonrpc2/websocket"

	"vmasm/pkg/asm"
	"vmasm/pkg/isa"
)

// Server answers compile and disassemble requests. One Server may serve
// any number of connections at once.
type Server struct {
	// Whitelist applies to compile requests that carry none.
	Whitelist *asm.Whitelist

	conns atomic.Int64
}

func New(wl *asm.Whitelist) *Server {
	return &Server{Whitelist: wl}
}

type glogLogger struct{}

func (glogLogger) Printf(format string, v ...interface{}) {
	glog.Warningf(format, v...)
}

// ServeConn serves a single connection and returns a channel that is
// closed when the peer disconnects or asks the server to shut down.
func (s *Server) ServeConn(ctx context.Context, stream jsonrpc2.ObjectStream) <-chan struct{} {
	opts := []jsonrpc2.ConnOpt{jsonrpc2.SetLogger(glogLogger{})}
	if glog.V(3) {
		opts = append(opts, jsonrpc2.LogMessages(glogLogger{}))
	}
	conn := jsonrpc2.NewConn(ctx, stream, handler{s: s, inner: jsonrpc2.HandlerWithError(s.handle)}, opts...)
	return conn.DisconnectNotify()
}

type stdrwc struct {
	io.Reader
	io.Writer
}

func (c stdrwc) Close() error {
	if cl, ok := c.Reader.(io.Closer); ok {
		if err := cl.Close(); err != nil {
			return err
		}
	}
	if cl, ok := c.Writer.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

// ServeStdio serves one connection over r and w with VS Code style
// Content-Length framing, and returns when it ends.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) {
	stream := jsonrpc2.NewBufferedStream(stdrwc{r, w}, jsonrpc2.VSCodeObjectCodec{})
	<-s.ServeConn(ctx, stream)
}

// ServeTCP accepts connections on lis until ctx is cancelled or lis
// fails. Each connection is served on its own goroutine.
func (s *Server) ServeTCP(ctx context.Context, lis net.Listener) error {
	stop := context.AfterFunc(ctx, func() { lis.Close() })
	defer stop()

	glog.Infof("listening for TCP connections on %s", lis.Addr())
	for {
		c, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		id := s.conns.Add(1)
		glog.Infof("connection #%d from %s", id, c.RemoteAddr())
		done := s.ServeConn(ctx, jsonrpc2.NewBufferedStream(c, jsonrpc2.VSCodeObjectCodec{}))
		go func() {
			<-done
			glog.Infof("connection #%d closed", id)
		}()
	}
}

// WebSocketHandler upgrades every request to a WebSocket and serves one
// JSON-RPC connection on it.
func (s *Server) WebSocketHandler() http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			glog.Warningf("websocket upgrade: %v", err)
			return
		}
		id := s.conns.Add(1)
		glog.Infof("websocket connection #%d from %s", id, r.RemoteAddr)
		<-s.ServeConn(r.Context(), wsjsonrpc2.NewObjectStream(c))
		glog.Infof("websocket connection #%d closed", id)
	})
}

// handler closes the connection on shutdown and exit after replying, and
// passes every other request on.
type handler struct {
	s     *Server
	inner jsonrpc2.Handler
}

func (h handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	glog.V(1).Infof("request: %s", req.Method)
	switch req.Method {
	case MethodShutdown, MethodExit:
		if !req.Notif {
			if err := conn.Reply(ctx, req.ID, nil); err != nil {
				glog.Warningf("reply to %s: %v", req.Method, err)
			}
		}
		conn.Close()
		return
	}
	h.inner.Handle(ctx, conn, req)
}

func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case MethodCompile:
		var p CompileParams
		if err := decodeParams(req, &p); err != nil {
			return nil, err
		}
		return s.compile(p)

	case MethodDisassemble:
		var p DisassembleParams
		if err := decodeParams(req, &p); err != nil {
			return nil, err
		}
		return DisassembleResult{Listing: isa.Disassemble(p.Binary)}, nil
	}
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not found: " + req.Method}
}

func decodeParams(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "invalid params: " + err.Error()}
	}
	return nil
}

func (s *Server) compile(p CompileParams) (interface{}, error) {
	wl := s.Whitelist
	if p.Whitelist != nil {
		wl = asm.NewWhitelist(p.Whitelist...)
	}
	out, err := asm.Compile(p.Source, wl)
	if err != nil {
		glog.V(1).Infof("compile failed: %v", err)
		return nil, rpcError(err)
	}
	return CompileResult{Binary: out.Binary, Symbols: out.Symbols, Table: out.Table}, nil
}

// rpcError maps an assembler error to a JSON-RPC error. User errors carry
// ErrorData; internal faults are reported as internal errors.
func rpcError(err error) *jsonrpc2.Error {
	var ae *asm.Error
	if errors.As(err, &ae) {
		e := &jsonrpc2.Error{Code: CodeCompileError, Message: ae.Error()}
		e.SetError(ErrorData{
			Kind:   ae.Kind.String(),
			Line:   ae.Pos.Line,
			Column: ae.Pos.Col,
			Symbol: ae.Symbol,
			Value:  ae.Value,
		})
		return e
	}
	glog.Errorf("internal error: %v", err)
	return &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()}
}
