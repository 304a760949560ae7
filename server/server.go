package server

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"kvcore"
	"kvcore/commands"
	"kvcore/dispatch"
	"kvcore/mcadapter"
	"kvcore/mcproto"
	"kvcore/protocol"
	"kvcore/storage"
)

// Server accepts RESP and, optionally, classic Memcached text protocol
// connections and runs every command through the same dispatch.Registry
// (SPEC_FULL.md §2, §8).
type Server struct {
	state *dispatch.ServerState
	cfg   *kvcore.Config

	listener   net.Listener
	mcListener net.Listener
	clients    sync.Map // map[net.Conn]*client

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer builds a Server backed by store and cfg, with a freshly
// populated command registry.
func NewServer(store storage.Storage, cfg *kvcore.Config) *Server {
	if cfg == nil {
		cfg, _ = kvcore.NewConfig()
	}
	reg := dispatch.NewRegistry()
	commands.Register(reg)

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		state:  dispatch.NewServerState(reg, store, cfg.ShardCount, cfg),
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins accepting RESP connections on cfg.Port, and, if
// cfg.MemcachePort is non-zero, classic Memcached text protocol
// connections on that port too.
func (s *Server) Start() error {
	addr := ":" + itoa(int(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.wg.Add(1)
	go s.acceptLoop(ln, s.handleRESPConn)

	if s.cfg.MemcachePort != 0 {
		mcAddr := ":" + itoa(int(s.cfg.MemcachePort))
		mln, err := net.Listen("tcp", mcAddr)
		if err != nil {
			return err
		}
		s.mcListener = mln
		s.wg.Add(1)
		go s.acceptLoop(mln, s.handleMCConn)
	}

	s.state.SetStatus(dispatch.Active)
	return nil
}

// Stop signals shutdown, closes listeners and in-flight connections, and
// waits for accept loops to exit.
func (s *Server) Stop() error {
	s.state.SetStatus(dispatch.ShuttingDown)
	s.cancel()

	if s.listener != nil {
		s.listener.Close()
	}
	if s.mcListener != nil {
		s.mcListener.Close()
	}

	s.clients.Range(func(key, _ interface{}) bool {
		if conn, ok := key.(net.Conn); ok {
			conn.Close()
		}
		return true
	})

	s.wg.Wait()
	return nil
}

// Addr returns the RESP listener's bound address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// MemcacheAddr returns the Memcached listener's bound address, or "" if
// disabled.
func (s *Server) MemcacheAddr() string {
	if s.mcListener != nil {
		return s.mcListener.Addr().String()
	}
	return ""
}

func (s *Server) acceptLoop(ln net.Listener, handle func(net.Conn)) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			continue
		}
		s.clients.Store(conn, struct{}{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.clients.Delete(conn)
			defer conn.Close()
			handle(conn)
		}()
	}
}

func (s *Server) handleRESPConn(conn net.Conn) {
	reader := protocol.NewReader(conn)
	writer := protocol.NewWriter(conn)
	rb := dispatch.NewRESPReplyBuilder(writer)
	cc := dispatch.NewConnContext(s.state, rb)

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordReconnection()
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(30 * time.Second))

		value, err := reader.ReadNext()
		if err != nil {
			return
		}
		cmd, err := protocol.ParseCommand(value)
		if err != nil {
			writer.WriteError(err.Error())
			writer.Flush()
			continue
		}

		argv := make([]string, 0, len(cmd.Args)+1)
		argv = append(argv, cmd.Name)
		for _, a := range cmd.Args {
			argv = append(argv, string(a))
		}

		cc.Reply = rb
		dispatch.DispatchCommand(argv, cc)
		writer.Flush()

		if cmd.Name == "QUIT" || cmd.Name == "quit" {
			return
		}
	}
}

func (s *Server) handleMCConn(conn net.Conn) {
	reader := mcproto.NewReader(conn)
	writer := mcproto.NewWriter(conn)
	cc := dispatch.NewConnContext(s.state, nil)
	hist := mcadapter.NewLatencyHistogram(64)

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordReconnection()
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(30 * time.Second))

		cmd, err := reader.ReadCommand()
		if err != nil {
			if err != io.EOF {
				writer.WriteLine("ERROR")
				writer.Flush()
			}
			return
		}

		err = mcadapter.DispatchMC(cmd, cc, writer, hist)
		writer.Flush()
		if err == mcadapter.ErrQuit {
			return
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
