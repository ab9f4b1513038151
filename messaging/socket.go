package messaging

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// maxLineSize bounds one NDJSON line. Speech replies carry whole mp3 files.
const maxLineSize = 32 * 1024 * 1024

// Socket is a Transport over a Unix domain socket speaking NDJSON. Each round
// trip uses its own connection, so concurrent requests never queue behind
// each other.
type Socket struct {
	Path string
}

// RoundTrip implements Transport.
func (s Socket) RoundTrip(ctx context.Context, env Envelope) (Response, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", s.Path)
	if err != nil {
		return Response{}, fmt.Errorf("connect to background: %w", err)
	}
	defer conn.Close()

	// Unblock reads and writes once ctx is done; ctx.Err is set by then.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	data, err := json.Marshal(env)
	if err != nil {
		return Response{}, fmt.Errorf("marshal envelope: %w", err)
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return Response{}, ctxErr(ctx, fmt.Errorf("write envelope: %w", err))
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return Response{}, ctxErr(ctx, fmt.Errorf("read response: %w", err))
		}
		return Response{}, ctxErr(ctx, fmt.Errorf("connection closed"))
	}

	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return Response{}, fmt.Errorf("unmarshal response: %w", err)
	}
	return resp, nil
}

// ctxErr prefers the context's error so callers can detect deadlines.
func ctxErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

// Server serves a Handler on a listener. One goroutine per connection;
// requests on the same connection are answered in order.
type Server struct {
	Handler Handler
	Logger  *slog.Logger

	wg sync.WaitGroup
}

// Serve accepts connections until ctx is done or the listener fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.wg.Wait()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, log, conn)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, log *slog.Logger, conn net.Conn) {
	defer conn.Close()
	closeOnDone := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer closeOnDone()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		var env Envelope
		var resp Response
		if err := json.Unmarshal(scanner.Bytes(), &env); err != nil {
			resp = errorResponse("", fmt.Errorf("malformed envelope: %w", err))
		} else {
			start := time.Now()
			resp = Dispatch(ctx, s.Handler, env)
			log.Debug("bridge request", "name", env.Name, "id", env.ID,
				"ok", resp.Error == "", "elapsed", time.Since(start))
		}

		data, err := json.Marshal(resp)
		if err != nil {
			log.Error("marshal response", "error", err)
			return
		}
		data = append(data, '\n')
		if _, err := conn.Write(data); err != nil {
			log.Warn("write response", "error", err)
			return
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Warn("read envelope", "error", err)
	}
}
