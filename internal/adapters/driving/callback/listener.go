// Package callback provides the single-shot local listener that
// receives the OAuth redirect, plus browser utilities.
package callback

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/appscope-labs/appscope-cli/internal/core/domain"
	"github.com/appscope-labs/appscope-cli/internal/logger"
)

// readLimit bounds how much of the callback request is read. The
// request line carries everything we need.
const readLimit = 4096

type result struct {
	callback *domain.CallbackResult
	err      error
}

// Listener receives exactly one OAuth redirect on a fixed local port.
// It accepts a single connection, parses the request line, responds
// with a static page, and shuts down. Binding is fail-fast: a port
// already in use surfaces immediately from Listen, before any browser
// window opens.
type Listener struct {
	ln        net.Listener
	resultCh  chan result
	closeOnce sync.Once
}

// Listen binds the loopback listener on the given port.
func Listen(port int) (*Listener, error) {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return &Listener{
		ln:       ln,
		resultCh: make(chan result, 1),
	}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Start begins accepting in the background. Exactly one connection is
// served; the listener closes itself afterwards.
func (l *Listener) Start() {
	go func() {
		conn, err := l.ln.Accept()
		if err != nil {
			l.resultCh <- result{err: fmt.Errorf("accept callback: %w", err)}
			return
		}
		defer conn.Close()
		defer l.Close()

		cb, err := l.handle(conn)
		l.resultCh <- result{callback: cb, err: err}
	}()
}

// handle reads the request, parses it, and writes the response page.
// The page reflects the outcome so the user isn't told "connected"
// when the callback was unusable.
func (l *Listener) handle(conn net.Conn) (*domain.CallbackResult, error) {
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

	buf := make([]byte, readLimit)
	n, err := conn.Read(buf)
	if err != nil {
		writePage(conn, failurePage("Could not read the callback request."))
		return nil, fmt.Errorf("read callback: %w", err)
	}

	cb, err := parseRequest(string(buf[:n]))
	if err != nil {
		writePage(conn, failurePage("The authorization could not be completed."))
		return nil, err
	}

	logger.Debug("callback received for platform %q", cb.Platform)
	writePage(conn, successPage())
	return cb, nil
}

// parseRequest extracts the platform segment and authorization code
// from the first request line. Only /callback/<platform> paths are
// accepted.
func parseRequest(raw string) (*domain.CallbackResult, error) {
	line, _, _ := strings.Cut(raw, "\r\n")
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, domain.ErrMalformedCallback
	}
	path := fields[1]

	if !strings.HasPrefix(path, "/callback/") {
		return nil, domain.ErrMalformedCallback
	}

	u, err := url.Parse(path)
	if err != nil {
		return nil, domain.ErrMalformedCallback
	}
	platform := strings.TrimPrefix(u.Path, "/callback/")
	if platform == "" || strings.Contains(platform, "/") {
		return nil, domain.ErrMalformedCallback
	}

	query := u.Query()
	if errCode := query.Get("error"); errCode != "" {
		return nil, &domain.OAuthError{
			Code:        errCode,
			Description: query.Get("error_description"),
		}
	}

	code := query.Get("code")
	if code == "" {
		return nil, domain.ErrMissingAuthorizationCode
	}

	return &domain.CallbackResult{Platform: platform, Code: code}, nil
}

// Wait blocks until the callback arrives or the timeout elapses.
func (l *Listener) Wait(timeout time.Duration) (*domain.CallbackResult, error) {
	select {
	case r := <-l.resultCh:
		return r.callback, r.err
	case <-time.After(timeout):
		l.Close()
		return nil, fmt.Errorf("timeout waiting for authorization callback")
	}
}

// Close releases the port. Safe to call more than once.
func (l *Listener) Close() {
	l.closeOnce.Do(func() {
		_ = l.ln.Close()
	})
}

func writePage(conn net.Conn, body string) {
	resp := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		fmt.Sprintf("Content-Length: %d\r\n", len(body)) +
		"Connection: close\r\n\r\n" +
		body
	_, _ = conn.Write([]byte(resp))
}

func successPage() string {
	return page("✓", "Connected!", "You can close this window and return to AppScope.")
}

func failurePage(message string) string {
	return page("✗", "Authorization failed", message)
}

func page(mark, title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>AppScope</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
               display: flex; justify-content: center; align-items: center; height: 100vh;
               margin: 0; background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); }
        .card { background: white; padding: 40px; border-radius: 16px; text-align: center;
                box-shadow: 0 10px 40px rgba(0,0,0,0.2); }
        h1 { color: #333; margin-bottom: 10px; }
        p { color: #666; }
        .mark { font-size: 48px; margin-bottom: 20px; }
    </style>
</head>
<body>
    <div class="card">
        <div class="mark">%s</div>
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>`, mark, title, message)
}
