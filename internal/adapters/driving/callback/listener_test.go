package callback

import (
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appscope-labs/appscope-cli/internal/core/domain"
)

// start binds an ephemeral port and returns the running listener.
func start(t *testing.T) *Listener {
	t.Helper()
	l, err := Listen(0)
	require.NoError(t, err)
	t.Cleanup(l.Close)
	l.Start()
	return l
}

// send dials the listener, writes a raw request, and returns the
// response body.
func send(t *testing.T, l *Listener, request string) string {
	t.Helper()
	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(request))
	require.NoError(t, err)

	resp, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(resp)
}

func TestListener_Success(t *testing.T) {
	l := start(t)

	resp := send(t, l, "GET /callback/github?code=abc123 HTTP/1.1\r\nHost: localhost\r\n\r\n")

	result, err := l.Wait(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "github", result.Platform)
	assert.Equal(t, "abc123", result.Code)
	assert.Contains(t, resp, "200 OK")
	assert.Contains(t, resp, "Connected!")
}

func TestListener_PlatformNotValidated(t *testing.T) {
	// The listener passes the path segment through verbatim; validation
	// against the supported set happens in the caller.
	l := start(t)

	send(t, l, "GET /callback/yahoo?code=abc HTTP/1.1\r\n\r\n")

	result, err := l.Wait(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "yahoo", result.Platform)
}

func TestListener_MissingCode(t *testing.T) {
	l := start(t)

	resp := send(t, l, "GET /callback/google?state=x HTTP/1.1\r\n\r\n")

	_, err := l.Wait(2 * time.Second)
	assert.ErrorIs(t, err, domain.ErrMissingAuthorizationCode)
	assert.Contains(t, resp, "Authorization failed")
}

func TestListener_ProviderError(t *testing.T) {
	l := start(t)

	send(t, l, "GET /callback/google?error=access_denied&error_description=nope HTTP/1.1\r\n\r\n")

	_, err := l.Wait(2 * time.Second)
	require.Error(t, err)
	assert.True(t, domain.IsOAuthError(err))
	var oauthErr *domain.OAuthError
	require.ErrorAs(t, err, &oauthErr)
	assert.Equal(t, "access_denied", oauthErr.Code)
}

func TestListener_MalformedPath(t *testing.T) {
	l := start(t)

	resp := send(t, l, "GET /favicon.ico HTTP/1.1\r\n\r\n")

	_, err := l.Wait(2 * time.Second)
	assert.ErrorIs(t, err, domain.ErrMalformedCallback)
	assert.Contains(t, resp, "Authorization failed")
}

func TestListener_MalformedRequestLine(t *testing.T) {
	l := start(t)

	send(t, l, "garbage\r\n\r\n")

	_, err := l.Wait(2 * time.Second)
	assert.ErrorIs(t, err, domain.ErrMalformedCallback)
}

func TestListener_Timeout(t *testing.T) {
	l := start(t)

	_, err := l.Wait(50 * time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestListener_PortInUse(t *testing.T) {
	first, err := Listen(0)
	require.NoError(t, err)
	defer first.Close()

	port := first.Addr().(*net.TCPAddr).Port
	_, err = Listen(port)
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("%d", port))
}

func TestListener_SingleShot(t *testing.T) {
	l := start(t)

	send(t, l, "GET /callback/github?code=first HTTP/1.1\r\n\r\n")

	result, err := l.Wait(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "first", result.Code)

	// The port is released after the first connection.
	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", l.Addr().String())
		if err != nil {
			return true
		}
		conn.Close()
		return false
	}, 2*time.Second, 50*time.Millisecond)
}
