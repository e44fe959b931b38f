package qa

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/learnx/internal/shared"
	"github.com/gorilla/websocket"
)

// AuthRequiredMessage is delivered when a socket opens without a stored token.
const AuthRequiredMessage = "Authentication required. Please log in first."

// ConnectionClosedMessage is delivered when an open socket drops without [Client.Close].
const ConnectionClosedMessage = "connection closed"

const (
	DefaultOpenTimeout  = 5 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)

var (
	ErrNotConnected   = errors.New("not connected to Q&A service")
	ErrConnectFailed  = errors.New("failed to connect to Q&A service")
	ErrConnectTimeout = errors.New("connection timeout")
	ErrClosed         = errors.New("connection closed")
)

// TokenSource is the credential store the client reads and watches.
type TokenSource interface {
	Token() (string, bool)
	Invalidate()
	OnInvalidate(fn func()) func()
}

// Transcriber performs the one-shot HTTP transcription.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, courseID string) (string, error)
}

// Dialer opens WebSocket connections. [websocket.Dialer] satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// ClientOpts configures a [Client].
type ClientOpts struct {
	URL          string
	Tokens       TokenSource
	Transcriber  Transcriber
	Dialer       Dialer
	Logger       *log.Logger
	OpenTimeout  time.Duration
	WriteTimeout time.Duration
}

// Client is one Q&A session owner. The zero value is not usable; use [NewClient].
type Client struct {
	url          string
	tokens       TokenSource
	transcriber  Transcriber
	dialer       Dialer
	logger       *log.Logger
	openTimeout  time.Duration
	writeTimeout time.Duration

	mu            sync.Mutex
	conn          *websocket.Conn
	sess          *session
	connecting    bool
	authenticated bool
	courseID      string
	callback      func(Inbound)

	writeMu sync.Mutex
}

// session tracks one connection attempt from dial to close.
type session struct {
	opened chan struct{}
	authed chan struct{}
	done   chan struct{}

	openOnce sync.Once
	authOnce sync.Once
	doneOnce sync.Once
	err      error
}

func newSession() *session {
	return &session{
		opened: make(chan struct{}),
		authed: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (s *session) markOpen()   { s.openOnce.Do(func() { close(s.opened) }) }
func (s *session) markAuthed() { s.authOnce.Do(func() { close(s.authed) }) }

func (s *session) finish(err error) {
	s.doneOnce.Do(func() {
		s.err = err
		close(s.done)
	})
}

// NewClient creates a Client. It subscribes to token invalidation for its whole lifetime.
func NewClient(opts ClientOpts) *Client {
	c := &Client{
		url:          opts.URL,
		tokens:       opts.Tokens,
		transcriber:  opts.Transcriber,
		dialer:       opts.Dialer,
		logger:       opts.Logger,
		openTimeout:  opts.OpenTimeout,
		writeTimeout: opts.WriteTimeout,
	}

	if c.dialer == nil {
		c.dialer = &websocket.Dialer{HandshakeTimeout: DefaultOpenTimeout, Proxy: http.ProxyFromEnvironment}
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(nil)
	}
	if c.openTimeout <= 0 {
		c.openTimeout = DefaultOpenTimeout
	}
	if c.writeTimeout <= 0 {
		c.writeTimeout = DefaultWriteTimeout
	}
	if c.tokens != nil {
		c.tokens.OnInvalidate(c.onInvalidate)
	}

	return c
}

func (c *Client) token() (string, bool) {
	if c.tokens == nil {
		return "", false
	}
	return c.tokens.Token()
}

// Connect opens the socket and registers onMessage as the sole callback.
//
// A nil onMessage keeps the current callback. Connect returns immediately; it is a no-op
// when a socket is open or an attempt is in flight. Use [Client.WaitOpen] or
// [Client.WaitReady] to observe the outcome.
func (c *Client) Connect(courseID string, onMessage func(Inbound)) {
	c.mu.Lock()
	if onMessage != nil {
		c.callback = onMessage
	}
	if c.conn != nil || c.connecting {
		c.mu.Unlock()
		return
	}

	c.connecting = true
	c.courseID = courseID
	s := newSession()
	c.sess = s
	c.mu.Unlock()

	go c.dial(s, courseID)
}

func (c *Client) dial(s *session, courseID string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.openTimeout)
	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	cancel()

	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		c.logger.Error("Q&A connection failed", "url", c.url, "error", err)

		c.mu.Lock()
		if c.sess == s {
			c.sess = nil
			c.connecting = false
		}
		c.mu.Unlock()

		if errors.Is(err, context.DeadlineExceeded) {
			s.finish(ErrConnectTimeout)
		} else {
			s.finish(fmt.Errorf("%w: %v", ErrConnectFailed, err))
		}
		return
	}

	c.mu.Lock()
	if c.sess != s {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.mu.Unlock()

	c.logger.Debug("Q&A socket open", "url", c.url)
	s.markOpen()
	go c.readLoop(s, conn)

	token, ok := c.token()
	if !ok {
		c.deliver(Error{Message: AuthRequiredMessage})
		c.endSession(s, shared.ErrNotAuthenticated, false)
		return
	}

	if err := c.write(conn, Auth{Token: token, CourseID: courseID}); err != nil {
		c.logger.Error("failed to send auth handshake", "error", err)
		c.endSession(s, err, true)
	}
}

func (c *Client) readLoop(s *session, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.endSession(s, ErrClosed, true)
			return
		}

		msg, err := Decode(data)
		if err != nil {
			c.logger.Warn("dropping Q&A frame", "error", err)
			continue
		}
		c.handle(s, msg)
	}
}

func (c *Client) handle(s *session, msg Inbound) {
	switch m := msg.(type) {
	case AuthSuccess:
		c.mu.Lock()
		if c.sess == s {
			c.authenticated = true
			c.connecting = false
		}
		c.mu.Unlock()
		s.markAuthed()
	case Error:
		if strings.Contains(m.Message, "Authentication required") {
			c.mu.Lock()
			if c.sess == s {
				c.authenticated = false
			}
			c.mu.Unlock()

			c.deliver(msg)
			c.endSession(s, shared.ErrNotAuthenticated, false)
			if c.tokens != nil {
				c.tokens.Invalidate()
			}
			return
		}
	}
	c.deliver(msg)
}

// endSession tears s down. notify reports an unexpected close to the callback.
func (c *Client) endSession(s *session, cause error, notify bool) {
	c.mu.Lock()
	current := c.sess == s
	var conn *websocket.Conn
	if current {
		conn = c.conn
		c.conn = nil
		c.sess = nil
		c.connecting = false
		c.authenticated = false
	}
	c.mu.Unlock()

	s.finish(cause)
	if conn != nil {
		conn.Close()
	}
	if current && notify {
		c.logger.Warn("Q&A socket closed", "cause", cause)
		c.deliver(Error{Message: ConnectionClosedMessage})
	}
}

func (c *Client) deliver(msg Inbound) {
	c.mu.Lock()
	cb := c.callback
	c.mu.Unlock()

	if cb != nil {
		cb(msg)
	}
}

func (c *Client) write(conn *websocket.Conn, msg Outbound) error {
	data, err := Encode(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// WaitOpen blocks until the current attempt opens, fails, or the open timeout elapses.
func (c *Client) WaitOpen(ctx context.Context) error {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()

	if s == nil {
		return ErrNotConnected
	}

	timer := time.NewTimer(c.openTimeout)
	defer timer.Stop()

	select {
	case <-s.opened:
		return nil
	case <-s.done:
		select {
		case <-s.opened:
			return nil
		default:
			return s.err
		}
	case <-timer.C:
		return ErrConnectTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitReady blocks until the backend confirms the handshake or the session ends.
func (c *Client) WaitReady(ctx context.Context) error {
	c.mu.Lock()
	s := c.sess
	authed := c.authenticated
	c.mu.Unlock()

	if authed {
		return nil
	}
	if s == nil {
		return ErrNotConnected
	}

	select {
	case <-s.authed:
		return nil
	case <-s.done:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendMessage writes msg as one JSON text frame.
//
// Validation runs before any network activity. Without a socket, SendMessage connects with
// the last course id and waits for the open event. Non-auth messages are rejected with
// [shared.ErrNotAuthenticated] until the backend has confirmed the handshake.
func (c *Client) SendMessage(ctx context.Context, msg Outbound) error {
	if err := Validate(msg); err != nil {
		return err
	}

	c.mu.Lock()
	idle := c.sess == nil
	courseID := c.courseID
	c.mu.Unlock()

	if idle {
		c.Connect(courseID, nil)
	}
	if err := c.WaitOpen(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	authed := c.authenticated
	c.mu.Unlock()

	if _, isAuth := msg.(Auth); !isAuth && !authed {
		return shared.ErrNotAuthenticated
	}
	if conn == nil {
		return ErrNotConnected
	}
	return c.write(conn, msg)
}

// TranscribeAudio sends audio to the HTTP transcription endpoint and returns the text.
func (c *Client) TranscribeAudio(ctx context.Context, audio []byte, courseID string) (string, error) {
	if _, ok := c.token(); !ok {
		return "", shared.ErrNotAuthenticated
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: audio data", ErrEmptyMessage)
	}
	if c.transcriber == nil {
		return "", fmt.Errorf("%w: no transcriber configured", shared.ErrNotImplemented)
	}
	return c.transcriber.Transcribe(ctx, audio, "", courseID)
}

// Close closes the socket if one is open or being dialed. It is safe to call repeatedly.
func (c *Client) Close() {
	c.mu.Lock()
	s := c.sess
	conn := c.conn
	c.sess = nil
	c.conn = nil
	c.connecting = false
	c.authenticated = false
	c.mu.Unlock()

	if s != nil {
		s.finish(ErrClosed)
	}
	if conn != nil {
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		conn.Close()
	}
}

// IsConnected reports whether the socket is open and authenticated.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && c.authenticated
}

func (c *Client) onInvalidate() {
	c.mu.Lock()
	c.authenticated = false
	c.mu.Unlock()
	c.Close()
}
