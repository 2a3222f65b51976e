// Package wsclient implements ledger.Client over the rippled WebSocket API.
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
)

const (
	pongWait     = 60 * time.Second
	pingPeriod   = 54 * time.Second
	writeWait    = 10 * time.Second
	maxFrameSize = 4 << 20
)

// Config holds connection and submission settings.
type Config struct {
	URL string
	// RequestTimeout bounds a single request/response round-trip.
	RequestTimeout time.Duration
	// ValidationTimeout bounds the wait for a submitted transaction to validate.
	ValidationTimeout time.Duration
	PollInterval      time.Duration
	// FeeDrops is used for every transaction when non-zero; otherwise the
	// node's open ledger fee is used, capped at MaxFeeDrops.
	FeeDrops         uint64
	MaxFeeDrops      uint64
	LastLedgerOffset uint32
	Logger           *log.Logger
}

func (c *Config) applyDefaults() {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.ValidationTimeout <= 0 {
		c.ValidationTimeout = 90 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.MaxFeeDrops == 0 {
		c.MaxFeeDrops = 2000
	}
	if c.LastLedgerOffset == 0 {
		c.LastLedgerOffset = 20
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
}

// Client dials a rippled WebSocket endpoint.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
}

var _ ledger.Client = (*Client)(nil)

// New creates a client for cfg.URL.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("ledger url is required")
	}
	cfg.applyDefaults()
	return &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.RequestTimeout,
		},
	}, nil
}

// Connect opens a new session. The caller must Close it.
func (c *Client) Connect(ctx context.Context) (ledger.Session, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return nil, ledger.NewTransportError("dial "+c.cfg.URL, err)
	}
	conn.SetReadLimit(maxFrameSize)

	s := &session{
		cfg:      c.cfg,
		conn:     conn,
		pending:  make(map[uint64]chan *response),
		accounts: make(map[string]*sync.Mutex),
		done:     make(chan struct{}),
	}
	go s.readLoop()
	go s.pingLoop()
	return s, nil
}

type response struct {
	ID           uint64          `json:"id"`
	Type         string          `json:"type"`
	Status       string          `json:"status"`
	Result       json.RawMessage `json:"result"`
	Error        string          `json:"error"`
	ErrorMessage string          `json:"error_message"`
}

// RPCError is an error response from the node.
type RPCError struct {
	Command string
	Code    string
	Message string
}

func (e *RPCError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %s", e.Command, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Code)
}

// Unwrap maps well-known node errors onto ledger sentinels.
func (e *RPCError) Unwrap() error {
	if e.Code == "actNotFound" {
		return ledger.ErrAccountNotFound
	}
	return nil
}

type session struct {
	cfg  Config
	conn *websocket.Conn

	writeMu sync.Mutex
	nextID  atomic.Uint64

	mu       sync.Mutex
	pending  map[uint64]chan *response
	accounts map[string]*sync.Mutex
	err      error

	done      chan struct{}
	closeOnce sync.Once
}

// readLoop dispatches responses to their waiting requests until the
// connection fails or is closed.
func (s *session) readLoop() {
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.cfg.Logger.Printf("ledger websocket read failed: %v", err)
			}
			s.shutdown(err)
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))

		var resp response
		if err := json.Unmarshal(data, &resp); err != nil {
			s.cfg.Logger.Printf("ledger websocket: dropping malformed message: %v", err)
			continue
		}
		if resp.Type != "" && resp.Type != "response" {
			continue
		}

		s.mu.Lock()
		ch, ok := s.pending[resp.ID]
		delete(s.pending, resp.ID)
		s.mu.Unlock()
		if ok {
			ch <- &resp
		}
	}
}

func (s *session) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := s.conn.WriteMessage(websocket.PingMessage, nil)
			s.writeMu.Unlock()
			if err != nil {
				s.cfg.Logger.Printf("ledger websocket ping failed: %v", err)
				return
			}
		}
	}
}

func (s *session) shutdown(cause error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		if cause == nil {
			cause = ledger.ErrSessionClosed
		}
		s.err = cause
		s.mu.Unlock()
		close(s.done)
	})
}

// request sends one command and decodes its result into out.
func (s *session) request(ctx context.Context, command string, params map[string]interface{}, out interface{}) error {
	id := s.nextID.Add(1)
	msg := make(map[string]interface{}, len(params)+2)
	for k, v := range params {
		msg[k] = v
	}
	msg["id"] = id
	msg["command"] = command

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", command, err)
	}

	ch := make(chan *response, 1)
	s.mu.Lock()
	if s.err != nil {
		err := s.err
		s.mu.Unlock()
		return ledger.NewTransportError(command, err)
	}
	s.pending[id] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	s.writeMu.Lock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = s.conn.WriteMessage(websocket.TextMessage, payload)
	s.writeMu.Unlock()
	if err != nil {
		return ledger.NewTransportError(command, err)
	}

	timer := time.NewTimer(s.cfg.RequestTimeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if resp.Status == "error" || resp.Error != "" {
			return &RPCError{Command: command, Code: resp.Error, Message: resp.ErrorMessage}
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", command, err)
		}
		return nil
	case <-timer.C:
		return ledger.NewTransportError(command, context.DeadlineExceeded)
	case <-ctx.Done():
		return ledger.NewTransportError(command, ctx.Err())
	case <-s.done:
		s.mu.Lock()
		err := s.err
		s.mu.Unlock()
		return ledger.NewTransportError(command, err)
	}
}

// lockAccount serializes submissions signed by address.
func (s *session) lockAccount(address string) func() {
	s.mu.Lock()
	m, ok := s.accounts[address]
	if !ok {
		m = &sync.Mutex{}
		s.accounts[address] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func (s *session) Close() error {
	select {
	case <-s.done:
		_ = s.conn.Close()
		return nil
	default:
	}
	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	s.writeMu.Unlock()
	err := s.conn.Close()
	s.shutdown(ledger.ErrSessionClosed)
	return err
}
