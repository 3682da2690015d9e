package newswire

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"MarketMind/internal/domain/models"
	drepo "MarketMind/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Option configures the stream client.
type Option func(*Client)

// WithReconnectDelay sets the pause before a reconnect attempt.
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.reconnectDelay = d
		}
	}
}

// WithPingInterval sets the keepalive ping cadence.
func WithPingInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pingInterval = d
		}
	}
}

// Client streams newswire headlines for the subscribed symbols over a
// WebSocket feed and emits them as NewsItems.
type Client struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// New creates the NewsStream for the given symbols.
func New(apiKey, websocketURL string, symbols []string, opts ...Option) drepo.NewsStream {
	c := &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: 5 * time.Second,
		pingInterval:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the feed.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey), nil)
	if err != nil {
		return fmt.Errorf("newswire connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	log.Printf("newswire: connected url=%s", c.websocketURL)
	return nil
}

// Subscribe requests news frames for every configured symbol.
func (c *Client) Subscribe(ctx context.Context) error {
	conn := c.current()
	if conn == nil {
		return fmt.Errorf("newswire not connected")
	}
	for _, symbol := range c.symbols {
		req := map[string]string{"type": "subscribe-news", "symbol": symbol}
		if err := conn.WriteJSON(req); err != nil {
			return fmt.Errorf("subscribe %s: %w", symbol, err)
		}
	}
	log.Printf("newswire: subscribed symbols=%d", len(c.symbols))
	return nil
}

// newsFrame is the wire envelope; entries arrive batched per frame.
type newsFrame struct {
	Type string      `json:"type"`
	Data []newsEntry `json:"data"`
}

type newsEntry struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	Datetime int64  `json:"datetime"` // ms
}

// Read launches the keepalive and read loops and returns the item and
// error channels. Both close when the read loop exits.
func (c *Client) Read(ctx context.Context) (<-chan *models.NewsItem, <-chan error) {
	items := make(chan *models.NewsItem, 256)
	errs := make(chan error, 1)

	go c.pingLoop(ctx)
	go func() {
		defer close(items)
		defer close(errs)
		if err := c.readLoop(ctx, items); err != nil {
			errs <- err
		}
	}()

	return items, errs
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if conn := c.current(); conn != nil {
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}
}

func (c *Client) readLoop(ctx context.Context, items chan<- *models.NewsItem) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		conn := c.current()
		if conn == nil {
			return fmt.Errorf("newswire connection lost")
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("newswire read: %w", err)
		}

		var frame newsFrame
		if err := json.Unmarshal(raw, &frame); err != nil || frame.Type != "news" {
			// ping acks and status frames pass through here
			continue
		}

		for _, entry := range frame.Data {
			if entry.Headline == "" {
				continue
			}
			item := &models.NewsItem{
				ID:          entry.ID,
				Symbol:      entry.Symbol,
				Headline:    entry.Headline,
				Body:        entry.Summary,
				Source:      entry.Source,
				PublishedAt: time.UnixMilli(entry.Datetime),
			}
			select {
			case items <- item:
			default:
				// consumer behind; drop rather than stall the socket
			}
		}
	}
}

// Reconnect tears down the socket, waits, and re-subscribes.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.reconnectDelay):
	}

	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close shuts the socket down.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// IsConnected reports whether a socket is currently open.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) current() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return nil
	}
	return c.conn
}
