package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/themax-01/heartbond-moments/internal/feed"
)

// Ensure Client implements the feed contract too.
var _ feed.Source = (*Client)(nil)

// Subscribe opens the websocket change feed for one bond. The returned
// channel closes when the connection drops or cancel is called. The token is
// passed as a query parameter, mirroring what a browser client would do.
func (c *Client) Subscribe(ctx context.Context, bondID string) (<-chan feed.Event, func(), error) {
	wsURL, err := c.feedURL(bondID)
	if err != nil {
		return nil, nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial feed: %w", err)
	}

	ch := make(chan feed.Event, 16)
	done := make(chan struct{})

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			conn.Close()
		})
	}

	go func() {
		// Reader is the only sender on ch and closes it on exit.
		defer close(ch)
		for {
			var ev feed.Event
			if err := conn.ReadJSON(&ev); err != nil {
				select {
				case <-done:
				default:
					slog.Warn("feed connection lost", "bond_id", bondID, "error", err)
				}
				return
			}
			select {
			case ch <- ev:
			case <-done:
				return
			}
		}
	}()

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				cancel()
			case <-done:
			}
		}()
	}

	return ch, cancel, nil
}

// feedURL derives the websocket endpoint from the API base URL. Only the
// scheme is swapped; anything else (including an "http" in the host name)
// stays untouched.
func (c *Client) feedURL(bondID string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", c.baseURL, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q in base URL", u.Scheme)
	}
	u.Path += "/ws/bonds/" + url.PathEscape(bondID)
	u.RawQuery = url.Values{"token": {c.token}}.Encode()
	return u.String(), nil
}
