package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/appraise/pkg/events"
)

const (
	reconnectDelay    = time.Second
	maxReconnectDelay = 30 * time.Second
)

// SubscribeEvents streams daemon events until ctx is cancelled. The
// connection is re-established with backoff if it drops. The returned
// channel is closed once ctx is done.
func (c *Client) SubscribeEvents(ctx context.Context) <-chan events.Event {
	ch := make(chan events.Event, 16)

	go func() {
		defer close(ch)

		delay := reconnectDelay
		for {
			received, err := c.streamEvents(ctx, ch)
			if ctx.Err() != nil {
				return
			}
			if received {
				delay = reconnectDelay
			}
			if err != nil {
				logrus.WithError(err).Debugf("event stream disconnected, reconnecting in %s", delay)
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay = min(delay*2, maxReconnectDelay)
		}
	}()

	return ch
}

// streamEvents reads one SSE connection. It reports whether any event was
// delivered before the stream ended.
func (c *Client) streamEvents(ctx context.Context, ch chan<- events.Event) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events", nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	received := false
	var name string
	var data []string

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			// Blank line dispatches the pending event.
			if name != "" || len(data) > 0 {
				ev := events.Event{Name: name, Data: json.RawMessage(strings.Join(data, "\n"))}
				select {
				case ch <- ev:
					received = true
				case <-ctx.Done():
					return received, ctx.Err()
				}
			}
			name, data = "", nil
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, value)
		}
	}

	return received, scanner.Err()
}
