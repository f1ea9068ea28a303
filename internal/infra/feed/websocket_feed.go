package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"wander/internal/domain/service"

	"github.com/gorilla/websocket"
)

const (
	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
	readTimeout        = 90 * time.Second
)

// websocketFeed implements service.FeedSource over a realtime websocket
// stream. The read loop reconnects with capped exponential backoff until the
// subscription is torn down.
type websocketFeed struct {
	url    string
	logger *slog.Logger
}

// NewWebsocketFeed creates a websocket-backed feed source.
func NewWebsocketFeed(url string, logger *slog.Logger) service.FeedSource {
	return &websocketFeed{
		url:    url,
		logger: logger,
	}
}

// Subscribe starts the read loop. The returned teardown is synchronous and
// idempotent: the second and later calls are no-ops.
func (f *websocketFeed) Subscribe(ctx context.Context, handler service.FeedHandler) (func(), error) {
	loopCtx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.readLoop(loopCtx, handler)
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}

	return unsubscribe, nil
}

func (f *websocketFeed) readLoop(ctx context.Context, handler service.FeedHandler) {
	delay := reconnectBaseDelay

	for ctx.Err() == nil {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
		if err != nil {
			f.logger.Warn("Feed dial failed, retrying",
				slog.String("url", f.url),
				slog.Duration("retryIn", delay),
				slog.Any("error", err),
			)

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}

			delay = min(delay*2, reconnectMaxDelay)

			continue
		}

		delay = reconnectBaseDelay
		f.logger.Info("Feed connected", slog.String("url", f.url))

		f.consume(ctx, conn, handler)
		_ = conn.Close()
	}
}

// consume reads events until the connection breaks or the context ends.
func (f *websocketFeed) consume(ctx context.Context, conn *websocket.Conn, handler service.FeedHandler) {
	// Close the connection when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				f.logger.Warn("Feed read failed, reconnecting", slog.Any("error", err))
			}

			return
		}

		var event service.FeedEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			// One malformed frame never kills the stream.
			f.logger.Warn("Dropping malformed feed frame", slog.Any("error", err))

			continue
		}

		handler(event)
	}
}
