package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"rainwatch/internal/domain/models"
	"rainwatch/pkg/logger"
)

// LiveSource is the subset of the aggregator the stream needs.
type LiveSource interface {
	Live(ctx context.Context) (models.LiveConditions, error)
}

// LiveStream pushes current conditions over a websocket on a fixed
// cadence. Each client gets its own ticker; a slow or gone client only
// tears down its own connection.
type LiveStream struct {
	source   LiveSource
	log      *logger.Logger
	interval time.Duration
	upgrader websocket.Upgrader
}

// NewLiveStream builds the stream endpoint. interval should match the
// live cache TTL so every push can carry fresh data.
func NewLiveStream(source LiveSource, log *logger.Logger, interval time.Duration) *LiveStream {
	if interval <= 0 {
		interval = time.Minute
	}
	return &LiveStream{
		source:   source,
		log:      log,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser dashboards connect cross-origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve upgrades the connection and streams conditions until the client
// disconnects.
func (s *LiveStream) Serve(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// Read pump: surfaces client close so the write loop can exit.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := s.push(ctx, conn); err != nil {
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.push(ctx, conn); err != nil {
				return nil
			}
		}
	}
}

func (s *LiveStream) push(ctx context.Context, conn *websocket.Conn) error {
	conditions, err := s.source.Live(ctx)
	if err != nil {
		s.log.Warn("live stream fetch failed", logger.Error(err))
		// Keep the connection; the next tick retries.
		return nil
	}
	if err := conn.WriteJSON(conditions); err != nil {
		s.log.Debug("live stream client gone", logger.Error(err))
		return err
	}
	return nil
}
