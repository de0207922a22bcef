package livefeed

import (
	"context"
	"net/url"
	"time"

	"github.com/NotCoffee418/emu2mqtt/pkg/types"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	maxRetries     = 10
	baseRetryDelay = 2 * time.Second
	maxRetryDelay  = 60 * time.Second
)

// Manage websocket connection and call funcToCall for each reading.
// Returns when ctx is done or retries are exhausted.
func StartListener(ctx context.Context, host string, funcToCall func(reading *types.FeedReading)) {
	// WebSocket server URL
	u := url.URL{Scheme: "ws", Host: host, Path: "/ws"}

	retryCount := 0

	for {
		if ctx.Err() != nil {
			log.Println("Interrupt received, shutting down...")
			return
		}

		if retryCount > 0 {
			// Calculate retry delay with exponential backoff
			retryDelay := time.Duration(1<<(retryCount-1)) * baseRetryDelay
			if retryDelay > maxRetryDelay {
				retryDelay = maxRetryDelay
			}

			log.Printf("Retrying connection in %v... (attempt %d/%d)", retryDelay, retryCount+1, maxRetries)
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				log.Println("Interrupt received during retry wait, shutting down...")
				return
			}
		}

		log.Printf("Connecting to %s", u.String())

		dialer := *websocket.DefaultDialer
		dialer.HandshakeTimeout = 10 * time.Second
		c, _, err := dialer.DialContext(ctx, u.String(), nil)
		if err != nil {
			log.Printf("Connection failed: %v", err)
			retryCount++
			if retryCount >= maxRetries {
				log.Printf("Max retries (%d) reached. Giving up.", maxRetries)
				return
			}
			continue
		}

		log.Println("Connected! Accepting EMU-2 readings.")

		// Reset retry count on successful connection
		retryCount = 0

		connectionBroken := handleConnection(ctx, c, funcToCall)

		c.Close()

		if !connectionBroken {
			// Clean shutdown requested
			return
		}

		log.Println("Connection lost, will retry...")
	}
}

func handleConnection(
	ctx context.Context,
	c *websocket.Conn,
	funcToCall func(reading *types.FeedReading),
) bool {
	done := make(chan struct{})

	// Goroutine to read messages
	go func() {
		defer close(done)
		for {
			messageType, message, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("WebSocket error: %v", err)
				} else {
					log.Printf("Connection closed: %v", err)
				}
				return
			}

			if messageType != websocket.TextMessage {
				log.Printf("Received unexpected message type: %d", messageType)
				continue
			}
			if reading := types.FeedReadingFromJsonBytes(message); reading != nil {
				funcToCall(reading)
			} else {
				log.Printf("Failed to parse reading: %s", string(message))
			}
		}
	}()

	// Keep the connection alive, readings only arrive when the meter reports
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			// Connection broke
			return true
		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Printf("Failed to send ping: %v", err)
			}
		case <-ctx.Done():
			log.Println("Interrupt received, closing connection...")

			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Error sending close message:", err)
			}

			// Wait for close confirmation or timeout
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return false
		}
	}
}
