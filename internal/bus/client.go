// Package bus publishes generation lifecycle events over NATS so that
// statistics and audit consumers can follow what the service produces
// without coupling to it. The service runs fine without a bus configured.
package bus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects emitted by the generation pipeline.
const (
	SubjectGenerated = "plume.appreciation.generated"
	SubjectRefined   = "plume.appreciation.refined"
)

// GenerationEvent is the payload for both subjects. Only identifiers and
// metadata travel on the bus, never the student's name or the text itself.
type GenerationEvent struct {
	StudentID  string `json:"student_id"`
	Period     string `json:"period,omitempty"`
	Operation  string `json:"operation"`
	Model      string `json:"model"`
	Words      int    `json:"words"`
	DurationMS int64  `json:"duration_ms"`
}

type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Close() {
	c.conn.Close()
}
