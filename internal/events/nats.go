package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/havenclean/internal/logfields"
)

// NATSPublisher publishes checklist events to NATS subjects
// <prefix>.checklist.created and <prefix>.checklist.completed.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSPublisher connects to NATS at url. prefix defaults to "havenclean"
// when empty.
func NewNATSPublisher(url, prefix string) (*NATSPublisher, error) {
	if prefix == "" {
		prefix = "havenclean"
	}
	conn, err := nats.Connect(url,
		nats.Name("havenclean"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}

	slog.Info("NATS publisher connected", "url", url, "prefix", prefix)
	return &NATSPublisher{conn: conn, prefix: prefix}, nil
}

// ChecklistCreated publishes a checklist.created event.
func (p *NATSPublisher) ChecklistCreated(ctx context.Context, ev ChecklistEvent) {
	p.publish(p.prefix+".checklist.created", ev)
}

// ChecklistCompleted publishes a checklist.completed event.
func (p *NATSPublisher) ChecklistCompleted(ctx context.Context, ev ChecklistEvent) {
	p.publish(p.prefix+".checklist.completed", ev)
}

func (p *NATSPublisher) publish(subject string, ev ChecklistEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to marshal checklist event", logfields.Error(err))
		return
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		slog.Error("failed to publish checklist event",
			"subject", subject,
			logfields.ChecklistID(ev.ChecklistID),
			logfields.Error(err))
	}
}

// Close drains and closes the NATS connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}
