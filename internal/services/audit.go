package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/staffdesk/apiserver/internal/mq"
)

const auditChannel = "staffdesk.audit"

// AuditEvent is the JSON payload published for every audited action.
type AuditEvent struct {
	Action  string            `json:"action"`
	Actor   string            `json:"actor,omitempty"`
	Subject string            `json:"subject,omitempty"`
	Details map[string]string `json:"details,omitempty"`
	At      time.Time         `json:"at"`
}

// AuditPublisher emits audit events through the configured broker.
// Publishing is fire-and-forget: broker failures are logged and never
// surfaced to the request that triggered them. A nil publisher (no
// broker configured) discards events.
type AuditPublisher struct {
	mq *mq.MQ
}

func NewAuditPublisher(broker *mq.MQ) *AuditPublisher {
	if broker == nil {
		return nil
	}
	return &AuditPublisher{mq: broker}
}

// Publish emits the event. Safe to call on a nil publisher.
func (p *AuditPublisher) Publish(ctx context.Context, event AuditEvent) {
	if p == nil || p.mq == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("audit: marshal event %q: %v", event.Action, err)
		return
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := p.mq.Publish(publishCtx, auditChannel, data, map[string]string{"action": event.Action}); err != nil {
		log.Printf("audit: publish %q: %v", event.Action, err)
	}
}
