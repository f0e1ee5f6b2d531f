// Package events publishes onboarding lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	applog "github.com/janisto/dating-onboarding/internal/platform/logging"
	"github.com/janisto/dating-onboarding/internal/platform/timeutil"
)

// DefaultSubject is the subject completion events are published on.
const DefaultSubject = "onboarding.completed"

// Completed is the payload of a completion event.
type Completed struct {
	UserID      string        `json:"userId"`
	CompletedAt timeutil.Time `json:"completedAt"`
}

// Connect dials the NATS server at url with reconnects enabled.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("dating-onboarding"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				applog.Logger().Warn("nats disconnected", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return nc, nil
}

// NATSPublisher publishes completion events on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher creates a publisher on conn. An empty subject means
// DefaultSubject.
func NewNATSPublisher(conn *nats.Conn, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: conn, subject: subject}
}

// OnboardingCompleted publishes a Completed event. The message id header is
// the user id so a JetStream stream on the subject drops duplicates.
func (p *NATSPublisher) OnboardingCompleted(ctx context.Context, userID string, at time.Time) error {
	data, err := json.Marshal(Completed{UserID: userID, CompletedAt: timeutil.NewTime(at)})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := nats.NewMsg(p.subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, userID)
	if id, ok := applog.TraceIDFromContext(ctx); ok {
		msg.Header.Set("X-Request-Id", id)
	}
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}
