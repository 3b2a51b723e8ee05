package events

import (
	"encoding/json"
	"fmt"
	"time"

	"appointment-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type EventType string

const (
	ReservationCreated  EventType = "created"
	ReservationConsumed EventType = "consumed"
	ReservationReleased EventType = "released"
	ReservationExpired  EventType = "expired"
)

const subjectPrefix = "reservations."

// Subject is the NATS subject an event type is published on.
func Subject(eventType EventType) string {
	return subjectPrefix + string(eventType)
}

// Publisher announces reservation lifecycle changes. Implementations must not
// block the caller on delivery and must not fail the operation that fired it.
type Publisher interface {
	Publish(eventType EventType, reservation *entity.SlotReservation)
	Close()
}

// Message is the JSON envelope sent on the wire.
type Message struct {
	MessageID     string    `json:"message_id"`
	EventType     EventType `json:"event_type"`
	ReservationID string    `json:"reservation_id"`
	SlotKey       string    `json:"slot_key"`
	HolderID      string    `json:"holder_id"`
	Status        string    `json:"status"`
	ExpiresAt     time.Time `json:"expires_at"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewMessage(eventType EventType, reservation *entity.SlotReservation) Message {
	return Message{
		MessageID:     uuid.NewString(),
		EventType:     eventType,
		ReservationID: reservation.ID.String(),
		SlotKey:       reservation.Slot.String(),
		HolderID:      reservation.HolderID,
		Status:        string(reservation.Status),
		ExpiresAt:     reservation.ExpiresAt,
		Timestamp:     time.Now().UTC(),
	}
}

type nopPublisher struct{}

// NewNopPublisher drops every event.
func NewNopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(EventType, *entity.SlotReservation) {}

func (nopPublisher) Close() {}

type natsPublisher struct {
	conn *nats.Conn
	log  *zap.Logger
}

// NewNATSPublisher connects to url and publishes core NATS messages.
func NewNATSPublisher(url string, log *zap.Logger) (Publisher, error) {
	log = log.With(zap.String("component", "nats_publisher"))

	conn, err := nats.Connect(url,
		nats.Name("appointment-booking"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}

	return NewNATSPublisherFromConn(conn, log), nil
}

func NewNATSPublisherFromConn(conn *nats.Conn, log *zap.Logger) Publisher {
	return &natsPublisher{conn: conn, log: log}
}

func (p *natsPublisher) Publish(eventType EventType, reservation *entity.SlotReservation) {
	data, err := json.Marshal(NewMessage(eventType, reservation))
	if err != nil {
		p.log.Error("Failed to encode reservation event", zap.Error(err))
		return
	}

	if err := p.conn.Publish(Subject(eventType), data); err != nil {
		p.log.Warn("Failed to publish reservation event",
			zap.Error(err),
			zap.String("event_type", string(eventType)),
			zap.String("reservation_id", reservation.ID.String()),
		)
	}
}

func (p *natsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.log.Warn("Failed to drain NATS connection", zap.Error(err))
		p.conn.Close()
	}
}
