package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/jrivera-dev/platefleet-backend/pkg/enums"
	"github.com/jrivera-dev/platefleet-backend/pkg/logger"
	"github.com/jrivera-dev/platefleet-backend/pkg/outbox"
	"github.com/jrivera-dev/platefleet-backend/pkg/outbox/payloads"
)

const dispatchConsumerName = "dispatch"

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
}

type eventSink interface {
	Publish(ctx context.Context, event Event)
}

// Consumer reads order events from Pub/Sub and fans them out through the hub
// while honoring Redis idempotency.
type Consumer struct {
	subscription *gcppubsub.Subscriber
	sink         eventSink
	manager      idempotencyChecker
	logg         *logger.Logger
}

// NewConsumer builds the dispatch broadcast consumer.
func NewConsumer(subscription *gcppubsub.Subscriber, sink eventSink, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, errors.New("orders subscription is required")
	}
	if sink == nil {
		return nil, errors.New("event sink is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		subscription: subscription,
		sink:         sink,
		manager:      manager,
		logg:         logg,
	}, nil
}

type processResult struct {
	nack bool
}

// Run consumes order messages until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if c.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (c *Consumer) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{"message_id": msg.ID}
	logCtx := c.logg.WithFields(ctx, fields)

	event, err := c.buildEvent(msg)
	if err != nil {
		// Malformed messages never become valid; ack and move on.
		fields["error"] = err.Error()
		c.logg.Warn(c.logg.WithFields(ctx, fields), "invalid dispatch message")
		return processResult{}
	}

	fields["event_id"] = event.EventID
	fields["event_type"] = event.EventType
	fields["order_id"] = event.OrderID.String()
	logCtx = c.logg.WithFields(ctx, fields)

	eventID, err := uuid.Parse(event.EventID)
	if err != nil {
		c.logg.Warn(logCtx, "invalid event id")
		return processResult{}
	}

	already, err := c.manager.CheckAndMarkProcessed(logCtx, dispatchConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{}
	}

	c.sink.Publish(logCtx, *event)
	c.logg.Info(logCtx, "dispatch event broadcast")
	return processResult{}
}

func (c *Consumer) buildEvent(msg *gcppubsub.Message) (*Event, error) {
	var stored outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &stored); err != nil {
		return nil, fmt.Errorf("decode payload envelope: %w", err)
	}

	eventTypeStr := strings.TrimSpace(msg.Attributes["event_type"])
	eventType, err := enums.ParseOutboxEventType(eventTypeStr)
	if err != nil {
		return nil, fmt.Errorf("event_type: %w", err)
	}

	eventID := strings.TrimSpace(stored.EventID)
	if eventID == "" {
		eventID = strings.TrimSpace(msg.Attributes["event_id"])
	}
	if eventID == "" {
		return nil, errors.New("event_id missing")
	}

	occurredAt := stored.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	event := &Event{
		EventID:    eventID,
		EventType:  eventType,
		OccurredAt: occurredAt.UTC(),
		Payload:    stored.Data,
	}

	switch eventType {
	case enums.EventOrderCreated:
		var payload payloads.OrderCreatedEvent
		if err := json.Unmarshal(stored.Data, &payload); err != nil {
			return nil, fmt.Errorf("decode order created payload: %w", err)
		}
		event.OrderID = payload.OrderID
		event.CustomerID = payload.CustomerID
		event.RestaurantID = payload.RestaurantID
		event.ToStatus = enums.OrderStatusPending

	case enums.EventOrderStatusChanged:
		var payload payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(stored.Data, &payload); err != nil {
			return nil, fmt.Errorf("decode status changed payload: %w", err)
		}
		event.OrderID = payload.OrderID
		event.CustomerID = payload.CustomerID
		event.RestaurantID = payload.RestaurantID
		event.AgentID = payload.AgentID
		event.ToStatus = payload.ToStatus

	case enums.EventOrderExpired:
		var payload payloads.OrderExpiredEvent
		if err := json.Unmarshal(stored.Data, &payload); err != nil {
			return nil, fmt.Errorf("decode order expired payload: %w", err)
		}
		event.OrderID = payload.OrderID
		event.CustomerID = payload.CustomerID
		event.RestaurantID = payload.RestaurantID
		event.ToStatus = enums.OrderStatusCancelled

	default:
		return nil, fmt.Errorf("unsupported event type %q", eventType)
	}

	if event.OrderID == uuid.Nil {
		return nil, errors.New("order id missing from payload")
	}
	return event, nil
}
