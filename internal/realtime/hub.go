package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Tables carrying a change feed.
const (
	TableProducts  = "products"
	TableOrders    = "orders"
	TableCustomers = "customers"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Event is one change notification for a table. Record carries the row after
// the change; for deletes only the row id is known.
type Event struct {
	Table    string          `json:"table"`
	Type     EventType       `json:"type"`
	Record   json.RawMessage `json:"record,omitempty"`
	RecordID uint            `json:"record_id,omitempty"`
}

func validTable(t string) bool {
	switch t {
	case TableProducts, TableOrders, TableCustomers:
		return true
	}
	return false
}

// ParseEvent is the validation boundary for feed payloads. Unknown tables,
// unknown event types and shapeless payloads are rejected rather than
// propagated to subscribers.
func ParseEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("malformed feed payload: %w", err)
	}
	if !validTable(ev.Table) {
		return Event{}, fmt.Errorf("unknown feed table %q", ev.Table)
	}
	switch ev.Type {
	case EventInsert, EventUpdate:
		if len(ev.Record) == 0 {
			return Event{}, fmt.Errorf("%s event for %s has no record", ev.Type, ev.Table)
		}
	case EventDelete:
		if ev.RecordID == 0 {
			return Event{}, fmt.Errorf("DELETE event for %s has no record id", ev.Table)
		}
	default:
		return Event{}, fmt.Errorf("unknown feed event type %q", ev.Type)
	}
	return ev, nil
}

// NewRecordEvent builds an INSERT or UPDATE event from a row.
func NewRecordEvent(table string, typ EventType, record interface{}) (Event, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return Event{}, err
	}
	return Event{Table: table, Type: typ, Record: raw}, nil
}

// NewDeleteEvent builds a DELETE event carrying only the row id.
func NewDeleteEvent(table string, recordID uint) Event {
	return Event{Table: table, Type: EventDelete, RecordID: recordID}
}

// Feed is the change-feed contract: publish a change, or subscribe to a
// table's changes and receive a cancellation func that must be called when
// the consumer goes away.
type Feed interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context, table string, handler func(Event)) (func(), error)
}

// Hub is a Feed over Redis pub/sub, one channel per table.
type Hub struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewHub(rdb *redis.Client, logger *zap.Logger) *Hub {
	return &Hub{rdb: rdb, logger: logger}
}

func channelFor(table string) string {
	return "realtime:" + table
}

func (h *Hub) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, channelFor(ev.Table), data).Err()
}

// Subscribe starts a background receive loop for the table's channel. The
// returned func closes the subscription and stops the loop.
func (h *Hub) Subscribe(ctx context.Context, table string, handler func(Event)) (func(), error) {
	if !validTable(table) {
		return nil, fmt.Errorf("unknown feed table %q", table)
	}

	pubsub := h.rdb.Subscribe(ctx, channelFor(table))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", table, err)
	}

	go func() {
		for msg := range pubsub.Channel() {
			ev, err := ParseEvent([]byte(msg.Payload))
			if err != nil {
				h.logger.Warn("Dropping invalid feed payload",
					zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			handler(ev)
		}
	}()

	return func() { _ = pubsub.Close() }, nil
}
