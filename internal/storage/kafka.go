package storage

import (
	"context"
	"encoding/json"
	"strconv"

	"tableserve/internal/domain"

	"github.com/segmentio/kafka-go"
)

const (
	eventNewOrder    = "new-order"
	eventDeleteOrder = "delete-order"
)

type eventEnvelope struct {
	Name string      `json:"name"`
	Data interface{} `json:"data"`
}

// KafkaNotifier publishes kitchen-facing order events. Messages are keyed by
// hotel so each kitchen's consumer sees its own orders in publish order.
type KafkaNotifier struct {
	Writer *kafka.Writer
}

func NewKafkaNotifier(writer *kafka.Writer) *KafkaNotifier {
	return &KafkaNotifier{Writer: writer}
}

func (n *KafkaNotifier) publish(ctx context.Context, hotelID int, name string, data interface{}) error {
	payload, err := json.Marshal(eventEnvelope{Name: name, Data: data})
	if err != nil {
		return domain.NewServerError("failed to encode event", err)
	}

	err = n.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.Itoa(hotelID)),
		Value: payload,
	})
	if err != nil {
		return domain.NewServerError("failed to publish event", err)
	}
	return nil
}

func (n *KafkaNotifier) PublishNewOrder(ctx context.Context, event domain.OrderEvent) error {
	return n.publish(ctx, event.HotelID, eventNewOrder, event)
}

func (n *KafkaNotifier) PublishOrderDeleted(ctx context.Context, hotelID, orderID int) error {
	return n.publish(ctx, hotelID, eventDeleteOrder, map[string]int{"orderId": orderID})
}

func (n *KafkaNotifier) Close() error {
	return n.Writer.Close()
}
