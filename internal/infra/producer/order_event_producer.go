package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model/event"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

var ErrProducerClosed = errors.New("producer is closed")

const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
)

// MessageWriter *kafka.Writer 的最小介面
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter 同一張訂單的事件以 key hash 到同一個 partition, 保持順序
func NewKafkaWriter(brokers []string, topic string, logger zerolog.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		MaxAttempts:  3,
		Transport: &kafka.Transport{
			Dial: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error().Msgf("kafka writer: "+msg, args...)
		}),
		Compression: kafka.Snappy,
	}
}

// OrderEventProducer 將訂單領域事件寫入 kafka, value 為 JSON
type OrderEventProducer struct {
	writer  MessageWriter
	retries int
	closed  atomic.Bool
}

func NewOrderEventProducer(writer MessageWriter, retries int) *OrderEventProducer {
	if retries < 0 {
		retries = 0
	}
	return &OrderEventProducer{writer: writer, retries: retries}
}

// Publish 同步寫入, 會 block 到所有訊息寫入或放棄
func (p *OrderEventProducer) Publish(ctx context.Context, events ...event.Event) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, evt := range events {
		msg, err := convertToMessage(evt)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	var err error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("publish order events: %w", ctx.Err())
		}
		err = p.writer.WriteMessages(ctx, msgs...)
		if err == nil {
			return nil
		}
		if !isTemporary(err) {
			break
		}
	}
	return fmt.Errorf("publish order events: %w", err)
}

func (p *OrderEventProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

func convertToMessage(evt event.Event) (kafka.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s: %w", evt.Type(), err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(evt.GetAggregateID(), 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(evt.Type())},
			{Key: HeaderEventID, Value: []byte(evt.GetID())},
		},
	}, nil
}

func isTemporary(err error) bool {
	var temp interface{ Temporary() bool }
	return errors.As(err, &temp) && temp.Temporary()
}
