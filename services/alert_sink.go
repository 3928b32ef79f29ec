package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/utils"
	"gorm.io/gorm"
)

// AlertSink delivers notifier alerts to a presentation layer.
type AlertSink interface {
	Emit(ctx context.Context, alert Alert) error
}

// AlertSinkFunc adapts a function to AlertSink.
type AlertSinkFunc func(ctx context.Context, alert Alert) error

func (f AlertSinkFunc) Emit(ctx context.Context, alert Alert) error {
	return f(ctx, alert)
}

// LogSink writes alerts to the info logger.
type LogSink struct{}

func (LogSink) Emit(_ context.Context, alert Alert) error {
	utils.InfoLogger.WithFields(logrus.Fields{
		"kind":  alert.Kind,
		"cue":   alert.Cue,
		"count": alert.Count,
	}).Info(alert.Message)
	return nil
}

// NotificationSink stores alerts as Notification rows for dashboards to poll.
type NotificationSink struct {
	DB *gorm.DB
}

func NewNotificationSink(db *gorm.DB) *NotificationSink {
	return &NotificationSink{DB: db}
}

func (s *NotificationSink) Emit(ctx context.Context, alert Alert) error {
	n := models.Notification{
		Kind:        string(alert.Kind),
		Cue:         alert.Cue,
		Count:       alert.Count,
		TableNumber: alert.TableNumber,
		OrderID:     alert.OrderID,
		CallID:      alert.CallID,
		Message:     alert.Message,
		CreatedAt:   alert.At,
	}
	if err := s.DB.WithContext(ctx).Create(&n).Error; err != nil {
		return fmt.Errorf("saving notification: %w", err)
	}
	return nil
}

// MessageWriter is the part of *kafka.Writer the sink needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSink publishes alerts as JSON keyed by kind.
type KafkaSink struct {
	Writer MessageWriter
}

// kafkaBatchTimeout bounds how long a synchronous write waits for a batch to
// fill. Alerts arrive one at a time, so the library default of one second
// would delay every poll.
const kafkaBatchTimeout = 10 * time.Millisecond

// NewKafkaWriter returns a synchronous writer so publish errors reach the
// notifier. Callers Close it once the notifier has stopped.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: kafkaBatchTimeout,
	}
}

func NewKafkaSink(writer MessageWriter) *KafkaSink {
	return &KafkaSink{Writer: writer}
}

func (s *KafkaSink) Emit(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	return s.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(alert.Kind),
		Value: payload,
	})
}

// MultiSink fans an alert out to every sink and joins their errors.
type MultiSink []AlertSink

func (m MultiSink) Emit(ctx context.Context, alert Alert) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Emit(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
