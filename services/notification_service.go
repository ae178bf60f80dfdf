package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/kendall-kelly/shg-marketplace-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier delivers a notification to one sink
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification) error
}

// NotificationStore persists notifications and serves the in-app inbox
type NotificationStore struct {
	db *gorm.DB
}

// NewNotificationStore creates a NotificationStore over db
func NewNotificationStore(db *gorm.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// Notify stores n as unread
func (s *NotificationStore) Notify(ctx context.Context, n *models.Notification) error {
	n.IsRead = false
	if n.Type == "" {
		n.Type = models.NotificationInfo
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

// ListForUser returns the user's notifications, newest first
func (s *NotificationStore) ListForUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	notifications := []models.Notification{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		return nil, dependency("Failed to fetch notifications", err)
	}
	return notifications, nil
}

// MarkRead flags one of the user's notifications as read
func (s *NotificationStore) MarkRead(ctx context.Context, userID uint, id string) (*models.Notification, error) {
	var n models.Notification
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("NOTIFICATION_NOT_FOUND", "Notification not found")
	}
	if err != nil {
		return nil, dependency("Failed to fetch notification", err)
	}

	if !n.IsRead {
		if err := s.db.WithContext(ctx).Model(&n).Update("is_read", true).Error; err != nil {
			return nil, dependency("Failed to update notification", err)
		}
		n.IsRead = true
	}
	return &n, nil
}

// MarkAllRead flags every unread notification of the user and returns how many changed
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, dependency("Failed to update notifications", res.Error)
	}
	return res.RowsAffected, nil
}

// notificationEvent is the Kafka payload for a notification
type notificationEvent struct {
	ID      string                  `json:"id"`
	UserID  uint                    `json:"userId"`
	Message string                  `json:"message"`
	Type    models.NotificationType `json:"type"`
	Link    string                  `json:"link,omitempty"`
}

// KafkaNotifier publishes notifications to a topic for push delivery
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewKafkaProducer connects a synchronous producer to brokers
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return producer, nil
}

// NewKafkaNotifier creates a KafkaNotifier writing to topic
func NewKafkaNotifier(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic, logger: logger}
}

// Notify publishes n keyed by recipient so one user's notifications stay ordered
func (k *KafkaNotifier) Notify(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(notificationEvent{
		ID:      n.ID,
		UserID:  n.UserID,
		Message: n.Message,
		Type:    n.Type,
		Link:    n.Link,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(fmt.Sprintf("%d", n.UserID)),
		Value: sarama.ByteEncoder(payload),
	}
	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	k.logger.Debug("Notification published",
		zap.String("topic", k.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Sink is a named notification destination
type Sink struct {
	Name     string
	Notifier Notifier
}

// FanoutNotifier delivers to every sink in order and reports all failures together.
// A failing sink does not stop the ones after it.
type FanoutNotifier struct {
	sinks   []Sink
	observe func(sink, result string)
}

// NewFanoutNotifier combines sinks; the first one should assign the notification id.
// observe, if not nil, is called once per sink with "ok" or "error".
func NewFanoutNotifier(observe func(sink, result string), sinks ...Sink) *FanoutNotifier {
	return &FanoutNotifier{sinks: sinks, observe: observe}
}

func (f *FanoutNotifier) Notify(ctx context.Context, n *models.Notification) error {
	var errs []error
	for _, sink := range f.sinks {
		result := "ok"
		if err := sink.Notifier.Notify(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name, err))
			result = "error"
		}
		if f.observe != nil {
			f.observe(sink.Name, result)
		}
	}
	return errors.Join(errs...)
}

// notifyBestEffort emits n and only logs failures; notification loss never fails the caller
func notifyBestEffort(ctx context.Context, notifier Notifier, logger *zap.Logger, n *models.Notification) {
	if notifier == nil {
		return
	}
	if err := notifier.Notify(ctx, n); err != nil {
		logger.Warn("Failed to emit notification",
			zap.Uint("user_id", n.UserID),
			zap.String("type", string(n.Type)),
			zap.Error(err),
		)
	}
}
