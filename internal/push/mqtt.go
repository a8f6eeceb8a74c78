package push

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"okusuri/backend/internal/model"
)

// MQTTChannel publishes reminder notifications to a per-user topic that the
// device bridge subscribes to.
type MQTTChannel struct {
	client mqtt.Client
	logger *zap.Logger
}

type MQTTOptions struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

func NewMQTTChannel(opts MQTTOptions, logger *zap.Logger) (*MQTTChannel, error) {
	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(opts.Broker)
	clientOpts.SetClientID(opts.ClientID)
	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetCleanSession(true)

	client := mqtt.NewClient(clientOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker: %w", token.Error())
	}

	return &MQTTChannel{client: client, logger: logger}, nil
}

func (c *MQTTChannel) Schedule(ctx context.Context, userID string, notification model.PushNotification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal push notification: %w", err)
	}
	if err := c.publish(topicFor(userID), payload); err != nil {
		return err
	}
	c.logger.Debug("push notification scheduled",
		zap.String("user_id", userID),
		zap.Int64("medication_id", notification.MedicationID),
	)
	return nil
}

func (c *MQTTChannel) Cancel(ctx context.Context, userID string, medicationID int64) error {
	payload, err := json.Marshal(model.PushNotification{
		MedicationID:     medicationID,
		NotificationType: model.NotificationTypeCancel,
	})
	if err != nil {
		return fmt.Errorf("marshal push cancel: %w", err)
	}
	return c.publish(topicFor(userID), payload)
}

func (c *MQTTChannel) Close() {
	c.client.Disconnect(250)
}

func (c *MQTTChannel) publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, 1, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("publish to %s: %w", topic, token.Error())
	}
	return nil
}

func topicFor(userID string) string {
	return fmt.Sprintf("okusuri/users/%s/notifications", userID)
}
