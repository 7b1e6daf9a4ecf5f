package otp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// Sender hands a code to whatever delivers it to the customer.
type Sender interface {
	SendCode(ctx context.Context, email, code string) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSender publishes codes to the notification topic read by the mailer.
type KafkaSender struct {
	writer messageWriter
}

func NewKafkaSender(writer *kafka.Writer) *KafkaSender {
	return &KafkaSender{writer: writer}
}

type codeNotification struct {
	Type      string    `json:"type"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *KafkaSender) SendCode(ctx context.Context, email, code string) error {
	payload, err := json.Marshal(codeNotification{
		Type:      "verification-code",
		Email:     email,
		Code:      code,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte("verification." + email),
		Value: payload,
	})
}
