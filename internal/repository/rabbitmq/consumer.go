package rabbitmq

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/lyuyangh/explainaboard-web/internal/domain/entity"
)

// AnalyzerUseCase processes one system.created message.
type AnalyzerUseCase interface {
	ProcessSystem(ctx context.Context, msg *entity.SystemCreatedMessage) error
}

type AnalyzerConsumer struct {
	channel     *amqp.Channel
	exchange    string
	routingKey  string
	queue       string
	UseCase     AnalyzerUseCase
	prefetchCnt int
}

func NewAnalyzerConsumer(conn *amqp.Connection, exchange, routingKey, queue string, uc AnalyzerUseCase) (*AnalyzerConsumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	consumer := &AnalyzerConsumer{
		channel:     ch,
		exchange:    exchange,
		routingKey:  routingKey,
		queue:       queue,
		UseCase:     uc,
		prefetchCnt: 1,
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return nil, err
	}

	_, err = ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}

	if err := ch.QueueBind(
		queue,
		routingKey,
		exchange,
		false,
		nil,
	); err != nil {
		return nil, err
	}

	if err := ch.Qos(consumer.prefetchCnt, 0, false); err != nil {
		return nil, err
	}

	return consumer, nil
}

func (c *AnalyzerConsumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("AnalyzerConsumer shutting down")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				log.Println("RabbitMQ channel closed")
				return nil
			}

			var created entity.SystemCreatedMessage
			if err := json.Unmarshal(msg.Body, &created); err != nil {
				log.Println("failed to unmarshal system message:", err)
				msg.Nack(false, false)
				continue
			}

			go func(created entity.SystemCreatedMessage, msg amqp.Delivery) {
				if err := c.UseCase.ProcessSystem(ctx, &created); err != nil {
					log.Printf("failed to analyze system %s: %v\n", created.SystemID, err)
					msg.Nack(false, true)
					return
				}
				msg.Ack(false)
			}(created, msg)
		}
	}
}
