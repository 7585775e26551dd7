package kafka

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// Consumer wraps a Kafka reader with a worker pool. Messages are committed
// only after the handler succeeds or the retry budget (and optional DLQ) is
// exhausted, so a crash replays rather than drops.
type Consumer struct {
	cfg      *ConsumerConfig
	handler  MessageHandler
	reader   *kafka.Reader
	dlq      *kafka.Writer
	msgChan  chan kafka.Message
	stopOnce sync.Once
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewConsumer creates a consumer; a handler must be registered before Start.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:    "rainwatch",
		Workers:    2,
		BufferSize: 256,
		RetryMax:   3,
		BackoffMin: 100 * time.Millisecond,
		BackoffMax: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	c := &Consumer{
		cfg:     cfg,
		msgChan: make(chan kafka.Message, cfg.BufferSize),
	}

	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.DLQTopic,
			Balancer: &kafka.LeastBytes{},
		}
	}

	return c, nil
}

// RegisterHandler binds the topic handler.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	c.handler = h
}

// Start begins fetching and dispatching messages. It returns once the fetch
// loop exits.
func (c *Consumer) Start() error {
	if c.handler == nil {
		return fmt.Errorf("no handler registered")
	}

	c.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers: c.cfg.Brokers,
		GroupID: c.cfg.GroupID,
		Topic:   c.handler.Topic(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	for i := 0; i < c.cfg.Workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx)
	}

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			close(c.msgChan)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}
		select {
		case c.msgChan <- msg:
		case <-ctx.Done():
			close(c.msgChan)
			return nil
		}
	}
}

func (c *Consumer) worker(ctx context.Context) {
	defer c.wg.Done()
	for msg := range c.msgChan {
		c.handleWithRetry(ctx, msg)
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			log.Printf("kafka consumer: commit failed: %v", err)
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, msg kafka.Message) {
	backoff := c.cfg.BackoffMin
	for attempt := 0; ; attempt++ {
		err := c.handler.Handle(ctx, msg.Value)
		if err == nil {
			return
		}
		if attempt >= c.cfg.RetryMax {
			log.Printf("kafka consumer: giving up on message after %d attempts: %v", attempt+1, err)
			c.deadLetter(ctx, msg)
			return
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		backoff *= 2
		if backoff > c.cfg.BackoffMax {
			backoff = c.cfg.BackoffMax
		}
	}
}

func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message) {
	if c.dlq == nil {
		return
	}
	if err := c.dlq.WriteMessages(ctx, kafka.Message{Key: msg.Key, Value: msg.Value}); err != nil {
		log.Printf("kafka consumer: dlq write failed: %v", err)
	}
}

// Stop cancels the fetch loop, drains workers, and closes the reader.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}

		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
		}

		if c.reader != nil {
			err = c.reader.Close()
		}
		if c.dlq != nil {
			_ = c.dlq.Close()
		}
	})
	return err
}
