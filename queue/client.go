package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/e-mutai/pesa-smart-guide/entities"
)

var ErrClosed = errors.New("reply consumer closed")

// Client publishes recommendation jobs and matches replies to callers by
// correlation id. Listen must be running for Recommend to return.
type Client struct {
	channel  Channel
	reqQueue string
	resQueue string
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]chan entities.RecommendationResult
	closed  bool
}

func NewClient(channel Channel, reqQueue, resQueue string, logger *zap.Logger) *Client {
	return &Client{
		channel:  channel,
		reqQueue: reqQueue,
		resQueue: resQueue,
		logger:   logger.With(zap.String("caller", "RecommendationQueueClient")),
		pending:  make(map[string]chan entities.RecommendationResult),
	}
}

func (c *Client) Recommend(ctx context.Context, profile entities.UserProfile) (entities.RecommendationResult, error) {
	cid := uuid.New().String()
	logger := c.logger.With(zap.String("method", "Recommend"), zap.String("cid", cid))

	body, err := json.Marshal(entities.RecommendationJob{ID: cid, Profile: profile})
	if err != nil {
		return entities.RecommendationResult{}, fmt.Errorf("marshall job: %w", err)
	}

	reply := make(chan entities.RecommendationResult, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return entities.RecommendationResult{}, ErrClosed
	}
	c.pending[cid] = reply
	c.mu.Unlock()
	defer c.forget(cid)

	if err := c.channel.PublishWithContext(ctx,
		"",         // exchange
		c.reqQueue, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: cid,
			ReplyTo:       c.resQueue,
			Body:          body,
		}); err != nil {
		return entities.RecommendationResult{}, fmt.Errorf("publish job: %w", err)
	}
	logger.Debug("job published")

	select {
	case res, ok := <-reply:
		if !ok {
			return entities.RecommendationResult{}, ErrClosed
		}
		return res, nil
	case <-ctx.Done():
		return entities.RecommendationResult{}, fmt.Errorf("await reply: %w", ctx.Err())
	}
}

// Listen consumes the reply queue until it closes or ctx is done.
func (c *Client) Listen(ctx context.Context) error {
	logger := c.logger.With(zap.String("method", "Listen"))

	msgs, err := c.channel.Consume(
		c.resQueue, // queue
		"",         // consumer
		true,       // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("consume replies: %w", err)
	}
	defer c.close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return ErrClosed
			}
			c.dispatch(logger, d)
		}
	}
}

func (c *Client) dispatch(logger *zap.Logger, d amqp.Delivery) {
	var res entities.RecommendationResult
	if err := json.Unmarshal(d.Body, &res); err != nil {
		logger.Error(fmt.Errorf("decode reply %s: %w", d.CorrelationId, err).Error())
		res = entities.RecommendationResult{ID: d.CorrelationId, Error: "malformed reply"}
	}

	c.mu.Lock()
	reply, ok := c.pending[d.CorrelationId]
	c.mu.Unlock()
	if !ok {
		logger.Info(fmt.Sprintf("received a reply with unknown cid %s", d.CorrelationId))
		return
	}
	select {
	case reply <- res:
	default:
		logger.Info(fmt.Sprintf("dropped a duplicate reply for cid %s", d.CorrelationId))
	}
}

func (c *Client) forget(cid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, cid)
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for cid, reply := range c.pending {
		close(reply)
		delete(c.pending, cid)
	}
}
