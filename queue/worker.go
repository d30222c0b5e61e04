package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/e-mutai/pesa-smart-guide/entities"
)

// Recommender is implemented by recommend.Service.
type Recommender interface {
	Recommend(ctx context.Context, profile entities.UserProfile) ([]entities.EnrichedFund, error)
}

// Worker runs recommendation jobs from the request queue and publishes each
// result to the job's reply queue under the same correlation id.
type Worker struct {
	channel     Channel
	reqQueue    string
	resQueue    string
	recommender Recommender
	logger      *zap.Logger
}

func NewWorker(channel Channel, reqQueue, resQueue string, recommender Recommender, logger *zap.Logger) *Worker {
	return &Worker{
		channel:     channel,
		reqQueue:    reqQueue,
		resQueue:    resQueue,
		recommender: recommender,
		logger:      logger.With(zap.String("caller", "RecommendationWorker")),
	}
}

// Serve blocks until the request queue closes or ctx is done, then waits for
// jobs in flight.
func (w *Worker) Serve(ctx context.Context) error {
	msgs, err := w.channel.Consume(
		w.reqQueue, // queue
		"",         // consumer
		false,      // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("consume jobs: %w", err)
	}

	w.logger.Info("worker is starting", zap.String("queue", w.reqQueue))

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func(msg amqp.Delivery) {
				defer wg.Done()
				w.handle(ctx, msg)
			}(msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg amqp.Delivery) {
	var (
		start  = time.Now()
		cid    = msg.CorrelationId
		logger = w.logger.With(zap.String("cid", cid))
	)

	logger.Info("start processing of request")

	var job entities.RecommendationJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		logger.Error(fmt.Errorf("decode job: %w", err).Error())
		if err := w.respond(ctx, msg, entities.RecommendationResult{ID: cid, Error: "malformed job"}); err != nil {
			logger.Error(fmt.Errorf("respond with error: %w", err).Error())
		}
		msg.Reject(false)
		return
	}

	res := entities.RecommendationResult{ID: cid}
	funds, err := w.recommender.Recommend(ctx, job.Profile)
	if err != nil {
		logger.Error(fmt.Errorf("recommend funds: %w", err).Error())
		res.Error = err.Error()
	} else {
		res.Funds = funds
	}

	if err := w.respond(ctx, msg, res); err != nil {
		logger.Error(fmt.Errorf("publish result: %w", err).Error())
		msg.Nack(false, true)
		return
	}

	msg.Ack(false)
	logger.Info("finish", zap.Duration("duration", time.Since(start)))
}

func (w *Worker) respond(ctx context.Context, msg amqp.Delivery, res entities.RecommendationResult) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshall result: %w", err)
	}

	replyTo := msg.ReplyTo
	if replyTo == "" {
		replyTo = w.resQueue
	}

	return w.channel.PublishWithContext(ctx,
		"",      // exchange
		replyTo, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: msg.CorrelationId,
			Body:          body,
			Priority:      msg.Priority,
		})
}
