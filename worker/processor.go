package worker

import (
	"context"

	"github.com/checkoutlab/hips-checkout/internal/mailer"
	"github.com/checkoutlab/hips-checkout/internal/store"
	"github.com/hibiken/asynq"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

type TaskProcessor interface {
	Start() error
	Close()
	ProcessSendOrderConfirmationEmailTask(ctx context.Context, task *asynq.Task) error
}

type RedisTaskProcessor struct {
	server     *asynq.Server
	store      *store.Storage
	logger     asynq.Logger
	mailClient mailer.Client
	currency   string
}

func NewRedisTaskProcessor(redisOpt asynq.RedisClientOpt, store *store.Storage, mailClient mailer.Client, currency string) TaskProcessor {
	logger := NewLogger()
	server := asynq.NewServer(redisOpt, asynq.Config{
		Queues: map[string]int{
			QueueCritical: 10,
			QueueDefault:  5,
		},

		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error(
				"message", "failed to process task", "type",
				task.Type(), "payload", task.Payload(),
				"err", err,
			)
		}),
		Concurrency: 10,
		Logger:      logger,
	})

	return &RedisTaskProcessor{
		server:     server,
		store:      store,
		mailClient: mailClient,
		currency:   currency,
		logger:     logger,
	}
}

func (processor *RedisTaskProcessor) Start() error {
	mux := asynq.NewServeMux()

	mux.HandleFunc(TaskSendOrderConfirmationEmail, processor.ProcessSendOrderConfirmationEmailTask)

	return processor.server.Start(mux)
}

func (processor *RedisTaskProcessor) Close() {
	processor.server.Shutdown()
}
