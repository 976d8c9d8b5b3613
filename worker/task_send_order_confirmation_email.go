package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/checkoutlab/hips-checkout/internal/mailer"
	"github.com/hibiken/asynq"
)

var TaskSendOrderConfirmationEmail = "send_order_confirmation_email"

type SendOrderConfirmationEmailPayload struct {
	OrderID string `json:"order_id"`
}

func (rt *RedisTaskDistributor) DistributeTaskSendOrderConfirmationEmail(ctx context.Context, payload *SendOrderConfirmationEmailPayload, opts ...asynq.Option) error {
	jsonPayload, err := json.Marshal(payload)

	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	orderConfirmationEmailTask := asynq.NewTask(TaskSendOrderConfirmationEmail, jsonPayload, opts...)

	taskInfo, err := rt.client.EnqueueContext(ctx,
		orderConfirmationEmailTask,
		asynq.Unique(time.Second*10),
		asynq.TaskID(payload.OrderID),
	)

	if err != nil {
		return err
	}

	rt.logger.Info(
		"message", "enqueued task",
		"type", taskInfo.Type,
		"queue", taskInfo.Queue,
		"max_retry", taskInfo.MaxRetry,
	)

	return nil
}

func (processor *RedisTaskProcessor) ProcessSendOrderConfirmationEmailTask(ctx context.Context, task *asynq.Task) error {
	var payload SendOrderConfirmationEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	order, err := processor.store.Orders.GetByID(ctx, payload.OrderID)
	if err != nil {
		return fmt.Errorf("failed to fetch order: %w", err)
	}

	email := order.Billing.Email

	if order.UserID != "" {
		user, err := processor.store.Users.GetByID(ctx, order.UserID)
		if err != nil {
			return fmt.Errorf("failed to fetch user: %w", err)
		}

		email = user.Email
	}

	if email == "" {
		processor.logger.Warn("message", "order has no recipient email, skipping confirmation", "order_id", payload.OrderID)
		return nil
	}

	items, err := processor.store.Orders.GetItems(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch order items: %w", err)
	}

	err = processor.mailClient.Send(&mailer.MailOption{
		To:           []string{email},
		TemplateFile: mailer.OrderConfirmationEmailTemplate,
	}, map[string]interface{}{
		"OrderKey":  order.OrderKey,
		"FirstName": order.Billing.FirstName,
		"Items":     items,
		"Total":     order.TotalAmount,
		"Currency":  processor.currency,
	})

	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	processor.logger.Info("message", "order confirmation email sent", "order_id", payload.OrderID, "email", email)

	return nil
}
