package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/checkoutlab/hips-checkout/internal/checkout"
	"github.com/checkoutlab/hips-checkout/internal/hips"
	"github.com/checkoutlab/hips-checkout/worker"
	"github.com/hibiken/asynq"
)

const maxWebhookBodyBytes = 1 << 20

// hipsWebhookHandler receives provider deliveries. Everything that is not a
// verifiable, well-formed order.successful event is acknowledged without
// side effects so the provider stops retrying; only signature mismatches are
// refused outright.
func (app *application) hipsWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get(checkout.WebhookParam) != checkout.WebhookSuccessful {
		app.ackWebhook(w, checkout.StateIgnored)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)

	body, err := io.ReadAll(r.Body)

	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	signature := r.Header.Get(hips.SignatureHeader)

	if !hips.VerifySignature(body, signature, app.cfg.hips.webhookSecret) {
		app.metrics.ObserveWebhook(string(checkout.StateRejected))
		app.unauthorizedResponse(w, r, "invalid webhook signature")
		return
	}

	event, err := hips.ParseEvent(body)

	if err != nil {
		if errors.Is(err, hips.ErrMalformedEvent) {
			app.logger.Infow("discarding malformed webhook payload", "error", err)
			app.metrics.ObserveWebhook(string(checkout.StateRejected))
			app.ackWebhook(w, checkout.StateRejected)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	current := getUserFromCtx(r)
	if current.IsAnonymous() {
		current = nil
	}

	outcome, err := app.reconciler.Process(r.Context(), event, current)

	if err != nil {
		app.metrics.ObserveWebhook("error")
		app.serverErrorResponse(w, r, err)
		return
	}

	app.metrics.ObserveWebhook(string(outcome.State))

	if outcome.State == checkout.StateSettled {
		app.afterSettlement(w, outcome)
	}

	app.ackWebhook(w, outcome.State)
}

// afterSettlement handles the side effects that ride on a settled order:
// auto-login for a freshly provisioned guest account and the confirmation
// email task.
func (app *application) afterSettlement(w http.ResponseWriter, outcome *checkout.Outcome) {
	if outcome.CustomerProvisioned && outcome.Customer != nil {
		token, err := app.authToken.GenerateAccessToken(outcome.Customer.ID, app.cfg.auth.AccessExpiry)

		if err != nil {
			app.logger.Warnw("failed to issue access token for provisioned customer",
				"user_id", outcome.Customer.ID,
				"error", err,
			)
		} else {
			app.setAccessCookie(w, token)
		}
	}

	orderID := outcome.Order.ID

	app.background(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := app.taskDistributor.DistributeTaskSendOrderConfirmationEmail(ctx,
			&worker.SendOrderConfirmationEmailPayload{OrderID: orderID},
			asynq.Queue(worker.QueueCritical),
		)

		if err != nil {
			app.logger.Errorw("failed to enqueue order confirmation email", "order_id", orderID, "error", err)
		}
	})
}

func (app *application) ackWebhook(w http.ResponseWriter, state checkout.State) {
	app.successResponse(w, http.StatusOK, envelope{
		"received": true,
		"state":    state,
	})
}
