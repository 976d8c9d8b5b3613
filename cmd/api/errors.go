package main

import (
	"errors"
	"net/http"

	"github.com/checkoutlab/hips-checkout/internal/validator"
)

type ResponseErrorCode string

const (
	ErrorCodeBadRequest          ResponseErrorCode = "bad_request"
	ErrorCodeUnauthorized        ResponseErrorCode = "unauthorized"
	ErrorCodeNotFound            ResponseErrorCode = "not_found"
	ErrorTooManyRequest          ResponseErrorCode = "too_many_requests"
	ErrorCodeEmptyCart           ResponseErrorCode = "empty_cart"
	ErrorCodePaymentProvider     ResponseErrorCode = "payment_provider_error"
	ErrorCodeInternalServerError ResponseErrorCode = "internal_server_error"
)

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request error", "method", r.Method, "path", r.URL.Path, "error", err)

	var validationErrors *validator.ValidationErrors

	if errors.As(err, &validationErrors) {
		app.errorResponse(w, http.StatusBadRequest, validationErrors.FieldErrors(), envelope{"code": ErrorCodeBadRequest})
		return
	}
	app.errorResponse(w, http.StatusBadRequest, err.Error(), envelope{"code": ErrorCodeBadRequest})
}

func (app *application) unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	app.logger.Warnw(
		"unauthorized access",
		"method", r.Method,
		"path", r.URL.Path,
	)

	app.errorResponse(w, http.StatusUnauthorized, message, envelope{"code": ErrorCodeUnauthorized})
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter) {
	message := "rate limit exceeded"
	app.errorResponse(w, http.StatusTooManyRequests, message, envelope{"code": ErrorTooManyRequest})
}

func (app *application) emptyCartResponse(w http.ResponseWriter, r *http.Request) {
	app.logger.Infow("checkout attempted with empty cart", "method", r.Method, "path", r.URL.Path)

	app.errorResponse(w, http.StatusBadRequest, "your cart is empty", envelope{"code": ErrorCodeEmptyCart})
}

// paymentProviderErrorResponse surfaces a provider-side rejection as a
// notice. No order exists at this point; the shopper can retry checkout.
func (app *application) paymentProviderErrorResponse(w http.ResponseWriter, r *http.Request, message string) {
	app.logger.Warnw("payment provider rejected request",
		"method", r.Method,
		"path", r.URL.Path,
		"provider_message", message,
	)

	app.errorResponse(w, http.StatusBadGateway, message, envelope{"code": ErrorCodePaymentProvider})
}

func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)

	message := "the server encountered a problem and could not process your request"
	app.errorResponse(w, http.StatusInternalServerError, message, envelope{"code": ErrorCodeInternalServerError})
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, details ...string) {
	app.logger.Infow("not found",
		"method", r.Method,
		"path", r.URL.Path,
	)

	message := "the requested resource could not be found"
	if len(details) > 0 && details[0] != "" {
		message = details[0]
	}

	app.errorResponse(w, http.StatusNotFound, message, envelope{"code": ErrorCodeNotFound})
}

func (app *application) errorResponse(w http.ResponseWriter, status int, message any, info ...envelope) {
	error := envelope{
		"message": message,
	}

	env := envelope{
		"status": "error",
		"error":  error,
	}

	if len(info) == 1 && len(info[0]) > 0 {
		for key, value := range info[0] {
			error[key] = value
		}
	}

	err := app.writeJSON(w, status, env, nil)
	if err != nil {
		app.logger.Info("Failed to write JSON response:", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (app *application) successResponse(w http.ResponseWriter, status int, data any) {
	env := envelope{
		"status": "success",
		"data":   data,
	}

	err := app.writeJSON(w, status, env, nil)
	if err != nil {
		app.logger.Info("Failed to write JSON response:", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}
