package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cashflow/payflow/internal/core"
	"github.com/cashflow/payflow/internal/core/validator"
	"github.com/cashflow/payflow/internal/port/input"
	"github.com/labstack/echo/v4"
)

// PaymentHandler is a primary adapter (HTTP handler)
type PaymentHandler struct {
	paymentService input.PaymentService
	commands       input.CommandProcessor
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService input.PaymentService, commands input.CommandProcessor) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		commands:       commands,
	}
}

// CommandRequest carries one raw command line
type CommandRequest struct {
	Line string `json:"line"`
}

// CommandResponse represents the outcome of a command line
type CommandResponse struct {
	Command  string            `json:"command,omitempty"`
	Comment  string            `json:"comment,omitempty"`
	Message  string            `json:"message,omitempty"`
	Payments []PaymentResponse `json:"payments,omitempty"`
	Events   []EventResponse   `json:"events,omitempty"`
}

// CreatePaymentRequest represents the HTTP request to create a payment
type CreatePaymentRequest struct {
	ID         string `json:"id"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	MerchantID string `json:"merchant_id"`
	Comment    string `json:"comment"`
}

// VoidPaymentRequest represents the HTTP request to void a payment
type VoidPaymentRequest struct {
	ReasonCode string `json:"reason_code"`
	Comment    string `json:"comment"`
}

// RefundPaymentRequest represents the HTTP request to refund a payment
type RefundPaymentRequest struct {
	Amount  string `json:"amount"`
	Comment string `json:"comment"`
}

// TransitionRequest carries the optional comment for body-less transitions
type TransitionRequest struct {
	Comment string `json:"comment"`
}

// PaymentResponse represents the HTTP response for a payment
type PaymentResponse struct {
	ID                  string `json:"id"`
	Amount              string `json:"amount"`
	AmountCents         int64  `json:"amount_cents"`
	Currency            string `json:"currency"`
	MerchantID          string `json:"merchant_id"`
	State               string `json:"state"`
	ReasonCode          string `json:"reason_code,omitempty"`
	RefundedAmount      string `json:"refunded_amount,omitempty"`
	RefundedAmountCents int64  `json:"refunded_amount_cents,omitempty"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
}

// TransitionResponse wraps a payment with the operation outcome
type TransitionResponse struct {
	Payment PaymentResponse `json:"payment"`
	Changed bool            `json:"changed"`
	Message string          `json:"message"`
}

// EventResponse represents a transition event
type EventResponse struct {
	ID         string `json:"id"`
	PaymentID  string `json:"payment_id"`
	Operation  string `json:"operation"`
	FromState  string `json:"from_state,omitempty"`
	ToState    string `json:"to_state"`
	Comment    string `json:"comment,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// ErrorResponse represents the JSON error body
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// ExecuteCommand runs one command line through the dispatcher
func (h *PaymentHandler) ExecuteCommand(c echo.Context) error {
	var req CommandRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}

	result, err := h.commands.Execute(c.Request().Context(), req.Line)
	if err != nil {
		return writeError(c, err)
	}

	resp := CommandResponse{
		Command: result.Command,
		Comment: result.Comment,
		Message: result.Message,
	}
	for _, p := range result.Payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(p))
	}
	for _, e := range result.Events {
		resp.Events = append(resp.Events, toEventResponse(e))
	}
	return c.JSON(http.StatusOK, resp)
}

// CreatePayment handles payment creation
func (h *PaymentHandler) CreatePayment(c echo.Context) error {
	var req CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}

	args := []string{req.ID, req.Amount, req.Currency, req.MerchantID}
	const cmd = string(core.OpCreate)
	paymentID, err := validator.Required(cmd, args, 0, "Payment ID")
	if err != nil {
		return writeError(c, err)
	}
	rawAmount, err := validator.Required(cmd, args, 1, "Amount")
	if err != nil {
		return writeError(c, err)
	}
	amount, err := validator.Amount(rawAmount)
	if err != nil {
		return writeError(c, err)
	}
	rawCurrency, err := validator.Required(cmd, args, 2, "Currency")
	if err != nil {
		return writeError(c, err)
	}
	currency, err := validator.Currency(rawCurrency)
	if err != nil {
		return writeError(c, err)
	}
	merchantID, err := validator.Required(cmd, args, 3, "Merchant ID")
	if err != nil {
		return writeError(c, err)
	}

	resp, err := h.paymentService.CreatePayment(c.Request().Context(), input.CreatePaymentRequest{
		PaymentID:  paymentID,
		Amount:     amount,
		Currency:   currency,
		MerchantID: merchantID,
		Comment:    req.Comment,
	})
	if err != nil {
		return writeError(c, err)
	}

	status := http.StatusCreated
	if !resp.Changed {
		status = http.StatusOK
	}
	return c.JSON(status, toTransitionResponse(resp))
}

// AuthorizePayment handles payment authorization
func (h *PaymentHandler) AuthorizePayment(c echo.Context) error {
	return h.simpleTransition(c, h.paymentService.AuthorizePayment)
}

// CapturePayment handles payment capture
func (h *PaymentHandler) CapturePayment(c echo.Context) error {
	return h.simpleTransition(c, h.paymentService.CapturePayment)
}

// SettlePayment handles payment settlement
func (h *PaymentHandler) SettlePayment(c echo.Context) error {
	return h.simpleTransition(c, h.paymentService.SettlePayment)
}

// VoidPayment handles payment voiding
func (h *PaymentHandler) VoidPayment(c echo.Context) error {
	var req VoidPaymentRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	reasonCode, err := validator.Required(string(core.OpVoid), []string{req.ReasonCode}, 0, "Reason Code")
	if err != nil {
		return writeError(c, err)
	}

	resp, err := h.paymentService.VoidPayment(c.Request().Context(), input.VoidPaymentRequest{
		PaymentID:  c.Param("id"),
		ReasonCode: reasonCode,
		Comment:    req.Comment,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toTransitionResponse(resp))
}

// RefundPayment handles payment refunds
func (h *PaymentHandler) RefundPayment(c echo.Context) error {
	var req RefundPaymentRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	rawAmount, err := validator.Required(string(core.OpRefund), []string{req.Amount}, 0, "Amount")
	if err != nil {
		return writeError(c, err)
	}
	amount, err := validator.Amount(rawAmount)
	if err != nil {
		return writeError(c, err)
	}

	resp, err := h.paymentService.RefundPayment(c.Request().Context(), input.RefundPaymentRequest{
		PaymentID: c.Param("id"),
		Amount:    amount,
		Comment:   req.Comment,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toTransitionResponse(resp))
}

// GetPayment handles payment retrieval by ID
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	payment, err := h.paymentService.GetPayment(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toPaymentResponse(*payment))
}

// ListPayments handles listing every payment
func (h *PaymentHandler) ListPayments(c echo.Context) error {
	payments, err := h.paymentService.ListPayments(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	resp := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = toPaymentResponse(p)
	}
	return c.JSON(http.StatusOK, resp)
}

type transitionFunc func(ctx context.Context, req input.TransitionRequest) (*input.PaymentResponse, error)

func (h *PaymentHandler) simpleTransition(c echo.Context, fn transitionFunc) error {
	var req TransitionRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return badBody(c)
		}
	}

	resp, err := fn(c.Request().Context(), input.TransitionRequest{
		PaymentID: c.Param("id"),
		Comment:   req.Comment,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toTransitionResponse(resp))
}

// statusFor maps an error kind to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrMalformedLine), errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrUnknownCommand):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConflict), errors.Is(err, core.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, core.ErrOverLimit):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c echo.Context, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
		msg = "internal error"
	}
	return c.JSON(status, ErrorResponse{Code: core.ErrorCode(err), Error: msg})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "BAD_REQUEST", Error: "Invalid request body"})
}

func toPaymentResponse(p core.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                  p.ID,
		Amount:              p.Amount,
		AmountCents:         p.AmountCents,
		Currency:            string(p.Currency),
		MerchantID:          p.MerchantID,
		State:               string(p.State),
		ReasonCode:          p.ReasonCode,
		RefundedAmount:      p.RefundedAmount,
		RefundedAmountCents: p.RefundedAmountCents,
		CreatedAt:           p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           p.UpdatedAt.Format(time.RFC3339),
	}
}

func toTransitionResponse(resp *input.PaymentResponse) TransitionResponse {
	return TransitionResponse{
		Payment: toPaymentResponse(resp.Payment),
		Changed: resp.Changed,
		Message: resp.Message,
	}
}

func toEventResponse(e core.TransitionEvent) EventResponse {
	return EventResponse{
		ID:         e.ID.String(),
		PaymentID:  e.PaymentID,
		Operation:  string(e.Operation),
		FromState:  string(e.FromState),
		ToState:    string(e.ToState),
		Comment:    e.Comment,
		OccurredAt: e.OccurredAt.Format(time.RFC3339),
	}
}
