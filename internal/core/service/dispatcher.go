package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cashflow/payflow/internal/core"
	"github.com/cashflow/payflow/internal/core/command"
	"github.com/cashflow/payflow/internal/core/validator"
	"github.com/cashflow/payflow/internal/metrics"
	"github.com/cashflow/payflow/internal/port/input"
	"github.com/cashflow/payflow/internal/port/output"
	"go.uber.org/zap"
)

// CommandName is a recognized command tag. Matching is case-sensitive.
type CommandName string

const (
	CmdCreate     CommandName = "CREATE"
	CmdAuthorize  CommandName = "AUTHORIZE"
	CmdCapture    CommandName = "CAPTURE"
	CmdVoid       CommandName = "VOID"
	CmdRefund     CommandName = "REFUND"
	CmdSettle     CommandName = "SETTLE"
	CmdSettlement CommandName = "SETTLEMENT"
	CmdStatus     CommandName = "STATUS"
	CmdList       CommandName = "LIST"
	CmdAudit      CommandName = "AUDIT"
	CmdExit       CommandName = "EXIT"
)

// Commands lists every recognized command in display order.
var Commands = []CommandName{
	CmdCreate, CmdAuthorize, CmdCapture, CmdVoid, CmdRefund, CmdSettle,
	CmdSettlement, CmdStatus, CmdList, CmdAudit, CmdExit,
}

// Metric labels for lines that never reach a handler.
const (
	labelMalformed = "MALFORMED"
	labelUnknown   = "UNKNOWN"
)

type handlerFunc func(ctx context.Context, args []string, comment string) (*input.Result, error)

// Dispatcher implements the CommandProcessor input port. It tokenizes a
// line, routes it to the handler for its command and reports the outcome.
type Dispatcher struct {
	payments input.PaymentService
	audit    output.AuditTrail
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewDispatcher creates a new command dispatcher. audit and m may be nil.
func NewDispatcher(
	payments input.PaymentService,
	audit output.AuditTrail,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		payments: payments,
		audit:    audit,
		metrics:  m,
		logger:   logger,
	}
}

var _ input.CommandProcessor = (*Dispatcher)(nil)

// Execute runs one raw command line. A blank line yields an empty Result.
func (d *Dispatcher) Execute(ctx context.Context, raw string) (*input.Result, error) {
	start := time.Now()

	line, err := command.Tokenize(raw)
	if err != nil {
		d.metrics.RecordCommand(labelMalformed, outcome(err), time.Since(start))
		return nil, err
	}
	if line == nil {
		return &input.Result{}, nil
	}

	name := line.Name()
	handler, err := d.handlerFor(name)
	if err != nil {
		d.metrics.RecordCommand(labelUnknown, outcome(err), time.Since(start))
		d.logger.Debug("unknown command", zap.String("command", name))
		return nil, err
	}

	result, err := handler(ctx, line.Args(), line.Comment)
	d.metrics.RecordCommand(name, outcome(err), time.Since(start))
	if err != nil {
		d.logger.Debug("command failed",
			zap.String("command", name),
			zap.Strings("args", line.Args()),
			zap.Error(err),
		)
		return nil, err
	}

	result.Command = name
	result.Comment = line.Comment
	return result, nil
}

// handlerFor maps a command token to its handler. Every token outside the
// fixed vocabulary is rejected here.
func (d *Dispatcher) handlerFor(name string) (handlerFunc, error) {
	switch CommandName(name) {
	case CmdCreate:
		return d.create, nil
	case CmdAuthorize:
		return d.authorize, nil
	case CmdCapture:
		return d.capture, nil
	case CmdVoid:
		return d.void, nil
	case CmdRefund:
		return d.refund, nil
	case CmdSettle:
		return d.settle, nil
	case CmdSettlement:
		return d.settlement, nil
	case CmdStatus:
		return d.status, nil
	case CmdList:
		return d.list, nil
	case CmdAudit:
		return d.auditTrail, nil
	case CmdExit:
		return d.exit, nil
	default:
		return nil, core.UnknownCommand(name)
	}
}

func (d *Dispatcher) create(ctx context.Context, args []string, comment string) (*input.Result, error) {
	const cmd = string(CmdCreate)
	if err := validator.ArgsLength(cmd, args, 4); err != nil {
		return nil, err
	}

	paymentID, err := validator.Required(cmd, args, 0, "Payment ID")
	if err != nil {
		return nil, err
	}
	rawAmount, err := validator.Required(cmd, args, 1, "Amount")
	if err != nil {
		return nil, err
	}
	amount, err := validator.Amount(rawAmount)
	if err != nil {
		return nil, err
	}
	rawCurrency, err := validator.Required(cmd, args, 2, "Currency")
	if err != nil {
		return nil, err
	}
	currency, err := validator.Currency(rawCurrency)
	if err != nil {
		return nil, err
	}
	merchantID, err := validator.Required(cmd, args, 3, "Merchant ID")
	if err != nil {
		return nil, err
	}

	resp, err := d.payments.CreatePayment(ctx, input.CreatePaymentRequest{
		PaymentID:  paymentID,
		Amount:     amount,
		Currency:   currency,
		MerchantID: merchantID,
		Comment:    comment,
	})
	return fromResponse(resp, err)
}

func (d *Dispatcher) authorize(ctx context.Context, args []string, comment string) (*input.Result, error) {
	paymentID, err := singleID(CmdAuthorize, args)
	if err != nil {
		return nil, err
	}
	return fromResponse(d.payments.AuthorizePayment(ctx, input.TransitionRequest{PaymentID: paymentID, Comment: comment}))
}

func (d *Dispatcher) capture(ctx context.Context, args []string, comment string) (*input.Result, error) {
	paymentID, err := singleID(CmdCapture, args)
	if err != nil {
		return nil, err
	}
	return fromResponse(d.payments.CapturePayment(ctx, input.TransitionRequest{PaymentID: paymentID, Comment: comment}))
}

func (d *Dispatcher) settle(ctx context.Context, args []string, comment string) (*input.Result, error) {
	paymentID, err := singleID(CmdSettle, args)
	if err != nil {
		return nil, err
	}
	return fromResponse(d.payments.SettlePayment(ctx, input.TransitionRequest{PaymentID: paymentID, Comment: comment}))
}

func (d *Dispatcher) void(ctx context.Context, args []string, comment string) (*input.Result, error) {
	const cmd = string(CmdVoid)
	if err := validator.ArgsLength(cmd, args, 2); err != nil {
		return nil, err
	}
	paymentID, err := validator.Required(cmd, args, 0, "Payment ID")
	if err != nil {
		return nil, err
	}
	reasonCode, err := validator.Required(cmd, args, 1, "Reason Code")
	if err != nil {
		return nil, err
	}

	return fromResponse(d.payments.VoidPayment(ctx, input.VoidPaymentRequest{
		PaymentID:  paymentID,
		ReasonCode: reasonCode,
		Comment:    comment,
	}))
}

func (d *Dispatcher) refund(ctx context.Context, args []string, comment string) (*input.Result, error) {
	const cmd = string(CmdRefund)
	if err := validator.ArgsLength(cmd, args, 2); err != nil {
		return nil, err
	}
	paymentID, err := validator.Required(cmd, args, 0, "Payment ID")
	if err != nil {
		return nil, err
	}
	rawAmount, err := validator.Required(cmd, args, 1, "Amount")
	if err != nil {
		return nil, err
	}
	amount, err := validator.Amount(rawAmount)
	if err != nil {
		return nil, err
	}

	return fromResponse(d.payments.RefundPayment(ctx, input.RefundPaymentRequest{
		PaymentID: paymentID,
		Amount:    amount,
		Comment:   comment,
	}))
}

func (d *Dispatcher) status(ctx context.Context, args []string, _ string) (*input.Result, error) {
	paymentID, err := singleID(CmdStatus, args)
	if err != nil {
		return nil, err
	}

	payment, err := d.payments.GetPayment(ctx, paymentID)
	if errors.Is(err, core.ErrNotFound) {
		return &input.Result{Message: fmt.Sprintf("Payment ID %s not found.", paymentID)}, nil
	}
	if err != nil {
		return nil, err
	}

	return &input.Result{
		Message:  fmt.Sprintf("Status for Payment ID %s: %s", paymentID, payment.State),
		Payments: []core.Payment{*payment},
	}, nil
}

func (d *Dispatcher) settlement(ctx context.Context, args []string, _ string) (*input.Result, error) {
	const cmd = string(CmdSettlement)
	if err := validator.ArgsLength(cmd, args, 1); err != nil {
		return nil, err
	}
	batchID, err := validator.Required(cmd, args, 0, "Batch ID")
	if err != nil {
		return nil, err
	}

	all, err := d.payments.ListPayments(ctx)
	if err != nil {
		return nil, err
	}
	var settled []core.Payment
	for _, p := range all {
		if p.State == core.StateSettled {
			settled = append(settled, p)
		}
	}

	if len(settled) == 0 {
		return &input.Result{
			Message: fmt.Sprintf("Processing Batch ID %s for settlement... No payments found for settlement in this batch.", batchID),
		}, nil
	}
	return &input.Result{
		Message:  fmt.Sprintf("Processed settlement report for Batch ID: %s (%d payment(s))", batchID, len(settled)),
		Payments: settled,
	}, nil
}

func (d *Dispatcher) list(ctx context.Context, _ []string, _ string) (*input.Result, error) {
	payments, err := d.payments.ListPayments(ctx)
	if err != nil {
		return nil, err
	}
	return &input.Result{
		Message:  fmt.Sprintf("%d payment(s) on record.", len(payments)),
		Payments: payments,
	}, nil
}

func (d *Dispatcher) auditTrail(ctx context.Context, _ []string, _ string) (*input.Result, error) {
	if d.audit == nil {
		return &input.Result{Message: "AUDIT RECEIVED"}, nil
	}
	events, err := d.audit.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit trail: %w", err)
	}
	return &input.Result{
		Message: fmt.Sprintf("%d transition(s) recorded.", len(events)),
		Events:  events,
	}, nil
}

func (d *Dispatcher) exit(context.Context, []string, string) (*input.Result, error) {
	return &input.Result{Message: "Goodbye!", Exit: true}, nil
}

func singleID(name CommandName, args []string) (string, error) {
	cmd := string(name)
	if err := validator.ArgsLength(cmd, args, 1); err != nil {
		return "", err
	}
	return validator.Required(cmd, args, 0, "Payment ID")
}

func fromResponse(resp *input.PaymentResponse, err error) (*input.Result, error) {
	if err != nil {
		return nil, err
	}
	return &input.Result{
		Message:  resp.Message,
		Payments: []core.Payment{resp.Payment},
	}, nil
}

// outcome labels a command result for metrics.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(core.ErrorCode(err))
}
