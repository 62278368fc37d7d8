package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/cashflow/payflow/internal/core"
	"github.com/cashflow/payflow/internal/port/input"
)

// render prints a result: its message, then a table for reporting commands.
func render(w io.Writer, result *input.Result) {
	if result.Message != "" {
		fmt.Fprintln(w, result.Message)
	}

	switch result.Command {
	case "STATUS", "LIST", "SETTLEMENT":
		if len(result.Payments) > 0 {
			writePayments(w, result.Payments)
		}
	case "AUDIT":
		if len(result.Events) > 0 {
			writeEvents(w, result.Events)
		}
	}
}

func writePayments(w io.Writer, payments []core.Payment) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAMOUNT\tCENTS\tCURRENCY\tMERCHANT\tSTATE\tREASON\tREFUNDED")
	for _, p := range payments {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Amount, p.AmountCents, p.Currency, p.MerchantID, p.State,
			dash(p.ReasonCode), dash(p.RefundedAmount))
	}
	tw.Flush()
}

func writeEvents(w io.Writer, events []core.TransitionEvent) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tPAYMENT\tOPERATION\tFROM\tTO\tCOMMENT")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.OccurredAt.Format(time.RFC3339), e.PaymentID, e.Operation,
			dash(string(e.FromState)), e.ToState, dash(e.Comment))
	}
	tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
