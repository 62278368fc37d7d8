// Package validator holds the stateless argument checks shared by every
// command handler.
package validator

import (
	"fmt"

	"github.com/cashflow/payflow/internal/core"
)

// ArgsLength fails when fewer than minimum arguments were given for command.
func ArgsLength(command string, args []string, minimum int) error {
	if len(args) < minimum {
		return core.Validation(fmt.Sprintf(
			"Insufficient arguments for %s command, one or more arguments is missing.", command))
	}
	return nil
}

// Required returns args[pos], failing when it is missing or empty.
func Required(command string, args []string, pos int, field string) (string, error) {
	if pos >= len(args) || args[pos] == "" {
		return "", core.Validation(fmt.Sprintf("%s is required for %s command", field, command))
	}
	return args[pos], nil
}

// Amount parses a strictly positive decimal amount.
func Amount(raw string) (core.Money, error) {
	return core.ParseMoney(raw)
}

// Currency checks code against the allow-list.
func Currency(code string) (core.Currency, error) {
	c := core.Currency(code)
	if !c.IsAllowed() {
		return "", core.UnsupportedCurrency(code)
	}
	return c, nil
}
