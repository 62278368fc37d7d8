package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBatch(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestBatchThenNoInteractive(t *testing.T) {
	path := writeBatch(t, "payments.txt", strings.Join([]string{
		"CREATE P1 10.00 MYR M01 # first",
		"AUTHORIZE P1",
		"CAPTURE P1",
		"SETTLE P1",
		"REFUND P1 10.00",
		"CAPTURE P1",
		"STATUS P1",
	}, "\n"))

	out, errOut, err := execute(t, "", "--no-interactive", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Loading dataset from file...")
	assert.Contains(t, out, "Payment with ID: P1 has been refunded 10.00 MYR.")
	assert.Contains(t, out, "Status for Payment ID P1: REFUNDED")
	assert.Contains(t, out, "Finished processing file.\n")
	assert.NotContains(t, out, "Proceeding with interactive mode.")
	assert.NotContains(t, out, "Welcome to the payment processing CLI")
	assert.Contains(t, errOut, "Error processing command: ")
}

func TestBatchThenInteractive(t *testing.T) {
	path := writeBatch(t, "payments.txt", "CREATE P1 10.00 MYR M01\n")

	out, _, err := execute(t, "AUTHORIZE P1\nSTATUS P1\nEXIT\n", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Finished processing file. Proceeding with interactive mode.")
	assert.Contains(t, out, "Welcome to the payment processing CLI")
	assert.Contains(t, out, "Available commands: CREATE, AUTHORIZE, CAPTURE, VOID, REFUND, SETTLE")
	assert.Contains(t, out, "Status for Payment ID P1: AUTHORIZED")
	assert.Contains(t, out, "Goodbye!")
}

func TestExitInsideBatchSkipsInteractive(t *testing.T) {
	path := writeBatch(t, "payments.txt", "CREATE P1 10.00 MYR M01\nEXIT\nAUTHORIZE P1\n")

	out, _, err := execute(t, "STATUS P1\n", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Goodbye!")
	assert.NotContains(t, out, "Finished processing file.")
	assert.NotContains(t, out, "Welcome to the payment processing CLI")
	assert.NotContains(t, out, "has been authorized")
}

func TestNonTextFileFallsBackToInteractive(t *testing.T) {
	path := writeBatch(t, "payments.csv", "CREATE P1 10.00 MYR M01\n")

	out, _, err := execute(t, "STATUS P1\nEXIT\n", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Invalid file type. Proceeding with interactive mode.")
	assert.Contains(t, out, "Payment ID P1 not found.")
}

func TestMissingBatchFile(t *testing.T) {
	out, errOut, err := execute(t, "", "--no-interactive", filepath.Join(t.TempDir(), "missing.txt"))
	require.NoError(t, err)

	assert.Contains(t, errOut, "Error reading file: ")
	assert.NotContains(t, out, "Finished processing file.")
}

func TestTooManyArgs(t *testing.T) {
	_, _, err := execute(t, "", "a.txt", "b.txt")
	assert.Error(t, err)
}

func TestInvalidLogLevel(t *testing.T) {
	_, _, err := execute(t, "", "--log-level", "loud", "--no-interactive")
	assert.EqualError(t, err, `unknown log level "loud"`)
}

func TestLogLevelFromConfig(t *testing.T) {
	cfgPath := writeBatch(t, "payflow.yaml", "log:\n  level: loud\n")

	_, _, err := execute(t, "", "--config", cfgPath, "--no-interactive")
	assert.EqualError(t, err, `unknown log level "loud"`, "log.level is honoured without the flag")

	_, _, err = execute(t, "", "--config", cfgPath, "--log-level", "error", "--no-interactive")
	assert.NoError(t, err, "the flag overrides log.level")
}

func TestLogLevelFromEnv(t *testing.T) {
	t.Setenv("PAYFLOW_LOG_LEVEL", "loud")

	_, _, err := execute(t, "", "--no-interactive")
	assert.EqualError(t, err, `unknown log level "loud"`)
}

func TestSampleBatch(t *testing.T) {
	out, errOut, err := execute(t, "", "--no-interactive", filepath.Join("testdata", "sample.txt"))
	require.NoError(t, err)

	assert.Contains(t, out, "Payment with ID: P1002 has been authorized and is pending pre-settlement review.")
	assert.Contains(t, out, "Payment with ID: P1003 has been voided due to CUSTOMER_CANCELLED.")
	assert.Contains(t, out, "Payment with ID: P1001 already exists with identical details. No changes made.")
	assert.Contains(t, out, "Payment with ID: P1001 has been refunded 4.01 MYR.")
	assert.Contains(t, out, "Status for Payment ID P1001: REFUNDED")
	assert.Contains(t, out, "No payments found for settlement in this batch.")
	assert.Equal(t, 1, strings.Count(errOut, "Error processing command: "))
}
