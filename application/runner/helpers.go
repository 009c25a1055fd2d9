package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ui_harness/domain/entities"
	"ui_harness/domain/faults"
)

// Retry runs fn once plus up to retries more times, sleeping delay between
// attempts. Fatal errors and ctx cancellation stop it early.
func Retry(ctx context.Context, retries int, delay time.Duration, fn func() error) error {
	var lastErr error
	for i := 0; i <= retries; i++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if faults.IsFatal(lastErr) {
			return lastErr
		}
		if i == retries {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry canceled: %w", errors.Join(ctx.Err(), lastErr))
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("operation failed after %d retries: %w", retries, lastErr)
}

// Measure times fn and reports the duration under "Performance"
func (w *World) Measure(name string, fn func() error) (time.Duration, error) {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	if err != nil {
		w.Reporter.RecordResult("Performance", fmt.Sprintf("%s failed after %dms", name, elapsed.Milliseconds()), entities.SeverityFail)
		return elapsed, err
	}
	w.Reporter.RecordResult("Performance", fmt.Sprintf("%s completed in %dms", name, elapsed.Milliseconds()), entities.SeverityPass)
	return elapsed, nil
}

// Check reports a boolean outcome and turns a false one into an assertion failure
func (w *World) Check(ok bool, success, failure string) error {
	if ok {
		w.Reporter.RecordResult("Assertion", success, entities.SeverityPass)
		return nil
	}
	w.Reporter.RecordResult("Assertion", failure, entities.SeverityFail)
	return &faults.AssertionError{Check: "Check", Expected: success, Actual: failure}
}
