package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// ErrTimeout reports that a bounded wait (selector presence, visibility
// assertion, actionability) did not succeed before its deadline. It is the
// only failure a verification run recovers from.
var ErrTimeout = errors.New("bounded wait timed out")

// IsTimeout reports whether err is a bounded-wait timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// classify wraps driver-level timeouts in ErrTimeout and prefixes op.
// Errors of any other kind are returned with op context only.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s failed: %w", op, err)
}

// classifyAssertion treats an expectation that polled its full bound without
// matching as a timeout. Errors raised by the driver itself (bad selector,
// closed page) stay hard failures.
func classifyAssertion(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	if errors.Is(err, playwright.ErrPlaywright) || errors.Is(err, playwright.ErrTargetClosed) {
		return fmt.Errorf("%s failed: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
}
