package pages

import (
	"fmt"
	"time"
)

const defaultPollInterval = 250 * time.Millisecond

// pollUntil evaluates cond until it reports true or timeout elapses. The
// condition is always checked at least once, and the last check happens no
// earlier than the deadline, so a condition that becomes true inside the
// window is observed before the wait gives up. Condition errors abort the
// wait immediately.
func pollUntil(timeout, interval time.Duration, cond func() (bool, error)) error {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%w: condition not met within %s", ErrWaitTimeout, timeout)
		}
		if remaining < interval {
			time.Sleep(remaining)
		} else {
			time.Sleep(interval)
		}
	}
}

func waitUntil(timeout time.Duration, cond func() (bool, error)) error {
	return pollUntil(timeout, defaultPollInterval, cond)
}
