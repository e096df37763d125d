/*
   Copyright The containerd Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package cleanup provides utilities to help cleanup.
package cleanup

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultTimeout bounds cleanup when the caller does not choose a timeout.
	DefaultTimeout = 10 * time.Second
	// DefaultInterval is the Poll interval when the caller does not choose one.
	DefaultInterval = 100 * time.Millisecond
)

// Do runs the provided function with a context that is not cancelled when
// the parent context is cancelled and that expires after timeout. A
// non-positive timeout selects DefaultTimeout.
//
// This is useful for detaching devices after the main operation's context
// has been cancelled, e.g. by a shutdown signal.
func Do(ctx context.Context, timeout time.Duration, do func(context.Context)) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	do(ctx)
	cancel()
}

// Poll calls try every interval until it succeeds, retry reports its error
// as permanent, or ctx is done. It returns nil on success, the permanent
// error, or the last error combined with the context error. A non-positive
// interval selects DefaultInterval.
func Poll(ctx context.Context, interval time.Duration, try func() error, retry func(error) bool) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		err := try()
		if err == nil {
			return nil
		}
		if !retry(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-ticker.C:
		}
	}
}
