package prax

import (
	"context"
	"sync"
)

// RequestAuthorization asks the source for access and records the answer on r.
// The returned channel receives the answer once r reflects it.
func RequestAuthorization(ctx context.Context, source Source, r *Reporter, logger Logger) <-chan AccessStatus {
	ch := make(chan AccessStatus, 1)
	var once sync.Once
	source.RequestAccess(ctx, func(status AccessStatus) {
		once.Do(func() {
			if err := r.Authorize(status); err != nil {
				logger.Warn("failed to record authorization", "error", err)
			}
			if status == AccessDenied {
				logger.Error("photo library access denied")
			}
			ch <- status
			close(ch)
		})
	})
	return ch
}
