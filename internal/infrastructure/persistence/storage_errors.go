package persistence

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"gorm.io/gorm"

	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// isUnavailable reports whether the error means the database itself is
// unreachable rather than a single statement failing. The reconciler aborts
// the whole run on an outage instead of burning through every item.
func isUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, gorm.ErrInvalidDB) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// classifyWriteError wraps outage errors as run-wide storage failures and
// everything else as a per-item storage failure
func classifyWriteError(err error) error {
	if err == nil {
		return nil
	}
	if isUnavailable(err) {
		return syncdomain.NewStorageUnavailableError(err)
	}
	return syncdomain.NewStorageError(err)
}
