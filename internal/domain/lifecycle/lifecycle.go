// Package lifecycle holds shared constants for application start/stop behavior.
package lifecycle

import "time"

// DefaultTimeout bounds graceful shutdown of deliveries and infrastructure.
const DefaultTimeout = 30 * time.Second
