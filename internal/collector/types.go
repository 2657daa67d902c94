package collector

import (
	"github.com/kidoz/clamav-report-go/internal/inventory"
)

// Result is the raw outcome of one host's collection attempt. Exactly one is
// produced per enumerated host, success or not.
type Result struct {
	Host        inventory.Host
	Succeeded   bool
	Stdout      string // hostname line + scan log tail, when Succeeded
	ErrorDetail string // human-readable failure cause, when !Succeeded
}
