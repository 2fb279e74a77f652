//go:build !darwin && !linux

package sink

import (
	"fmt"
	"runtime"
)

// Resolve implements Resolver. Dynamic loading is not supported on this
// platform, so the sink is always unavailable.
func (r *LibraryResolver) Resolve() (SendFunc, error) {
	return nil, fmt.Errorf("loading %s is not supported on %s", r.Symbol, runtime.GOOS)
}
