//go:build darwin || linux

package sink

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
)

// Resolve implements Resolver.
func (r *LibraryResolver) Resolve() (SendFunc, error) {
	var lastErr error
	for _, path := range r.Paths {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
		if err != nil {
			lastErr = err
			continue
		}

		sym, err := purego.Dlsym(handle, r.Symbol)
		if err != nil {
			purego.Dlclose(handle)
			lastErr = fmt.Errorf("%s: %w", path, err)
			continue
		}

		var send func(pid, width, height uint32, data unsafe.Pointer, length uintptr) bool
		purego.RegisterFunc(&send, sym)
		logger.Infof("loaded %s from %s", r.Symbol, path)

		// The library stays loaded for the life of the process.
		return func(pid, width, height uint32, data []byte) bool {
			if len(data) == 0 {
				return false
			}
			ok := send(pid, width, height, unsafe.Pointer(&data[0]), uintptr(len(data)))
			runtime.KeepAlive(data)
			return ok
		}, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("failed to load %s: %w", r.Symbol, lastErr)
	}
	return nil, errors.New("no overlay library paths to search")
}
