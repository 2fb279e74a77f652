package sink

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	// DefaultSymbol is the exported name of the overlay send function.
	DefaultSymbol = "DiscordOverlaySendFrame"

	// LibraryPathEnv overrides the library search path.
	LibraryPathEnv = "FRAMEBRIDGE_SINK_LIB"
)

// LibraryResolver resolves the send function from the first shared library
// in Paths that exports Symbol. The function must have the C signature
//
//	bool send(uint32_t pid, uint32_t width, uint32_t height, void *data, size_t length);
type LibraryResolver struct {
	Paths  []string
	Symbol string
}

// NewLibraryResolver returns a resolver for symbol searching paths first and
// DefaultLibraryPaths after them. An empty symbol means DefaultSymbol.
func NewLibraryResolver(symbol string, paths ...string) *LibraryResolver {
	if symbol == "" {
		symbol = DefaultSymbol
	}
	return &LibraryResolver{
		Paths:  append(append([]string(nil), paths...), DefaultLibraryPaths()...),
		Symbol: symbol,
	}
}

// DefaultLibraryPaths lists where the overlay library is looked for:
// LibraryPathEnv, next to the executable, then the system loader paths.
func DefaultLibraryPaths() []string {
	var paths []string

	libName := "libdiscord_overlay.so"
	switch runtime.GOOS {
	case "darwin":
		libName = "libdiscord_overlay.dylib"
	case "windows":
		libName = "discord_overlay.dll"
	}

	if envPath := os.Getenv(LibraryPathEnv); envPath != "" {
		paths = append(paths, envPath)
	}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, libName),
			filepath.Join(exeDir, "..", "lib", libName),
		)
	}

	switch runtime.GOOS {
	case "darwin":
		paths = append(paths, libName, "/usr/local/lib/"+libName, "/opt/homebrew/lib/"+libName)
	case "linux":
		paths = append(paths, libName, "/usr/local/lib/"+libName, "/usr/lib/"+libName)
	}
	return paths
}
