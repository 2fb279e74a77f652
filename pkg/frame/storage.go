package frame

import "fmt"

// StorageType tells where the pixels of a frame live.
type StorageType int

const (
	StorageUnknown StorageType = iota
	// StorageUnownedMemory is CPU memory borrowed from the producer.
	StorageUnownedMemory
	// StorageOwnedMemory is CPU memory owned by the frame itself.
	StorageOwnedMemory
	// StorageSharedMemory is CPU memory shared with another process.
	StorageSharedMemory
	// StorageTextures means the pixels only exist as GPU textures.
	StorageTextures
	// StorageGPUMemoryBuffer means the pixels live in a GPU memory buffer.
	StorageGPUMemoryBuffer
)

var storageNames = map[StorageType]string{
	StorageUnknown:         "unknown",
	StorageUnownedMemory:   "unowned-memory",
	StorageOwnedMemory:     "owned-memory",
	StorageSharedMemory:    "shared-memory",
	StorageTextures:        "textures",
	StorageGPUMemoryBuffer: "gpu-memory-buffer",
}

func (s StorageType) String() string {
	if name, ok := storageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("StorageType(%d)", int(s))
}

// IsMappable reports whether planes of this storage can be read directly
// from CPU memory.
func (s StorageType) IsMappable() bool {
	switch s {
	case StorageUnownedMemory, StorageOwnedMemory, StorageSharedMemory:
		return true
	}
	return false
}

// ParseStorageType is the inverse of StorageType.String.
func ParseStorageType(name string) (StorageType, error) {
	for s, n := range storageNames {
		if n == name {
			return s, nil
		}
	}
	return StorageUnknown, fmt.Errorf("unknown storage type %q", name)
}
