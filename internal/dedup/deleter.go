package dedup

import "os"

// Deleter abstracts the filesystem delete call so tests can inject failures
type Deleter interface {
	Remove(path string) error
}

// OSDeleter implements Deleter using the os package
type OSDeleter struct{}

// Remove deletes a single file
func (OSDeleter) Remove(path string) error {
	return os.Remove(path)
}
