package storagecommon

import "github.com/pkg/errors"

// ErrNotFound is returned by Read when no record exists for the id
var ErrNotFound = errors.New("record not found")

// ProfileStorage defines the interface of profile storage backends
//
// Backends are used from one goroutine at a time and need no locking of their own
type ProfileStorage interface {
	Name() string
	List() ([]string, error)
	Write(id string, data interface{}) error
	Read(id string, out interface{}) error
	Close()
	IsEOF(err error) bool
}
