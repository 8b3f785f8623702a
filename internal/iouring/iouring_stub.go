//go:build !iouring_giouring

package iouring

import "errors"

// ErrNotEnabled is returned by the stub Ring when the binary was built
// without the iouring_giouring tag.
var ErrNotEnabled = errors.New("iouring: built without iouring_giouring tag")

// Ring is a no-op placeholder; real functionality requires the
// iouring_giouring build tag (see iouring.go).
type Ring struct{}

func New(entries uint32) (*Ring, error) {
	return nil, ErrNotEnabled
}

func (r *Ring) Close() {}

func (r *Ring) Watch(fd int32, userData uint64) error {
	return ErrNotEnabled
}

func (r *Ring) Reap() ([]uint64, error) {
	return nil, ErrNotEnabled
}
