package bake

import "errors"

var (
	// ErrResourceLimitExceeded is returned when the requested resolution is
	// larger than the GPU can allocate as a render target.
	ErrResourceLimitExceeded = errors.New("bake: resource limit exceeded")

	// ErrRenderTargetUnavailable is returned when a render target cannot be
	// allocated, drawn into or read back (context loss, allocation failure).
	ErrRenderTargetUnavailable = errors.New("bake: render target unavailable")

	// ErrInvalidResolution is returned for a non-positive resolution.
	ErrInvalidResolution = errors.New("bake: invalid resolution")
)
