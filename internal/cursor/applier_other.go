//go:build !windows

package cursor

import "log/slog"

// NewClient creates an Applier. Only Windows has a pointer settings store,
// so every call fails with ErrUnsupported here.
func NewClient(logger *slog.Logger) *Client {
	return &Client{store: unsupportedStore{}, logger: logger}
}

type unsupportedStore struct{}

func (unsupportedStore) Write(map[string]string) error {
	return ErrUnsupported
}

func (unsupportedStore) Broadcast() error {
	return ErrUnsupported
}
