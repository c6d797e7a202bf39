package cursor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

var (
	// ErrUnsupported is returned on platforms without a pointer settings store
	ErrUnsupported = errors.New("applying cursor themes is not supported on this platform")

	// ErrNoKnownRoles is returned for a scheme without any recognized role
	ErrNoKnownRoles = errors.New("theme provides no recognized cursor roles")
)

// Applier changes the active pointer scheme
type Applier interface {
	// Apply activates the cursors of scheme
	Apply(ctx context.Context, scheme Scheme) error
	// Reset restores the system default pointers
	Reset(ctx context.Context) error
}

// settingsStore is the platform-specific backend of Client
type settingsStore interface {
	// Write stores setting -> file path values
	Write(settings map[string]string) error
	// Broadcast tells running programs to reload the pointer scheme
	Broadcast() error
}

// Client implements Applier on top of the platform settings store
type Client struct {
	store  settingsStore
	logger *slog.Logger
}

// Apply writes the scheme's settings and broadcasts the change
func (c *Client) Apply(ctx context.Context, scheme Scheme) error {
	settings := Settings(scheme)
	if len(settings) == 0 {
		return ErrNoKnownRoles
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.logger.Debug("applying cursor scheme", "settings", len(settings), "names", sortedKeys(settings))
	if err := c.store.Write(settings); err != nil {
		return fmt.Errorf("failed to write cursor settings: %w", err)
	}
	if err := c.store.Broadcast(); err != nil {
		return fmt.Errorf("failed to broadcast cursor change: %w", err)
	}
	return nil
}

// Reset clears every setting so the system falls back to its defaults
func (c *Client) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	settings := make(map[string]string)
	for _, name := range SettingNames() {
		settings[name] = ""
	}

	c.logger.Debug("resetting cursor scheme", "settings", len(settings))
	if err := c.store.Write(settings); err != nil {
		return fmt.Errorf("failed to reset cursor settings: %w", err)
	}
	if err := c.store.Broadcast(); err != nil {
		return fmt.Errorf("failed to broadcast cursor change: %w", err)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
