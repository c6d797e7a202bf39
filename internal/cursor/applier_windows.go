//go:build windows

package cursor

import (
	"fmt"
	"log/slog"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

const (
	cursorsKey = `Control Panel\Cursors`

	spiSetCursors        = 0x0057
	spifUpdateIniFile    = 0x01
	spifSendWinIniChange = 0x02
)

var procSystemParametersInfoW = windows.NewLazySystemDLL("user32.dll").NewProc("SystemParametersInfoW")

// NewClient creates an Applier writing the per-user cursor registry key
func NewClient(logger *slog.Logger) *Client {
	return &Client{store: registryStore{}, logger: logger}
}

type registryStore struct{}

func (registryStore) Write(settings map[string]string) error {
	key, err := registry.OpenKey(registry.CURRENT_USER, cursorsKey, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open HKCU\\%s: %w", cursorsKey, err)
	}
	defer func() {
		_ = key.Close()
	}()

	for _, name := range sortedKeys(settings) {
		if err := key.SetStringValue(name, settings[name]); err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
	}
	return nil
}

func (registryStore) Broadcast() error {
	if err := procSystemParametersInfoW.Find(); err != nil {
		return err
	}
	r1, _, callErr := procSystemParametersInfoW.Call(spiSetCursors, 0, 0, spifUpdateIniFile|spifSendWinIniChange)
	if r1 == 0 {
		return fmt.Errorf("SystemParametersInfoW(SPI_SETCURSORS): %w", callErr)
	}
	return nil
}
