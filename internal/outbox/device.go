package outbox

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/google/uuid"

	"github.com/manav03panchal/driverhelper/internal/errors"
	"github.com/manav03panchal/driverhelper/internal/storage"
)

// DefaultDeviceIDPath is where the device id lives.
func DefaultDeviceIDPath() string {
	return filepath.Join(xdg.DataHome, storage.AppName, "device-id")
}

// LoadDeviceID reads the device id at path, creating one on first use.
func LoadDeviceID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if _, perr := uuid.Parse(id); perr == nil {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", errors.NewSystemErrorWithOp("device_id", "failed to read device id", err)
	}

	id := uuid.NewString()
	if err := storage.SafeWrite(path, []byte(id+"\n"), 0600); err != nil {
		return "", err
	}
	return id, nil
}
