package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// GetConfig returns the default options with the device root normalized.
func GetConfig() (*Options, error) {
	GetDefaultOptions()

	if Opts.DeviceRoot != "" {
		root, err := checkDeviceRoot(Opts.DeviceRoot)
		if err != nil {
			return nil, err
		}
		Opts.DeviceRoot = root
	}

	return Opts, nil
}

// checkDeviceRoot normalizes the configured device root to an absolute path.
// The root is never created here, a missing tree is a connectivity failure
// that belongs to the engine.
func checkDeviceRoot(root string) (string, error) {
	if !filepath.IsAbs(root) {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return "", errors.Wrapf(err, "unable to resolve device root %s", root)
		}
		root = absRoot
	}

	// Trim trailing \ or / in case user supplies
	root = strings.TrimRight(root, "\\/")
	if _, err := os.Stat(root); err != nil {
		return "", errors.Wrapf(err, "unable to access device root %s", root)
	}
	return root, nil
}

func ParseFile(file string) (*Options, error) {
	// Check if file exists
	if _, err := os.Stat(file); err != nil {
		return nil, errors.Wrapf(err, "unable to access config file %s", file)
	}

	viper.SetConfigFile(file)
	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}
	err = viper.Unmarshal(Opts)
	if err != nil {
		return nil, err
	}
	return Opts, nil
}

// CheckSupportedFormat checks if the book format is supported
func CheckSupportedFormat(format string) bool {
	if Opts == nil || len(Opts.SupportedFormats) == 0 {
		return false
	}

	format = strings.ToLower(strings.TrimPrefix(format, "."))
	for _, f := range Opts.SupportedFormats {
		if f == format {
			return true
		}
	}

	return false
}
