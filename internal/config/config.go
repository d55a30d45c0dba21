package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/tauraamui/camreader/pkg/configdef"
	"github.com/tauraamui/xerror"
)

const (
	vendorName     = "tacusci"
	appName        = "camreader"
	configFileName = "config.json"
	configEnvVar   = "CAMREADER_CONFIG"
)

var fs afero.Fs = afero.NewOsFs()

var readConfigFile = func(path string) ([]byte, error) {
	return afero.ReadFile(fs, path)
}

func unmarshal(content []byte, values *configdef.Values) error {
	err := json.Unmarshal(content, values)
	if err != nil {
		return xerror.Errorf("parsing configuration error: %v", err)
	}
	return nil
}

func resolveConfigPath() (string, error) {
	configPath := os.Getenv(configEnvVar)
	if len(configPath) > 0 {
		return configPath, nil
	}

	configParentDir, err := userConfigDir()
	if err != nil {
		return "", xerror.Errorf("unable to resolve %s location: %w", configFileName, err)
	}

	return filepath.Join(
		configParentDir,
		vendorName,
		appName,
		configFileName), nil
}

var userConfigDir = func() (string, error) {
	return os.UserConfigDir()
}
