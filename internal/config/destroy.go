package config

import (
	"errors"
	"os"

	"github.com/tauraamui/camreader/pkg/log"
	"github.com/tauraamui/xerror"
)

var errConfigNotFound = xerror.New("config file does not exist")

func destroy() error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}

	if err := fs.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errConfigNotFound
		}
		return xerror.Errorf("unable to remove config file: %w", err)
	}

	log.Info("Removed config file: %s", path)
	return nil
}
