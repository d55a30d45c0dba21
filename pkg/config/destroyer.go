package config

import (
	"github.com/tauraamui/camreader/internal/config"
	"github.com/tauraamui/camreader/pkg/configdef"
)

type Destroyer interface {
	configdef.Destroyer
}

func DefaultDestroyer() Destroyer {
	return config.DefaultDestroyer()
}
