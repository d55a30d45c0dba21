package config

import (
	"github.com/tauraamui/camreader/internal/config"
	"github.com/tauraamui/camreader/pkg/configdef"
)

type Resolver interface {
	configdef.Resolver
}

func DefaultResolver() Resolver {
	return config.DefaultResolver()
}
