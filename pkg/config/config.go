package config

import (
	"github.com/tauraamui/camreader/internal/config"
	"github.com/tauraamui/camreader/pkg/configdef"
)

type CreateResolver interface {
	configdef.CreateResolver
}

func DefaultCreateResolver() CreateResolver {
	return config.DefaultCreateResolver()
}
