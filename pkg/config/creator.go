package config

import (
	"github.com/tauraamui/camreader/internal/config"
	"github.com/tauraamui/camreader/pkg/configdef"
)

type Creator interface {
	configdef.Creator
}

func DefaultCreator() Creator {
	return config.DefaultCreator()
}
