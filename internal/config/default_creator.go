package config

import "github.com/tauraamui/camreader/pkg/configdef"

func DefaultCreator() configdef.Creator {
	return defaultCreator{}
}

type defaultCreator struct{}

func (d defaultCreator) Create() error {
	return create()
}

func DefaultCreateResolver() configdef.CreateResolver {
	return defaultCreateResolver{}
}

type defaultCreateResolver struct {
	defaultCreator
	defaultResolver
}
