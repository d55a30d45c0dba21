package config

import "github.com/tauraamui/camreader/pkg/configdef"

type defaultSettingKey uint

const (
	CAMERAS          defaultSettingKey = 0x0
	SNAPSHOTLOCATION defaultSettingKey = 0x1
	METRICSADDRESS   defaultSettingKey = 0x2
)

var defaultSettings = map[defaultSettingKey]interface{}{
	CAMERAS:          []configdef.Camera{},
	SNAPSHOTLOCATION: "snapshots",
	METRICSADDRESS:   "",
}
