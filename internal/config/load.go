package config

import (
	"sync"

	"github.com/tauraamui/camreader/pkg/configdef"
	"github.com/tauraamui/camreader/pkg/log"
)

func load() (configdef.Values, error) {
	var values configdef.Values

	configPath, err := resolveConfigPath()
	if err != nil {
		return configdef.Values{}, err
	}

	log.Info("Resolved config file location: %s", configPath)
	file, err := readConfigFile(configPath)
	if err != nil {
		return configdef.Values{}, err
	}

	if err := unmarshal(file, &values); err != nil {
		return configdef.Values{}, err
	}

	if err = values.RunValidate(); err != nil {
		return configdef.Values{}, err
	}

	loadDefaultCameraSnapshotLocations(values.Cameras)

	return values, nil
}

func loadDefaultCameraSnapshotLocations(cameras []configdef.Camera) {
	wg := sync.WaitGroup{}
	for i := 0; i < len(cameras); i++ {
		wg.Add(1)
		go func(wg *sync.WaitGroup, camera *configdef.Camera) {
			defer wg.Done()
			if len(camera.SnapshotLoc) == 0 {
				camera.SnapshotLoc = defaultSettings[SNAPSHOTLOCATION].(string)
			}
		}(&wg, &cameras[i])
	}
	wg.Wait()
}
