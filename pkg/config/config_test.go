package config_test

import (
	"io/ioutil"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/tauraamui/camreader/pkg/config"
	"github.com/tauraamui/camreader/pkg/configdef"
)

var _ = Describe("Config", func() {
	var (
		tempDir    string
		configPath string
	)

	BeforeEach(func() {
		var err error
		tempDir, err = ioutil.TempDir("", "camreader-config")
		Expect(err).ToNot(HaveOccurred())
		configPath = filepath.Join(tempDir, "tacusci", "camreader", "config.json")
		os.Setenv("CAMREADER_CONFIG", configPath)
	})

	AfterEach(func() {
		os.Unsetenv("CAMREADER_CONFIG")
		Expect(os.RemoveAll(tempDir)).To(Succeed())
	})

	Describe("Creating default config", func() {
		It("Writes a loadable config file to the resolved location", func() {
			Expect(config.DefaultCreator().Create()).To(Succeed())
			Expect(configPath).To(BeAnExistingFile())

			values, err := config.DefaultResolver().Resolve()
			Expect(err).ToNot(HaveOccurred())
			Expect(values.Cameras).To(BeEmpty())
			Expect(values.Debug).To(BeFalse())
		})

		It("Refuses to overwrite an existing config file", func() {
			createResolver := config.DefaultCreateResolver()
			Expect(createResolver.Create()).To(Succeed())
			Expect(createResolver.Create()).To(MatchError(configdef.ErrConfigAlreadyExists))
		})
	})

	Describe("Loading config", func() {
		It("Loads cameras from the file at the env path", func() {
			Expect(os.MkdirAll(filepath.Dir(configPath), os.ModePerm)).To(Succeed())
			Expect(ioutil.WriteFile(configPath, []byte(`{
				"metrics_address": "127.0.0.1:9101",
				"cameras": [
					{
						"title": "Test Cam 1",
						"address": "rtsp://camera-network-addr/stream",
						"fps": 15,
						"mock_capturer": true,
						"snapshot_interval_seconds": 5
					}
				]
			}`), 0644)).To(Succeed())

			values, err := config.DefaultResolver().Resolve()
			Expect(err).ToNot(HaveOccurred())
			Expect(values.MetricsAddress).To(Equal("127.0.0.1:9101"))
			Expect(values.Cameras).To(HaveLen(1))
			Expect(values.Cameras[0].Title).To(Equal("Test Cam 1"))
			Expect(values.Cameras[0].FPS).To(Equal(15))
			Expect(values.Cameras[0].MockCapturer).To(BeTrue())
			Expect(values.Cameras[0].SnapshotLoc).To(Equal("snapshots"))
		})

		It("Fails to load config missing required fps field", func() {
			Expect(os.MkdirAll(filepath.Dir(configPath), os.ModePerm)).To(Succeed())
			Expect(ioutil.WriteFile(configPath, []byte(`{
				"cameras": [{"title": "Test Cam 2"}]
			}`), 0644)).To(Succeed())

			_, err := config.DefaultResolver().Resolve()
			Expect(err).To(MatchError(`Validation error in field "FPS" of type "int" using validator "gte=1"`))
		})
	})

	Describe("Destroying config", func() {
		It("Removes the config file", func() {
			Expect(config.DefaultCreator().Create()).To(Succeed())
			Expect(config.DefaultDestroyer().Destroy()).To(Succeed())
			Expect(configPath).ToNot(BeAnExistingFile())
		})
	})
})
