package dragon

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tauraamui/camreader/pkg/camera"
	"github.com/tauraamui/camreader/pkg/configdef"
	"github.com/tauraamui/camreader/pkg/dragon/process"
	"github.com/tauraamui/camreader/pkg/log"
	"github.com/tauraamui/camreader/pkg/metrics"
	"github.com/tauraamui/camreader/pkg/video/videobackend"
	"github.com/tauraamui/xerror"
)

type Server struct {
	config            configdef.Values
	videoBackend      videobackend.Backend
	registry          *prometheus.Registry
	metrics           *metrics.ReaderMetrics
	mu                sync.Mutex
	cameras           []cameraReader
	snapshotProcesses []process.Process
	metricsServer     *http.Server
	shutdownOnce      sync.Once
	shutdownDone      chan interface{}
}

type cameraReader struct {
	camera.Reader
	conf    configdef.Camera
	backend videobackend.Backend
}

func NewServer(cr configdef.Resolver, backend videobackend.Backend) (*Server, error) {
	values, err := cr.Resolve()
	if err != nil {
		return nil, xerror.Errorf("unable to load config: %w", err)
	}

	if values.Debug {
		log.SetLevel("debug")
	}

	if backend == nil {
		backend = videobackend.Default()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	readerMetrics, err := metrics.NewReaderMetrics(registry)
	if err != nil {
		return nil, xerror.Errorf("unable to register reader metrics: %w", err)
	}

	return &Server{
		config:       values,
		videoBackend: backend,
		registry:     registry,
		metrics:      readerMetrics,
		shutdownDone: make(chan interface{}),
	}, nil
}

func (s *Server) Connect() []error {
	return s.connect(context.Background())
}

func (s *Server) ConnectWithCancel(cancel context.Context) []error {
	return s.connect(cancel)
}

func (s *Server) connect(cancel context.Context) []error {
	var errs []error

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cam := range s.config.Cameras {
		select {
		case <-cancel.Done():
			return errs
		default:
			if cam.Disabled {
				log.Warn("Camera [%s] is disabled... skipping...", cam.Title)
				continue
			}

			backend := s.videoBackend
			if cam.MockCapturer {
				backend = videobackend.Mock()
			}

			reader, err := s.openReader(cancel, cam, backend)
			if err != nil {
				errs = append(errs, err)
				continue
			}

			log.Info("Connected successfully to camera: [%s]", cam.Title)
			s.cameras = append(s.cameras, cameraReader{Reader: reader, conf: cam, backend: backend})
		}
	}
	return errs
}

func (s *Server) openReader(ctx context.Context, cam configdef.Camera, backend videobackend.Backend) (camera.Reader, error) {
	log.Info("Connecting to camera: [%s@%s]...", cam.Title, cam.Address)
	reader := camera.OpenWithCancel(ctx, cam.Title, cam.Address, camera.Settings{
		FPS:                    float64(cam.FPS),
		MaxConsecutiveFailures: cam.MaxConsecutiveFailures,
		FailureBackoff:         cam.FailureBackoff(),
		Metrics:                s.metrics,
	}, backend)

	if !reader.IsOpen() {
		reader.Close()
		return nil, xerror.Errorf("unable to connect to camera [%s]", cam.Title).AsKind(camera.SourceUnavailable)
	}
	return reader, nil
}

// Readers returns every reader the server has connected.
func (s *Server) Readers() []camera.Reader {
	s.mu.Lock()
	defer s.mu.Unlock()
	readers := make([]camera.Reader, 0, len(s.cameras))
	for _, cam := range s.cameras {
		readers = append(readers, cam.Reader)
	}
	return readers
}

func (s *Server) shutdown() {
	s.shutdownProcesses()
	s.shutdownMetricsServer()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cam := range s.cameras {
		log.Info("Closing camera [%s] video stream...", cam.Title())
		stats := cam.Stats()
		if err := cam.Close(); err != nil {
			log.Error("Unable to close camera [%s] video stream: %v", cam.Title(), err)
		}
		log.Info(
			"Camera [%s] published %d frames, dropped %d, delivered %d, %d pull failures",
			cam.Title(), stats.Published, stats.Dropped, stats.Reads, stats.PullFailures,
		)
	}
	s.cameras = nil
	close(s.shutdownDone)
}

// Shutdown stops all snapshot processes, the metrics endpoint and every
// reader. The returned channel closes once everything has stopped.
func (s *Server) Shutdown() chan interface{} {
	s.shutdownOnce.Do(func() {
		go s.shutdown()
	})
	return s.shutdownDone
}
