package dragon

import (
	"fmt"
	"sync"

	"github.com/tauraamui/camreader/pkg/dragon/process"
	"github.com/tauraamui/camreader/pkg/log"
)

func (s *Server) SetupProcesses() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cam := range s.cameras {
		proc := process.New(process.Settings{
			WaitForShutdownMsg: fmt.Sprintf("Stopping snapshots for camera [%s]...", cam.Title()),
			Process: process.TakeSnapshots(
				cam.Reader, cam.backend, cam.conf.SnapshotLoc, cam.conf.SnapshotInterval(),
			),
		})
		s.snapshotProcesses = append(s.snapshotProcesses, proc.Setup())
	}
}

func (s *Server) RunProcesses() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, proc := range s.snapshotProcesses {
		proc.Start()
	}

	if len(s.config.MetricsAddress) > 0 {
		if err := s.serveMetrics(s.config.MetricsAddress); err != nil {
			log.Error(err.Error())
		}
	}
}

func (s *Server) shutdownProcesses() {
	s.mu.Lock()
	procs := s.snapshotProcesses
	s.snapshotProcesses = nil
	s.mu.Unlock()

	wg := sync.WaitGroup{}
	wg.Add(len(procs))
	for _, proc := range procs {
		go func(wg *sync.WaitGroup, proc process.Process) {
			proc.Stop()
			proc.Wait()
			wg.Done()
		}(&wg, proc)
	}
	wg.Wait()
}
