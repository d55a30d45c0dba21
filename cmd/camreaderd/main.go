package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/tacusci/logging/v2"
	"github.com/takama/daemon"
	"github.com/tauraamui/camreader/pkg/config"
	"github.com/tauraamui/camreader/pkg/configdef"
	"github.com/tauraamui/camreader/pkg/dragon"
	"github.com/tauraamui/camreader/pkg/log"
	"github.com/tauraamui/camreader/pkg/video/videobackend"
)

const (
	name        = "camreader_daemon"
	description = "Camera reader daemon which keeps only the latest frame from each stream"
)

type Service struct {
	daemon.Daemon
}

// Setup writes the default config file
func (service *Service) Setup() (string, error) {
	log.Info("Setting up camreader service...")

	err := config.DefaultCreator().Create()
	if err != nil {
		if !errors.Is(err, configdef.ErrConfigAlreadyExists) {
			return "", err
		}
		log.Error(err.Error())
	}

	return "Setup successful...", nil
}

func (service *Service) RemoveSetup() (string, error) {
	log.Info("Removing setup for camreader service...")
	err := config.DefaultDestroyer().Destroy()
	if err != nil {
		log.Error("unable to delete config file: %s", err.Error())
	}

	return "Removing setup successful...", nil
}

func (service *Service) Manage() (string, error) {
	usage := "Usage: camreaderd setup | remove-setup | install | remove | start | stop | status"

	if len(os.Args) > 1 {
		command := os.Args[1]
		switch command {
		case "setup":
			return service.Setup()
		case "remove-setup":
			return service.RemoveSetup()
		case "install":
			return service.Install()
		case "remove":
			return service.Remove()
		case "start":
			return service.Start()
		case "stop":
			return service.Stop()
		case "status":
			return service.Status()
		default:
			return usage, nil
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	log.Info("Starting camreader daemon...")

	server, err := dragon.NewServer(config.DefaultResolver(), videobackend.Resolve(os.Getenv("CAMREADER_VIDEO_BACKEND")))
	if err != nil {
		log.Fatal(err.Error())
	}

	ctx, cancelStartup := context.WithCancel(context.Background())
	started := make(chan struct{})
	go func() {
		defer close(started)
		startupServer(ctx, server)
	}()

	killSignal := <-interrupt
	fmt.Print("\r")
	log.Error("Received signal: %s", killSignal)

	cancelStartup()
	<-started
	log.Info("Shutting down server...")
	<-server.Shutdown()

	return "Shutdown successful... BYE! 👋", nil
}

func startupServer(ctx context.Context, server *dragon.Server) {
	connectToCameras(ctx, server)
	server.SetupProcesses()
	server.RunProcesses()
}

func connectToCameras(ctx context.Context, server *dragon.Server) {
	errs := server.ConnectWithCancel(ctx)
	for _, err := range errs {
		log.Error(err.Error())
	}
}

func init() {
	log.SetLevel(os.Getenv("CAMREADER_LOGGING_LEVEL"))
}

func main() {
	daemonType := daemon.SystemDaemon
	if runtime.GOOS == "darwin" {
		daemonType = daemon.UserAgent
	}

	srv, err := daemon.New(name, description, daemonType)
	if err != nil {
		logging.Error(err.Error()) //nolint
		os.Exit(1)
	}

	service := &Service{srv}
	status, err := service.Manage()
	if err != nil {
		logging.Error(err.Error()) //nolint
		os.Exit(1)
	}

	logging.Info(status) //nolint
}
