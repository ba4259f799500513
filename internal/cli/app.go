// Package cli holds the application container shared by every spawn
// command: the loaded config plus the wired components. Commands that
// talk to the container runtime call Bootstrap first; setup and version
// work without it.
package cli

import (
	"context"

	"github.com/bnema/spawn/internal/common"
	"github.com/bnema/spawn/internal/image"
	"github.com/bnema/spawn/internal/proxy"
	"github.com/bnema/spawn/internal/spawn"
	"github.com/bnema/spawn/internal/templating"
	"github.com/bnema/spawn/internal/volumes"
	"github.com/bnema/spawn/pkg/docker"
	"github.com/bnema/spawn/pkg/logger"
)

type App struct {
	Config *common.Config

	Docker       *docker.Client
	Composer     *image.Composer
	Planner      *volumes.Planner
	Orchestrator *spawn.Orchestrator
	Proxy        *proxy.Manager
}

func NewApp() *App {
	return &App{}
}

// LoadConfig loads the persisted config once and applies its log level.
func (a *App) LoadConfig() error {
	if a.Config != nil {
		return nil
	}

	config, err := common.LoadConfig("")
	if err != nil {
		return err
	}

	a.Config = config
	logger.GetLogger().SetLogLevel(config.General.LogLevel)
	return nil
}

// Bootstrap connects to the container runtime and wires the components
// on top of it. Safe to call more than once.
func (a *App) Bootstrap(ctx context.Context) error {
	if a.Docker != nil {
		return nil
	}
	if err := a.LoadConfig(); err != nil {
		return err
	}

	client, err := docker.New(a.Config.Engine.Sock)
	if err != nil {
		return err
	}
	if err := client.Verify(ctx); err != nil {
		_ = client.Close()
		return err
	}

	engine := templating.NewEngine()
	a.Docker = client
	a.Composer = image.NewComposer(client, engine, a.Config.BuildsDir())
	a.Planner = volumes.NewPlanner(a.Config.VolumesDir(), a.Config.LogsDir())
	a.Orchestrator = spawn.NewOrchestrator(client, a.Config)
	a.Proxy = proxy.NewManager(client, a.Config, engine)
	return nil
}

func (a *App) Close() {
	if a.Docker != nil {
		_ = a.Docker.Close()
	}
}
