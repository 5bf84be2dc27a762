package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"planetview/app"
	"planetview/config"
	"planetview/renderer"
	"planetview/telemetry"
)

func main() {
	logger := log.New(os.Stderr, "planetview: ", log.LstdFlags)

	settings, err := config.Parse(os.Args[0], os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Fatalf("settings: %v", err)
	}

	if err := run(settings, logger); err != nil {
		logger.Fatal(err)
	}
}

func run(settings config.Settings, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	window, err := renderer.NewWindow(renderer.WindowConfig{
		Width:      settings.Window.Width,
		Height:     settings.Window.Height,
		Title:      settings.Window.Title,
		Resizable:  true,
		VSync:      settings.Window.VSync,
		Fullscreen: settings.Window.Fullscreen,
	})
	if err != nil {
		return err
	}
	defer window.Destroy()

	engine, err := renderer.NewRenderEngine(window, logger)
	if err != nil {
		return err
	}
	defer engine.Destroy()

	deps := app.Deps{
		GPU:      engine.BakeGPU(),
		Renderer: engine,
		Surface:  engine,
		Settings: settings,
		Logger:   logger,
	}

	if addr := settings.Telemetry.Addr; addr != "" {
		hub := telemetry.NewHub(16)
		hub.Logger = logger
		deps.Publisher = hub
		deps.Commands = hub.Commands()
		go func() {
			if err := hub.Serve(ctx, addr); err != nil {
				logger.Printf("telemetry: %v", err)
			}
		}()
		logger.Printf("telemetry on ws://%s/ws", addr)
	}

	a, err := app.New(deps)
	if err != nil {
		return err
	}
	window.SetInputHandler(a)

	if err := a.Boot(); err != nil {
		return err
	}

	err = a.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
