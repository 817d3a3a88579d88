package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"animagif/internal/app"
	"animagif/internal/catalog"
	"animagif/internal/cli"
	"animagif/internal/config"
	"animagif/internal/filesystem"
	"animagif/internal/metrics"
	"animagif/internal/output"
	"animagif/internal/transcoder"
)

const closeTimeout = 30 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		formatter := output.NewFormatter(os.Stderr)
		formatter.Error(err.Error())
		os.Exit(1)
	}
}

func run(args []string) error {
	var deps *cli.Dependencies

	root := cli.NewRootCmd(func(configPath string) (*cli.Dependencies, error) {
		d, err := bootstrap(configPath)
		deps = d
		return d, err
	})
	root.SetArgs(args)

	err := root.Execute()
	if deps != nil && deps.Close != nil {
		err = errors.Join(err, deps.Close())
	}
	return err
}

// bootstrap loads the configuration and wires the catalog, ffmpeg and app.
func bootstrap(configPath string) (*cli.Dependencies, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"data":  cfg.DataDir,
		"cache": cfg.CacheDir,
	}))

	store, err := catalog.OpenStore(context.Background(), cfg.Catalog.Backend, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	library := catalog.NewLibrary(store)

	installer := transcoder.NewInstaller(transcoder.InstallerOptions{
		CacheDir:    cfg.BinaryDir,
		DownloadURL: cfg.FFmpeg.DownloadURL,
		UseSystem:   cfg.FFmpeg.UseSystem,
		BinaryPath:  cfg.FFmpeg.BinaryPath,
	})
	ffmpeg := transcoder.New(installer)

	application, err := app.New(app.Options{
		Config:  cfg,
		Library: library,
		Runner:  ffmpeg,
	})
	if err != nil {
		_ = library.Close()
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return &cli.Dependencies{
		App:       application,
		Config:    cfg,
		Installer: installer,
		FFmpeg:    ffmpeg,
		Close: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
			defer cancel()
			err := application.Close(ctx)
			ffmpeg.Cleanup()
			return errors.Join(err, library.Close())
		},
	}, nil
}
