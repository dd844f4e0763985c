// Command marcher renders a sphere traced scene in a window that can be
// explored with the mouse and keyboard, or to a PNG file with -png.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"

	"github.com/soypat/marcher/marchaux"
)

func init() {
	runtime.LockOSThread() // OpenGL calls must happen on the main thread.
}

func main() {
	var (
		configFile = flag.String("config", "", "TOML configuration file. Flags override its values")
		pngFile    = flag.String("png", "", "Render a single frame from the start position to this PNG file and exit")
		dumpConfig = flag.Bool("dumpconfig", false, "Print the resulting configuration as TOML and exit")
		useGPU     = flag.Bool("gpu", false, "March rays in a fragment shader")
		silent     = flag.Bool("silent", false, "Disable informational logging")
		width      = flag.Int("width", 0, "Frame width in pixels")
		height     = flag.Int("height", 0, "Frame height in pixels")
		workers    = flag.Int("workers", 0, "Number of CPU render workers")
	)
	flag.Parse()
	cfg := marchaux.DefaultConfig()
	var err error
	if *configFile != "" {
		cfg, err = marchaux.LoadConfigFile(*configFile)
		if err != nil {
			log.Fatal("loading config: ", err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "gpu":
			cfg.UseGPU = *useGPU
		case "silent":
			cfg.Silent = *silent
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "workers":
			cfg.Workers = *workers
		}
	})
	err = cfg.Validate()
	if err != nil {
		log.Fatal("invalid config: ", err)
	}
	if *dumpConfig {
		err = marchaux.WriteConfig(os.Stdout, cfg)
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	scene, err := marchaux.DefaultScene(cfg.Scene)
	if err != nil {
		log.Fatal("creating scene: ", err)
	}
	if *pngFile != "" {
		err = marchaux.SnapshotFile(*pngFile, scene, cfg.StartCamera(), cfg)
		if err != nil {
			log.Fatal("snapshot: ", err)
		}
		return
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err = marchaux.Run(ctx, scene, cfg)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("UI: ", err)
	}
}
