// Package marchaux provides the interactive viewer of the marcher renderer and
// auxiliary functions to configure it and save rendered frames.
package marchaux

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"time"

	"github.com/soypat/marcher"
	"github.com/soypat/marcher/camera"
	"github.com/soypat/marcher/frame"
)

// Run opens a window showing scene and lets the user fly through it with the mouse
// and the W, A, S, D, Space and Shift keys until the window is closed or ctx is done.
// Run must be called from the main OS thread and requires cgo.
func Run(ctx context.Context, scene *marcher.Scene, cfg Config) error {
	if scene == nil {
		return errors.New("nil scene")
	}
	err := cfg.Validate()
	if err != nil {
		return err
	}
	return ui(ctx, scene, cfg)
}

// Snapshot renders scene as seen from cam and writes the frame as a PNG image to w.
func Snapshot(w io.Writer, scene *marcher.Scene, cam camera.Camera, cfg Config) error {
	if w == nil {
		return errors.New("nil snapshot output")
	}
	log := func(args ...any) {
		if !cfg.Silent {
			fmt.Println(args...)
		}
	}
	renderer, err := frame.NewRenderer(scene, cfg.FrameConfig())
	if err != nil {
		return err
	}
	_, err = renderer.Render(cam)
	if err != nil {
		return err
	}
	st := renderer.Stats()
	log("rendered", cfg.Width, "x", cfg.Height, "frame in", st.Duration, "with", st.March.Steps, "march steps")
	if cfg.HUD {
		hud, err := NewHUD(hudFontSize)
		if err != nil {
			return err
		}
		hud.Draw(renderer.Image(), StatsLines(cam, st, st.Duration)...)
	}
	watch := stopwatch()
	err = png.Encode(w, renderer.Image())
	if err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	filename := "PNG"
	if fp, ok := w.(*os.File); ok {
		filename = fp.Name()
	}
	log("wrote", filename, "in", watch())
	return nil
}

// SnapshotFile is shorthand for [Snapshot] writing to a newly created file.
func SnapshotFile(filename string, scene *marcher.Scene, cam camera.Camera, cfg Config) error {
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = Snapshot(fp, scene, cam, cfg)
	if err != nil {
		return err
	}
	return fp.Sync()
}

const hudFontSize = 10

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
