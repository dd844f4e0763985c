// Package frame renders camera views of a scene into RGBA frame buffers
// using a fixed amount of parallel workers.
package frame

import (
	"errors"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/math/ms1"
	"github.com/soypat/marcher"
	"github.com/soypat/marcher/camera"
	"github.com/soypat/marcher/lanes"
	"github.com/soypat/marcher/raymarch"
	"golang.org/x/sync/errgroup"
)

// Config configures a [Renderer].
type Config struct {
	// Width and Height of the frame in pixels. Both must be at least 2.
	Width, Height int
	// Workers is the number of bands the frame is split into, each rendered in parallel.
	Workers int
	// FOV is the horizontal angle in radians between the view direction and the frame's left or right edge.
	FOV   float32
	March raymarch.Config
}

// DefaultConfig returns the configuration of the interactive viewer.
func DefaultConfig() Config {
	return Config{
		Width:   300,
		Height:  300,
		Workers: 10,
		FOV:     45. / 360 * math32.Pi,
		March:   raymarch.DefaultConfig(),
	}
}

// Validate returns an error if the configuration can not be used to render.
func (cfg Config) Validate() error {
	if cfg.Width < 2 || cfg.Height < 2 {
		return fmt.Errorf("frame size %dx%d too small", cfg.Width, cfg.Height)
	} else if cfg.Workers < 1 {
		return errors.New("need at least one worker")
	} else if !(cfg.FOV > 0 && cfg.FOV < math32.Pi/2) {
		return fmt.Errorf("field of view %v out of range (0,pi/2)", cfg.FOV)
	}
	err := cfg.March.Validate()
	if err != nil {
		return fmt.Errorf("march config: %w", err)
	}
	return nil
}

// Stats holds information on the last rendered frame.
type Stats struct {
	Duration time.Duration
	March    raymarch.Stats
	// BandsDone is the number of bands that completed rendering.
	BandsDone int
}

// Renderer renders a fixed scene as seen from a camera.
// A Renderer must not be used from multiple goroutines at once.
type Renderer struct {
	cfg     Config
	scene   *marcher.Scene
	marcher *raymarch.Marcher
	img     *image.RGBA
	// dirs are camera-local ray directions of every pixel in raster order.
	dirs      []ms3.Vec
	bandStats []raymarch.Stats
	bandsDone atomic.Int32
	stats     Stats
}

// NewRenderer returns a Renderer of scene. The scene is not modified by rendering.
func NewRenderer(scene *marcher.Scene, cfg Config) (*Renderer, error) {
	if scene == nil {
		return nil, errors.New("nil scene")
	}
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	m, err := raymarch.NewMarcher(cfg.March)
	if err != nil {
		return nil, err
	}
	r := &Renderer{
		cfg:       cfg,
		scene:     scene,
		marcher:   m,
		img:       image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)),
		dirs:      make([]ms3.Vec, cfg.Width*cfg.Height),
		bandStats: make([]raymarch.Stats, cfg.Workers),
	}
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			r.dirs[x+y*cfg.Width] = cfg.Direction(x, y)
		}
	}
	return r, nil
}

// Direction returns the camera-local direction of the ray through pixel (x,y).
// Pixel (0,0) is the top left corner of the frame.
func (cfg Config) Direction(x, y int) ms3.Vec {
	xf := float32(x)/float32(cfg.Width-1)*2 - 1
	yf := float32(y)/float32(cfg.Height-1)*2 - 1
	aspect := float32(cfg.Height) / float32(cfg.Width)
	xr := xf * cfg.FOV
	yr := -yf * cfg.FOV * aspect
	sx, cx := math32.Sincos(xr)
	sy, cy := math32.Sincos(yr)
	return ms3.Vec{X: cy * sx, Y: sy, Z: cy * cx}
}

// Config returns the Renderer's configuration.
func (r *Renderer) Config() Config { return r.cfg }

// Render renders the scene as seen from cam and returns the frame's pixels in RGBA
// row-major order with a stride of 4*Width. The returned buffer is reused by the next call.
// Rendering the same camera state twice yields identical buffers.
func (r *Renderer) Render(cam camera.Camera) ([]byte, error) {
	start := time.Now()
	view, err := camera.View(r.scene, cam)
	if err != nil {
		return nil, fmt.Errorf("camera view: %w", err)
	}
	w, h := r.cfg.Width, r.cfg.Height
	stride := r.img.Stride
	r.bandsDone.Store(0)
	var g errgroup.Group
	for n := 0; n < r.cfg.Workers; n++ {
		y0, y1 := bandRows(n, r.cfg.Workers, h)
		// Each worker owns its band's pixels exclusively.
		pix := r.img.Pix[y0*stride : y1*stride]
		dirs := r.dirs[y0*w : y1*w]
		g.Go(func() error {
			r.bandStats[n] = r.renderBand(view, pix, dirs)
			r.bandsDone.Add(1)
			return nil
		})
	}
	err = g.Wait()
	if err != nil {
		return nil, err
	}
	r.stats = Stats{
		Duration:  time.Since(start),
		BandsDone: int(r.bandsDone.Load()),
	}
	for _, bs := range r.bandStats {
		r.stats.March.Add(bs)
	}
	return r.img.Pix, nil
}

// renderBand marches every ray of dirs from the camera origin and writes
// the resulting colors to pix, 4 bytes per ray.
func (r *Renderer) renderBand(view *marcher.Scene, pix []byte, dirs []ms3.Vec) (stats raymarch.Stats) {
	var batch lanes.Vec
	for start := 0; start < len(dirs); start += lanes.Width {
		n := min(len(dirs)-start, lanes.Width)
		for i := 0; i < lanes.Width; i++ {
			// Partial batches repeat the last direction.
			batch.SetLane(i, dirs[start+min(i, n-1)])
		}
		colors, st := r.marcher.March(view, lanes.Vec{}, batch)
		stats.Add(st)
		for i := 0; i < n; i++ {
			c := colors.Lane(i)
			off := 4 * (start + i)
			pix[off] = toByte(c.X)
			pix[off+1] = toByte(c.Y)
			pix[off+2] = toByte(c.Z)
			pix[off+3] = 255
		}
	}
	return stats
}

// bandRows returns the row range [y0,y1) of band n out of total bands over height rows.
func bandRows(n, total, height int) (y0, y1 int) {
	return n * height / total, (n + 1) * height / total
}

func toByte(v float32) byte {
	return byte(ms1.Clamp(v, 0, 1) * 255)
}

// Image returns the frame buffer as an image. It shares pixels with the buffer returned by Render.
func (r *Renderer) Image() *image.RGBA { return r.img }

// Stats returns information on the last rendered frame.
func (r *Renderer) Stats() Stats { return r.stats }
