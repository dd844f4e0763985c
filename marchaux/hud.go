package marchaux

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/golang/freetype/truetype"
	"github.com/soypat/marcher/camera"
	"github.com/soypat/marcher/frame"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
)

// HUD draws lines of text over frames.
type HUD struct {
	face     font.Face
	fg       image.Image
	backdrop color.RGBA
	lineH    int
	ascent   int
}

// NewHUD returns a HUD drawing Go Mono text of the given point size.
func NewHUD(size float64) (*HUD, error) {
	if !(size > 0) {
		return nil, fmt.Errorf("invalid HUD font size %v", size)
	}
	ttf, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(ttf, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	m := face.Metrics()
	return &HUD{
		face:     face,
		fg:       image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255}),
		backdrop: color.RGBA{A: 160},
		lineH:    m.Height.Ceil(),
		ascent:   m.Ascent.Ceil(),
	}, nil
}

// Draw draws lines of text starting at the top left corner of dst over a translucent backdrop.
// Text that does not fit in dst is clipped.
func (h *HUD) Draw(dst *image.RGBA, lines ...string) {
	if len(lines) == 0 {
		return
	}
	const pad = 2
	d := font.Drawer{Dst: dst, Src: h.fg, Face: h.face}
	var width fixed.Int26_6
	for _, line := range lines {
		width = max(width, d.MeasureString(line))
	}
	box := image.Rect(0, 0, width.Ceil()+2*pad, len(lines)*h.lineH+2*pad).Add(dst.Rect.Min)
	draw.Draw(dst, box.Intersect(dst.Rect), image.NewUniform(h.backdrop), image.Point{}, draw.Over)
	for i, line := range lines {
		d.Dot = fixed.P(dst.Rect.Min.X+pad, dst.Rect.Min.Y+pad+h.ascent+i*h.lineH)
		d.DrawString(line)
	}
}

// StatsLines formats camera and frame statistics for display by a HUD.
func StatsLines(cam camera.Camera, st frame.Stats, frameTime time.Duration) []string {
	fps := 0.0
	if frameTime > 0 {
		fps = float64(time.Second) / float64(frameTime)
	}
	p := cam.Position
	return []string{
		fmt.Sprintf("%5.1f fps  render %s", fps, st.Duration.Round(100*time.Microsecond)),
		fmt.Sprintf("pos %+.2f %+.2f %+.2f", p.X, p.Y, p.Z),
		fmt.Sprintf("yaw %+.2f pitch %+.2f", cam.Yaw, cam.Pitch),
		fmt.Sprintf("steps %d hits %d forced %d", st.March.Steps, st.March.Hits, st.March.Forced),
	}
}
