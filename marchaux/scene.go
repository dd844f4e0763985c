package marchaux

import (
	"fmt"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/marcher"
)

// SceneConfig holds the colors of the default scene as hexadecimal RGB strings, i.e: "#ff0000".
type SceneConfig struct {
	Cube   string    `toml:"cube"`
	Sphere string    `toml:"sphere"`
	Ground [2]string `toml:"ground"`
	Roof   string    `toml:"roof"`
}

// DefaultSceneConfig returns the colors of the default scene.
func DefaultSceneConfig() SceneConfig {
	return SceneConfig{
		Cube:   "#00ff00",
		Sphere: "#ff0000",
		Ground: [2]string{"#ffffff", "#404040"},
		Roof:   "#ffffff",
	}
}

type sceneColors struct {
	cube, sphere, ground0, ground1, roof ms3.Vec
}

func (sc SceneConfig) colors() (c sceneColors, err error) {
	for _, v := range []struct {
		name string
		hex  string
		dst  *ms3.Vec
	}{
		{"cube", sc.Cube, &c.cube},
		{"sphere", sc.Sphere, &c.sphere},
		{"ground", sc.Ground[0], &c.ground0},
		{"ground", sc.Ground[1], &c.ground1},
		{"roof", sc.Roof, &c.roof},
	} {
		*v.dst, err = ParseColor(v.hex)
		if err != nil {
			return c, fmt.Errorf("scene %s color: %w", v.name, err)
		}
	}
	return c, nil
}

// DefaultScene builds the viewer's scene: a cube and a sphere floating between
// a checkered ground plane at y=-10 and a roof plane at y=10.
func DefaultScene(cfg SceneConfig) (*marcher.Scene, error) {
	c, err := cfg.colors()
	if err != nil {
		return nil, err
	}
	var bld marcher.Builder
	bld.SetFlags(marcher.FlagNoDimensionPanic)
	cube := bld.NewBoxAt(ms3.Vec{X: 1, Y: -2, Z: 5}, ms3.Vec{X: 0.5, Y: 0.5, Z: 0.5})
	sphere := bld.NewSphereAt(ms3.Vec{X: -4, Y: 0, Z: 7}, 1)
	ground := bld.Checkers(bld.NewPlane(-10), c.ground0, c.ground1)
	roof := bld.Color(bld.NewPlane(10), c.roof)
	return bld.Build(bld.Union(
		bld.Color(cube, c.cube),
		bld.Color(sphere, c.sphere),
		ground,
		roof,
	))
}
