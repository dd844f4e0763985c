//go:build tinygo || !cgo

package marchaux

import (
	"context"
	"errors"

	"github.com/soypat/marcher"
)

func ui(ctx context.Context, scene *marcher.Scene, cfg Config) error {
	return errors.New("require cgo for UI rendering")
}
