//go:build !cgo

package viewer

import (
	"errors"

	"github.com/signalsfoundry/rfvision/internal/demo"
)

func RunWindow(_ *demo.Controller, _ int) error {
	return errors.New("window mode requires cgo (build/run with CGO_ENABLED=1)")
}
