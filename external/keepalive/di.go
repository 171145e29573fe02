package keepalive

import (
	"github.com/dawamlab/dawam/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewServer(cfg.KeepalivePort), nil
	})
}
