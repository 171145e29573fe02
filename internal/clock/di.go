package clock

import (
	"github.com/dawamlab/dawam/internal/config"
	jujuclock "github.com/juju/clock"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Calendar, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewCalendar(jujuclock.WallClock, cfg.Timezone)
	})
}
