package attendance

import (
	"github.com/dawamlab/dawam/internal/clock"
	"github.com/dawamlab/dawam/internal/config"
	"github.com/dawamlab/dawam/internal/discord"
	"github.com/dawamlab/dawam/internal/repository"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Engine, error) {
		repo := do.MustInvoke[repository.Repository](i)
		cal := do.MustInvoke[*clock.Calendar](i)
		return NewEngine(repo, cal), nil
	})
	do.Provide(injector, func(i do.Injector) (*Reporter, error) {
		repo := do.MustInvoke[repository.Repository](i)
		cal := do.MustInvoke[*clock.Calendar](i)
		return NewReporter(repo, cal), nil
	})
	do.Provide(injector, func(i do.Injector) (*Auditor, error) {
		repo := do.MustInvoke[repository.Repository](i)
		dc := do.MustInvoke[discord.Client](i)
		cal := do.MustInvoke[*clock.Calendar](i)
		return NewAuditor(repo, dc, cal), nil
	})
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		engine := do.MustInvoke[*Engine](i)
		reporter := do.MustInvoke[*Reporter](i)
		auditor := do.MustInvoke[*Auditor](i)
		dc := do.MustInvoke[discord.Client](i)
		cal := do.MustInvoke[*clock.Calendar](i)
		return NewManager(cfg, repo, engine, reporter, auditor, dc, cal), nil
	})
}
