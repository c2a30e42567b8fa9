package tier

import (
	"fmt"

	"github.com/itsneelabh/ralph/internal/corekit"
)

// Validate checks every tier in the chain and accumulates every failure
// found rather than returning on the first, per spec §6's "all validation
// errors listed, not only the first" — a deliberate departure from the
// teacher's Config.Validate, which returns on the first bad field.
func (c TierEscalationConfig) Validate() error {
	errs := &corekit.ValidationErrors{}

	if len(c.Tiers) == 0 {
		errs.Add(fmt.Errorf("tier config: at least one tier is required"))
		return errs.AsError()
	}

	if c.MaxTotalCostUSD < 0 {
		errs.Add(fmt.Errorf("tier config: max_total_cost_usd must not be negative"))
	}
	if c.MaxTotalDurationMinutes < 0 {
		errs.Add(fmt.Errorf("tier config: max_total_duration_minutes must not be negative"))
	}

	seenNames := make(map[string]bool)
	for i, t := range c.Tiers {
		if t.Name == "" {
			errs.Add(fmt.Errorf("tier %d: name is required", i))
		} else if seenNames[t.Name] {
			errs.Add(fmt.Errorf("tier %d: duplicate tier name %q", i, t.Name))
		} else {
			seenNames[t.Name] = true
		}

		if t.Mode != ModeSimple && t.Mode != ModeFull {
			errs.Add(fmt.Errorf("tier %d (%s): mode must be %q or %q, got %q", i, t.Name, ModeSimple, ModeFull, t.Mode))
		}

		if t.MaxIterations <= 0 {
			errs.Add(fmt.Errorf("tier %d (%s): max_iterations must be positive", i, t.Name))
		}

		if t.ArtisanModel.Provider == "" || t.ArtisanModel.Model == "" {
			errs.Add(fmt.Errorf("tier %d (%s): artisan_model requires both provider and model", i, t.Name))
		}

		if t.Mode == ModeFull {
			if t.LibrarianModel.Provider == "" || t.LibrarianModel.Model == "" {
				errs.Add(fmt.Errorf("tier %d (%s): full mode requires librarian_model", i, t.Name))
			}
			if t.CriticModel.Provider == "" || t.CriticModel.Model == "" {
				errs.Add(fmt.Errorf("tier %d (%s): full mode requires critic_model", i, t.Name))
			}
		}
	}

	return errs.AsError()
}
