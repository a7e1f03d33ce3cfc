// Package narrator provides flavour-text collaborators for the combat engine.
package narrator

import (
	"brawlsim/internal/combat"
	"brawlsim/internal/config"

	"go.uber.org/zap"
)

// Templates is the deterministic narrator used when scripting is off.
type Templates = combat.Templates

// New returns the narrator selected by cfg and a release func. A script that
// fails to load is logged and replaced by templates.
func New(cfg config.NarratorConfig, log *zap.Logger) (combat.Narrator, func()) {
	if !cfg.Enabled || cfg.Script == "" {
		return Templates{}, func() {}
	}
	l, err := NewLua(cfg.Script, log)
	if err != nil {
		log.Warn("narration script unavailable, using templates", zap.Error(err))
		return Templates{}, func() {}
	}
	return l, l.Close
}
