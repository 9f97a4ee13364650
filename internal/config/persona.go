package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/jonesy-ops/ash/internal/platform"
)

// Persona is one tier's system-prompt block, hand-edited by operators as a
// commentable JSON5 document.
type Persona struct {
	Tier         platform.Tier `json:"tier"`
	SystemPrompt string        `json:"system_prompt"`
	// DeniedPhrases lists sentence fragments the dispatcher's response
	// filter strips beyond their first occurrence (spec.md §4.5c).
	DeniedPhrases []string `json:"denied_phrases"`
}

// Personas maps tier to its loaded prompt document.
type Personas map[platform.Tier]Persona

// LoadPersonas reads one JSON5 document per tier from dir, named
// "<tier>.json5" (e.g. "streamer.json5", "standard.json5").
func LoadPersonas(dir string) (Personas, error) {
	tiers := []platform.Tier{
		platform.TierStreamer,
		platform.TierCreator,
		platform.TierOperator,
		platform.TierMember,
		platform.TierStandard,
	}
	out := make(Personas, len(tiers))
	for _, tier := range tiers {
		path := filepath.Join(dir, string(tier)+".json5")
		contents, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("config: read persona %s: %w", path, err)
		}
		var p Persona
		if err := json5.Unmarshal(contents, &p); err != nil {
			return nil, fmt.Errorf("config: parse persona %s: %w", path, err)
		}
		p.Tier = tier
		out[tier] = p
	}
	return out, nil
}

// For returns the persona for tier, falling back to TierStandard's
// document (or a minimal neutral default if even that is absent).
func (p Personas) For(tier platform.Tier) Persona {
	if persona, ok := p[tier]; ok {
		return persona
	}
	if persona, ok := p[platform.TierStandard]; ok {
		return persona
	}
	return Persona{Tier: tier, SystemPrompt: "You are Ash, a gaming community assistant."}
}
