package match

// Weights is the scoring table: every signal the engine reads and the points
// it moves. The scorer itself carries no numbers, so the whole policy is
// inspectable here and overridable from configuration.
type Weights struct {
	// SkillPoints is the ceiling for the skill-overlap signal; the awarded
	// delta is the ceiling scaled by the fraction of profile skills found.
	SkillPoints int `mapstructure:"skill-points"`
	// SeniorityPenalty is subtracted once when the posting demands a level
	// the profile does not show.
	SeniorityPenalty int `mapstructure:"seniority-penalty"`
	// LocationBonus is added when the posting location matches a preferred
	// location.
	LocationBonus int `mapstructure:"location-bonus"`
	// RemoteBonus is added when the posting mentions remote or hybrid work,
	// regardless of the preferred-location list.
	RemoteBonus int `mapstructure:"remote-bonus"`
	// RedFlagPenalty is subtracted per matched red-flag phrase, up to
	// RedFlagMax in total.
	RedFlagPenalty int `mapstructure:"red-flag-penalty"`
	RedFlagMax     int `mapstructure:"red-flag-max"`

	SeniorMarkers []string `mapstructure:"senior-markers"`
	RemoteMarkers []string `mapstructure:"remote-markers"`
	RedFlags      []string `mapstructure:"red-flags"`
}

// DefaultWeights returns the built-in scoring table.
func DefaultWeights() Weights {
	return Weights{
		SkillPoints:      50,
		SeniorityPenalty: 15,
		LocationBonus:    15,
		RemoteBonus:      12,
		RedFlagPenalty:   10,
		RedFlagMax:       30,
		SeniorMarkers: []string{
			"senior",
			"staff engineer",
			"principal",
			"lead",
			"architect",
		},
		RemoteMarkers: []string{
			"remote",
			"hybrid",
			"work from home",
		},
		RedFlags: []string{
			"unpaid",
			"commission only",
			"commission-only",
			"phd required",
			"graduate degree required",
			"extensive experience",
		},
	}
}

func (w Weights) withDefaults() Weights {
	def := DefaultWeights()

	if w.SkillPoints <= 0 {
		w.SkillPoints = def.SkillPoints
	}
	if w.SeniorityPenalty <= 0 {
		w.SeniorityPenalty = def.SeniorityPenalty
	}
	if w.LocationBonus <= 0 {
		w.LocationBonus = def.LocationBonus
	}
	if w.RemoteBonus <= 0 {
		w.RemoteBonus = def.RemoteBonus
	}
	if w.RedFlagPenalty <= 0 {
		w.RedFlagPenalty = def.RedFlagPenalty
	}
	if w.RedFlagMax <= 0 {
		w.RedFlagMax = def.RedFlagMax
	}
	if len(w.SeniorMarkers) == 0 {
		w.SeniorMarkers = def.SeniorMarkers
	}
	if len(w.RemoteMarkers) == 0 {
		w.RemoteMarkers = def.RemoteMarkers
	}
	if len(w.RedFlags) == 0 {
		w.RedFlags = def.RedFlags
	}

	return w
}
