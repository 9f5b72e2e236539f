package anchor

// Config holds tracker tuning. Zero values are not filled in; start from
// DefaultConfig.
type Config struct {
	// DistanceThreshold is the cosine distance under which a query joins an anchor.
	DistanceThreshold float64
	// PredictionThreshold is the cosine similarity at which a prediction counts as hit.
	PredictionThreshold float64
	InitialStrength     float64
	HitBonus            float64
	PredictionBonus     float64
	// RemovalFloor is the strength under which a decayed anchor is dropped.
	RemovalFloor float64
	// Per-hour decay bases by type. PERMANENT anchors never decay.
	DecayWeak        float64
	DecayMedium      float64
	DecayStrong      float64
	PredictionStdDev float64
	RandomSeed       int64
}

// DefaultConfig returns the standard tracker tuning.
func DefaultConfig() Config {
	return Config{
		DistanceThreshold:   0.35,
		PredictionThreshold: 0.85,
		InitialStrength:     15.0,
		HitBonus:            5.0,
		PredictionBonus:     10.0,
		RemovalFloor:        5.0,
		DecayWeak:           0.5,
		DecayMedium:         0.8,
		DecayStrong:         0.9,
		PredictionStdDev:    0.05,
		RandomSeed:          42,
	}
}

func (c Config) decayBase(t Type) float64 {
	switch t {
	case TypeWeak:
		return c.DecayWeak
	case TypeMedium:
		return c.DecayMedium
	case TypeStrong:
		return c.DecayStrong
	default:
		return 1
	}
}
