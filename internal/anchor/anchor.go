// Package anchor tracks hot regions of query space. Each anchor is a centroid
// whose strength grows with nearby queries and decays with time; its type is a
// pure function of strength.
package anchor

import (
	"time"

	"github.com/hyperjump/hybridvdb/pkg/utils"
)

// Type is the anchor tier derived from strength.
type Type string

const (
	TypeWeak      Type = "WEAK"
	TypeMedium    Type = "MEDIUM"
	TypeStrong    Type = "STRONG"
	TypePermanent Type = "PERMANENT"
)

// Strength thresholds; each bound is exclusive.
const (
	permanentAbove = 90.0
	strongAbove    = 60.0
	mediumAbove    = 25.0
)

// TypeForStrength maps a strength to its tier.
func TypeForStrength(strength float64) Type {
	switch {
	case strength > permanentAbove:
		return TypePermanent
	case strength > strongAbove:
		return TypeStrong
	case strength > mediumAbove:
		return TypeMedium
	default:
		return TypeWeak
	}
}

// PredictionCount is how many prediction vectors to generate for an anchor of type t.
func PredictionCount(t Type) int {
	switch t {
	case TypeWeak:
		return 3
	case TypeMedium:
		return 5
	default:
		return 7
	}
}

// Anchor is a snapshot of one tracked query region.
type Anchor struct {
	ID           int64       `json:"id"`
	Centroid     []float32   `json:"-"`
	Type         Type        `json:"type"`
	Strength     float64     `json:"strength"`
	HitCount     int         `json:"hit_count"`
	QueryHistory []string    `json:"query_history"`
	LastHitTime  time.Time   `json:"last_hit_time"`
	Predictions  [][]float32 `json:"-"`
}

// setStrength is the only way strength changes, so Type always follows it.
func (a *Anchor) setStrength(s float64) {
	a.Strength = s
	a.Type = TypeForStrength(s)
}

func (a *Anchor) clone() Anchor {
	out := *a
	out.Centroid = utils.CloneVector(a.Centroid)
	out.QueryHistory = append([]string(nil), a.QueryHistory...)
	out.Predictions = utils.CloneVectors(a.Predictions)
	return out
}
