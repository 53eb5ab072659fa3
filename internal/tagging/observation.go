// Package tagging reconciles classifier deliveries against image/tag
// storage: observations are deduplicated, names resolved to identifiers
// through a shared cache, and associations rebuilt with a derived
// moderation flag.
package tagging

import "strings"

// RawObservation is a single classifier reading as delivered on the wire.
type RawObservation struct {
	Tag        string
	Confidence float64
}

// Observation is a deduplicated reading keyed by canonical tag name.
type Observation struct {
	Name       string
	Confidence float64
}

// Normalize maps a raw tag string to its canonical form. Two spellings that
// normalize equal are the same tag.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Dedupe collapses repeated observations of the same canonical name, keeping
// the highest confidence. Equal confidence keeps the earliest reading, and
// first-seen order is preserved. Observations normalizing to an empty name
// are discarded.
func Dedupe(obs []RawObservation) []Observation {
	index := make(map[string]int, len(obs))
	out := make([]Observation, 0, len(obs))
	for _, o := range obs {
		name := Normalize(o.Tag)
		if name == "" {
			continue
		}
		if i, ok := index[name]; ok {
			if o.Confidence > out[i].Confidence {
				out[i].Confidence = o.Confidence
			}
			continue
		}
		index[name] = len(out)
		out = append(out, Observation{Name: name, Confidence: o.Confidence})
	}
	return out
}
