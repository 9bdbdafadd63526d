package risk

import (
	"encoding/json"
	"strings"
)

type Category int

const (
	Cardiac Category = iota
	Respiratory
	Infection
	Stress
	Neurological
)

// Categories is the fixed evaluation order; it also breaks score ties.
var Categories = [...]Category{Cardiac, Respiratory, Infection, Stress, Neurological}

var categoryNames = [...]string{
	Cardiac:      "cardiac",
	Respiratory:  "respiratory",
	Infection:    "infection",
	Stress:       "stress",
	Neurological: "neurological",
}

var categoryRegions = [...]string{
	Cardiac:      "chest (heart region)",
	Respiratory:  "chest (lungs)",
	Infection:    "full body",
	Stress:       "torso and head",
	Neurological: "head (brain)",
}

func (c Category) valid() bool {
	return c >= Cardiac && c <= Neurological
}

func (c Category) String() string {
	if !c.valid() {
		return categoryNames[Cardiac]
	}
	return categoryNames[c]
}

func (c Category) Region() string {
	if !c.valid() {
		return categoryRegions[Cardiac]
	}
	return categoryRegions[c]
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(name string) (Category, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range Categories {
		if categoryNames[c] == name {
			return c, true
		}
	}
	return Cardiac, false
}
