package risk

import "strings"

type Symptom string

const (
	ChestPain       Symptom = "chest_pain"
	ShortnessBreath Symptom = "shortness_breath"
	Palpitations    Symptom = "palpitations"
	Dizziness       Symptom = "dizziness"
	Fatigue         Symptom = "fatigue"
	Headache        Symptom = "headache"
	Fever           Symptom = "fever"
	Cough           Symptom = "cough"
	Nausea          Symptom = "nausea"
	Sweating        Symptom = "sweating"
	MusclePain      Symptom = "muscle_pain"
	Confusion       Symptom = "confusion"
	Anxiety         Symptom = "anxiety"
	Insomnia        Symptom = "insomnia"
	SoreThroat      Symptom = "sore_throat"
)

var vocabulary = map[Symptom]struct{}{
	ChestPain: {}, ShortnessBreath: {}, Palpitations: {}, Dizziness: {}, Fatigue: {},
	Headache: {}, Fever: {}, Cough: {}, Nausea: {}, Sweating: {},
	MusclePain: {}, Confusion: {}, Anxiety: {}, Insomnia: {}, SoreThroat: {},
}

func (s Symptom) Known() bool {
	_, ok := vocabulary[s]
	return ok
}

// SymptomSet keeps the caller's ids in first-seen order without duplicates.
// Ids outside the vocabulary are retained but never scored.
type SymptomSet struct {
	ids  []Symptom
	seen map[Symptom]struct{}
}

func NewSymptomSet(ids []string) SymptomSet {
	set := SymptomSet{seen: make(map[Symptom]struct{}, len(ids))}
	for _, raw := range ids {
		id := Symptom(strings.TrimSpace(raw))
		if id == "" {
			continue
		}
		if _, dup := set.seen[id]; dup {
			continue
		}
		set.seen[id] = struct{}{}
		set.ids = append(set.ids, id)
	}
	return set
}

func (s SymptomSet) Has(id Symptom) bool {
	_, ok := s.seen[id]
	return ok
}

func (s SymptomSet) Len() int {
	return len(s.ids)
}

func (s SymptomSet) Strings() []string {
	out := make([]string, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, string(id))
	}
	return out
}

func (s SymptomSet) weigh(weights map[Symptom]int) int {
	total := 0
	for _, id := range s.ids {
		total += weights[id]
	}
	return total
}
