// Package history keeps consented analyses in process memory. Records do not
// survive a restart.
package history

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Skufu/healthtwin/internal/assessment"
)

var ErrNotFound = assessment.ErrNotFound

const suffixLength = 9

type Memory struct {
	mu      sync.RWMutex
	records map[string]assessment.AnalysisResult
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]assessment.AnalysisResult),
		now:     time.Now,
	}
}

// Save stores a copy of r under a fresh id of the form
// analysis_<unix-ms>_<9 random chars> and returns the id.
func (m *Memory) Save(ctx context.Context, r assessment.AnalysisResult) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.newID()
	for {
		if _, taken := m.records[id]; !taken {
			break
		}
		id = m.newID()
	}
	r = clone(r)
	r.ID = id
	m.records[id] = r
	return id, nil
}

func (m *Memory) newID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLength]
	return fmt.Sprintf("analysis_%d_%s", m.now().UnixMilli(), suffix)
}

// List returns every record, newest timestamp first.
func (m *Memory) List(ctx context.Context) ([]assessment.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	out := make([]assessment.AnalysisResult, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, clone(r))
	}
	m.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b assessment.AnalysisResult) int {
		if c := parseTimestamp(b.Timestamp).Compare(parseTimestamp(a.Timestamp)); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (m *Memory) Get(ctx context.Context, id string) (assessment.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return assessment.AnalysisResult{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return assessment.AnalysisResult{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return clone(r), nil
}

// Delete reports whether a record with id existed.
func (m *Memory) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return false, nil
	}
	delete(m.records, id)
	return true, nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Unparseable timestamps sort last.
func parseTimestamp(ts string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}
	}
	return t
}

func clone(r assessment.AnalysisResult) assessment.AnalysisResult {
	r.Precautions = slices.Clone(r.Precautions)
	r.DoctorQuestions = slices.Clone(r.DoctorQuestions)
	r.Symptoms = slices.Clone(r.Symptoms)
	if r.ImageAnalysis != nil {
		img := *r.ImageAnalysis
		r.ImageAnalysis = &img
	}
	return r
}
