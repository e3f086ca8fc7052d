package app

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"

	"detail-library/internal/model"
	"detail-library/internal/repository"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

var vocabulary = []string{
	"wall", "slab", "waterproofing", "window", "floor",
	"internal", "external", "junction", "membrane", "sill",
}

func tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// keywordEmbedder counts vocabulary hits, one dimension per word.
type keywordEmbedder struct {
	calls []string
	err   error
	width int
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls = append(e.calls, text)
	if e.err != nil {
		return nil, e.err
	}
	width := len(vocabulary)
	if e.width > 0 {
		width = e.width
	}
	vec := make([]float32, width)
	for _, tok := range tokens(text) {
		for i, w := range vocabulary {
			if i < width && tok == w {
				vec[i]++
			}
		}
	}
	return vec, nil
}

// overlapReranker scores by the number of distinct query tokens found in
// the candidate.
type overlapReranker struct {
	calls int
	err   error
}

func (r *overlapReranker) Score(_ context.Context, query, candidate string) (float32, error) {
	r.calls++
	if r.err != nil {
		return 0, r.err
	}
	present := map[string]bool{}
	for _, tok := range tokens(candidate) {
		present[tok] = true
	}
	seen := map[string]bool{}
	var score float32
	for _, tok := range tokens(query) {
		if present[tok] && !seen[tok] {
			score++
			seen[tok] = true
		}
	}
	return score, nil
}

// tableReranker returns fixed scores keyed by candidate text.
type tableReranker struct {
	scores map[string]float32
	calls  int
}

func (r *tableReranker) Score(_ context.Context, _ string, candidate string) (float32, error) {
	r.calls++
	return r.scores[candidate], nil
}

type stubGenerator struct {
	text    string
	err     error
	panics  bool
	prompts []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.panics {
		panic("boom")
	}
	return g.text, g.err
}

// memoryStore is an in-memory detail catalogue with transactional backfill.
type memoryStore struct {
	details []model.Detail
	rules   map[[3]string]uint
	failing error
}

func (s *memoryStore) ListAll(context.Context) ([]model.Detail, error) {
	out := make([]model.Detail, len(s.details))
	copy(out, s.details)
	return out, nil
}

func (s *memoryStore) FindByID(_ context.Context, id uint) (*model.Detail, error) {
	for _, d := range s.details {
		if d.ID == id {
			found := d
			return &found, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) SearchText(_ context.Context, q string) ([]model.Detail, error) {
	q = strings.ToLower(q)
	var out []model.Detail
	for _, d := range s.details {
		if strings.Contains(strings.ToLower(d.Title), q) || strings.Contains(strings.ToLower(d.Description), q) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memoryStore) FindByRule(_ context.Context, host, adjacent, exposure string) (*model.Detail, error) {
	if s.failing != nil {
		return nil, s.failing
	}
	key := [3]string{strings.ToLower(host), strings.ToLower(adjacent), strings.ToLower(exposure)}
	id, ok := s.rules[key]
	if !ok {
		return nil, nil
	}
	for _, d := range s.details {
		if d.ID == id {
			found := d
			return &found, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) CreateWithRules(_ context.Context, detail *model.Detail, rules []model.DetailUsageRule) (bool, error) {
	for _, d := range s.details {
		if d.Title == detail.Title {
			return false, nil
		}
	}
	detail.ID = uint(len(s.details) + 1)
	s.details = append(s.details, *detail)
	if s.rules == nil {
		s.rules = map[[3]string]uint{}
	}
	for _, r := range rules {
		key := [3]string{strings.ToLower(r.HostElement), strings.ToLower(r.AdjacentElement), strings.ToLower(r.Exposure)}
		s.rules[key] = detail.ID
	}
	return true, nil
}

func (s *memoryStore) SearchBySimilarity(_ context.Context, vec []float32, k int) ([]model.ScoredDetail, error) {
	if s.failing != nil {
		return nil, s.failing
	}
	var scored []model.ScoredDetail
	for _, d := range s.details {
		if !d.HasEmbedding() {
			continue
		}
		scored = append(scored, model.ScoredDetail{Detail: d, Similarity: cosine(vec, d.Embedding.Slice())})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (s *memoryStore) ListUnembedded(context.Context) ([]model.Detail, error) {
	var out []model.Detail
	for _, d := range s.details {
		if !d.HasEmbedding() {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memoryStore) UpdateEmbedding(_ context.Context, id uint, vec []float32) (bool, error) {
	for i := range s.details {
		if s.details[i].ID == id && !s.details[i].HasEmbedding() {
			v := pgvector.NewVector(vec)
			s.details[i].Embedding = &v
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) WithinTransaction(ctx context.Context, fn func(tx repository.EmbeddingTx) error) error {
	snapshot := make([]model.Detail, len(s.details))
	copy(snapshot, s.details)
	if err := fn(s); err != nil {
		s.details = snapshot
		return err
	}
	return nil
}

func (s *memoryStore) embeddedCount() int {
	n := 0
	for _, d := range s.details {
		if d.HasEmbedding() {
			n++
		}
	}
	return n
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func sampleDetails() []model.Detail {
	return []model.Detail{
		{
			ID:          1,
			Title:       "Wall-Slab Waterproofing Junction",
			Category:    "Waterproofing",
			Tags:        pq.StringArray{"wall", "slab", "waterproofing"},
			Description: "Continuous waterproofing membrane lapped from the external wall onto the slab edge at the junction.",
		},
		{
			ID:          2,
			Title:       "Window Sill Flashing",
			Category:    "Openings",
			Tags:        pq.StringArray{"window", "sill"},
			Description: "Sill flashing for window openings in external walls with a drip edge.",
		},
		{
			ID:          3,
			Title:       "Internal Wall Floor Acoustic Junction",
			Category:    "Acoustics",
			Tags:        pq.StringArray{"internal", "floor"},
			Description: "Acoustic isolation strip between an internal wall and the floor slab.",
		},
	}
}

// embeddedStore returns sample details already backfilled with embedder.
func embeddedStore(embedder *keywordEmbedder) *memoryStore {
	store := &memoryStore{details: sampleDetails()}
	for i := range store.details {
		vec, _ := embedder.Embed(context.Background(), BackfillText(store.details[i]))
		v := pgvector.NewVector(vec)
		store.details[i].Embedding = &v
	}
	embedder.calls = nil
	return store
}

var errProvider = errors.New("provider down")
