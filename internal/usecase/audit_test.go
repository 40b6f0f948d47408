package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/dataset"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/llm"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/memstore"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

// fakeInterviews is an in-memory port.InterviewRepository.
type fakeInterviews struct {
	rows []domain.Interview
	err  error
}

func (f *fakeInterviews) Migrate(context.Context) error { return nil }

func (f *fakeInterviews) Insert(_ context.Context, ivs []domain.Interview) (int, error) {
	for _, iv := range ivs {
		iv.ID = len(f.rows) + 1
		f.rows = append(f.rows, iv)
	}
	return len(ivs), nil
}

func (f *fakeInterviews) List(_ context.Context, limit int) ([]domain.Interview, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && limit < len(f.rows) {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

func (f *fakeInterviews) Count(context.Context) (int64, error) { return int64(len(f.rows)), nil }

func (f *fakeInterviews) Close() error { return nil }

func rulesIndex(t *testing.T, rules ...string) *memstore.MemoryIndex {
	t.Helper()
	idx := memstore.NewMemoryIndex(newTestEmbedder())
	chunks := make([]domain.Chunk, len(rules))
	for i, r := range rules {
		chunks[i] = domain.Chunk{Text: r, Metadata: domain.Metadata{Source: "guia_buenas_practicas.txt"}}
	}
	_, err := idx.Index(context.Background(), chunks)
	require.NoError(t, err)
	return idx
}

func TestAudit_ConsentScenario(t *testing.T) {
	transcript := "REPORTER: Thanks for joining us today.\nGUEST: Happy to talk about the new campus."
	repo := &fakeInterviews{rows: []domain.Interview{{ID: 1, Title: "Campus interview", Transcript: transcript}}}
	rules := rulesIndex(t, "Interviews must disclose consent.")
	feedback := memstore.NewMemoryIndex(newTestEmbedder())
	gen := llm.NewScripted("STATUS: REJECTED\nREASON: The interview never discloses consent.")

	results, err := NewAuditUseCase(repo, rules, feedback, gen, AuditOptions{Limit: 50, RulesK: 4, ExcerptChars: 800}).
		Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, domain.StatusRejected, res.Verdict.Status)
	assert.Equal(t, "The interview never discloses consent.", res.Verdict.Reason)

	doc := res.Teaching
	assert.Contains(t, doc.Text, transcript)
	assert.Contains(t, doc.Text, "STATUS: REJECTED\nREASON: The interview never discloses consent.")
	assert.Equal(t, OriginInternalAudit, doc.Metadata.Origin)
	assert.Equal(t, "entrevista_1", doc.Metadata.Source)

	require.Len(t, gen.Prompts(), 1)
	assert.Contains(t, gen.Prompts()[0], "Interviews must disclose consent.")
	assert.Contains(t, gen.Prompts()[0], transcript)

	count, _ := feedback.Count()
	assert.Equal(t, 1, count)
	stored, err := feedback.Query(context.Background(), "consent", 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, doc.Text, stored[0].Chunk.Text)
}

func TestAudit_LimitAndNoIdempotenceGuard(t *testing.T) {
	repo := &fakeInterviews{}
	repo.Insert(context.Background(), []domain.Interview{
		{Title: "a", Transcript: "uno"},
		{Title: "b", Transcript: "dos"},
		{Title: "c", Transcript: "tres"},
	})
	feedback := memstore.NewMemoryIndex(newTestEmbedder())
	gen := llm.NewScripted("ESTADO: APROBADA\nMOTIVO: Cumple las reglas.")
	uc := NewAuditUseCase(repo, rulesIndex(t, "regla"), feedback, gen, AuditOptions{Limit: 2})

	var progress []int
	uc.OnProgress(func(done, total int, _ domain.AuditResult) { progress = append(progress, done*10+total) })

	for run := 0; run < 2; run++ {
		results, err := uc.Run(context.Background())
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, domain.StatusApproved, results[0].Verdict.Status)
	}

	count, _ := feedback.Count()
	assert.Equal(t, 4, count, "re-running re-inserts audited interviews")
	assert.Equal(t, []int{12, 22, 12, 22}, progress)
}

func TestAudit_FirstErrorAborts(t *testing.T) {
	repo := &fakeInterviews{rows: []domain.Interview{
		{ID: 1, Transcript: "uno"},
		{ID: 2, Transcript: "dos"},
	}}
	feedback := memstore.NewMemoryIndex(newTestEmbedder())

	calls := 0
	boom := errors.New("model crashed")
	gen := &llm.Scripted{Respond: func(string) (string, error) {
		calls++
		if calls == 2 {
			return "", boom
		}
		return "STATUS: APPROVED\nREASON: ok", nil
	}}

	results, err := NewAuditUseCase(repo, rulesIndex(t, "regla"), feedback, gen, AuditOptions{}).Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Len(t, results, 1)
	count, _ := feedback.Count()
	assert.Equal(t, 1, count, "records audited before the failure stay stored")
}

func TestAudit_ListError(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := NewAuditUseCase(&fakeInterviews{err: boom}, rulesIndex(t, "r"), memstore.NewMemoryIndex(newTestEmbedder()),
		llm.NewScripted(), AuditOptions{}).Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestAudit_RateLimiterHonoursContext(t *testing.T) {
	repo := &fakeInterviews{rows: []domain.Interview{{ID: 1, Transcript: "uno"}}}
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := llm.NewScripted("STATUS: APPROVED\nREASON: ok")
	_, err := NewAuditUseCase(repo, rulesIndex(t, "r"), memstore.NewMemoryIndex(newTestEmbedder()), gen,
		AuditOptions{Limiter: limiter}).Run(ctx)
	assert.Error(t, err)
	assert.Zero(t, gen.Calls())
}

func TestAudit_WithSQLiteRepository(t *testing.T) {
	repo, err := dataset.Open("sqlite", filepath.Join(t.TempDir(), "entrevistas.db"))
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	require.NoError(t, repo.Migrate(ctx))
	_, err = repo.Insert(ctx, []domain.Interview{{Title: "Entrevista", Transcript: strings.Repeat("palabra ", 200)}})
	require.NoError(t, err)

	feedback := memstore.NewMemoryIndex(newTestEmbedder())
	results, err := NewAuditUseCase(repo, rulesIndex(t, "regla"), feedback, llm.NewScripted("STATUS: APPROVED\nREASON: ok"),
		AuditOptions{ExcerptChars: 800}).Run(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)

	text := results[0].Teaching.Text
	assert.Contains(t, text, "EJEMPLO DE ARCHIVO (ID: 1)")
	_, fragment, _ := strings.Cut(text, "FRAGMENTO DEL TEXTO ORIGINAL:\n")
	assert.True(t, strings.HasPrefix(fragment, strings.Repeat("palabra ", 100)+"..."))
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantStatus domain.VerdictStatus
		wantReason string
	}{
		{"english", "STATUS: APPROVED\nREASON: Follows every rule.", domain.StatusApproved, "Follows every rule."},
		{"spanish", "ESTADO: RECHAZADA\nMOTIVO: No informa del consentimiento.", domain.StatusRejected, "No informa del consentimiento."},
		{"markdown and brackets", "**STATUS:** [REJECTED]\n**REASON:** Missing consent.", domain.StatusRejected, "Missing consent."},
		{"multiline reason", "STATUS: REJECTED\nREASON: First line.\nSecond line.", domain.StatusRejected, "First line.\nSecond line."},
		{"lowercase labels", "status: approved\nreason: ok", domain.StatusApproved, "ok"},
		{"unparseable", "I think this interview is fine.", domain.StatusUnknown, "I think this interview is fine."},
		{"unknown value", "STATUS: MAYBE\nREASON: unsure", domain.StatusUnknown, "unsure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ParseVerdict(tt.raw)
			assert.Equal(t, tt.wantStatus, v.Status)
			assert.Equal(t, tt.wantReason, v.Reason)
			assert.Equal(t, tt.raw, v.Raw)
		})
	}
}

func TestTeachingDocument_Excerpt(t *testing.T) {
	iv := domain.Interview{ID: 3, Title: "T", Transcript: "ñandú entrevista"}
	doc, err := TeachingDocument(iv, domain.Verdict{Status: domain.StatusApproved, Reason: "ok"}, 5)
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "FRAGMENTO DEL TEXTO ORIGINAL:\nñandú...")
	assert.NotEmpty(t, doc.ID)
}
