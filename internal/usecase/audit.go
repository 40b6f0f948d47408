package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/logging"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/prompt"
)

// OriginInternalAudit tags teaching documents produced by the audit.
const OriginInternalAudit = "auditoria_interna"

// rulesSeparator joins rule chunks in the audit prompt.
const rulesSeparator = "\n"

// AuditOptions configures an audit run.
type AuditOptions struct {
	Limit        int
	RulesK       int
	ExcerptChars int
	// Limiter paces model calls; nil means no pacing.
	Limiter *rate.Limiter
}

// AuditUseCase labels stored interviews against the rules corpus and writes
// one teaching document per interview into the feedback corpus. Re-running
// it labels and inserts the same interviews again.
type AuditUseCase struct {
	interviews port.InterviewRepository
	rules      port.VectorIndex
	feedback   port.VectorIndex
	generator  port.Generator
	opts       AuditOptions
	progress   func(done, total int, result domain.AuditResult)
}

// NewAuditUseCase creates a new audit use case.
func NewAuditUseCase(
	interviews port.InterviewRepository,
	rules port.VectorIndex,
	feedback port.VectorIndex,
	generator port.Generator,
	opts AuditOptions,
) *AuditUseCase {
	if opts.RulesK < 1 {
		opts.RulesK = 4
	}
	if opts.ExcerptChars <= 0 {
		opts.ExcerptChars = 800
	}
	return &AuditUseCase{
		interviews: interviews,
		rules:      rules,
		feedback:   feedback,
		generator:  generator,
		opts:       opts,
	}
}

// OnProgress registers a callback invoked after each audited interview.
func (u *AuditUseCase) OnProgress(fn func(done, total int, result domain.AuditResult)) *AuditUseCase {
	u.progress = fn
	return u
}

// Run audits up to Limit interviews in id order. The first error aborts the
// run; interviews audited before it stay in the feedback corpus.
func (u *AuditUseCase) Run(ctx context.Context) ([]domain.AuditResult, error) {
	interviews, err := u.interviews.List(ctx, u.opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	logging.Info("auditing %d interviews", len(interviews))

	results := make([]domain.AuditResult, 0, len(interviews))
	for i, iv := range interviews {
		result, err := u.AuditOne(ctx, iv)
		if err != nil {
			return results, fmt.Errorf("interview %d: %w", iv.ID, err)
		}
		results = append(results, result)
		if u.progress != nil {
			u.progress(i+1, len(interviews), result)
		}
	}
	return results, nil
}

// AuditOne labels a single interview and stores its teaching document.
func (u *AuditUseCase) AuditOne(ctx context.Context, iv domain.Interview) (domain.AuditResult, error) {
	rules, err := u.rules.Query(ctx, iv.Transcript, u.opts.RulesK)
	if err != nil {
		return domain.AuditResult{}, fmt.Errorf("failed to retrieve rules: %w", err)
	}

	p, err := prompt.Audit(prompt.JoinContext(rules, rulesSeparator), iv.Transcript)
	if err != nil {
		return domain.AuditResult{}, err
	}

	if u.opts.Limiter != nil {
		if err := u.opts.Limiter.Wait(ctx); err != nil {
			return domain.AuditResult{}, err
		}
	}
	raw, err := u.generator.Complete(ctx, p)
	if err != nil {
		return domain.AuditResult{}, fmt.Errorf("failed to evaluate interview: %w", err)
	}
	verdict := ParseVerdict(raw)
	logging.Debug("interview %d: %s", iv.ID, verdict.Status)

	doc, err := TeachingDocument(iv, verdict, u.opts.ExcerptChars)
	if err != nil {
		return domain.AuditResult{}, err
	}

	chunk := domain.Chunk{
		ID:       uuid.NewString(),
		DocID:    doc.ID,
		Text:     doc.Text,
		Metadata: doc.Metadata,
	}
	if _, err := u.feedback.Index(ctx, []domain.Chunk{chunk}); err != nil {
		return domain.AuditResult{}, fmt.Errorf("failed to store teaching document: %w", err)
	}

	return domain.AuditResult{Interview: iv, Verdict: verdict, Teaching: doc}, nil
}

// TeachingDocument combines an interview excerpt with its verdict.
func TeachingDocument(iv domain.Interview, verdict domain.Verdict, excerptChars int) (domain.Document, error) {
	text, err := prompt.Teaching(iv.ID, iv.Title, FormatVerdict(verdict), excerpt(iv.Transcript, excerptChars))
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{
		ID:   uuid.NewString(),
		Text: text,
		Metadata: domain.Metadata{
			Source: fmt.Sprintf("entrevista_%d", iv.ID),
			Origin: OriginInternalAudit,
			Title:  iv.Title,
		},
	}, nil
}

func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// FormatVerdict renders the two-field STATUS/REASON block.
func FormatVerdict(v domain.Verdict) string {
	return fmt.Sprintf("STATUS: %s\nREASON: %s", v.Status, v.Reason)
}

// ParseVerdict extracts STATUS and REASON from a model reply. The Spanish
// labels ESTADO/MOTIVO and values APROBADA/RECHAZADA are accepted too. A
// reply without a recognisable status is UNKNOWN with the raw text as
// reason.
func ParseVerdict(raw string) domain.Verdict {
	v := domain.Verdict{Status: domain.StatusUnknown, Raw: raw}

	var reason []string
	inReason := false
	for _, line := range strings.Split(raw, "\n") {
		clean := strings.TrimSpace(strings.ReplaceAll(line, "*", ""))
		label, value, hasLabel := strings.Cut(clean, ":")
		label = strings.ToUpper(strings.TrimSpace(label))

		switch {
		case hasLabel && (label == "STATUS" || label == "ESTADO"):
			v.Status = parseStatus(value)
			inReason = false
		case hasLabel && (label == "REASON" || label == "MOTIVO"):
			reason = append(reason[:0], strings.TrimSpace(value))
			inReason = true
		case inReason && clean != "":
			reason = append(reason, clean)
		}
	}

	v.Reason = strings.TrimSpace(strings.Join(reason, "\n"))
	if v.Status == domain.StatusUnknown && v.Reason == "" {
		v.Reason = strings.TrimSpace(raw)
	}
	return v
}

func parseStatus(s string) domain.VerdictStatus {
	s = strings.ToUpper(strings.Trim(strings.TrimSpace(s), "[]."))
	switch {
	case strings.HasPrefix(s, "APPROV"), strings.HasPrefix(s, "APROBAD"):
		return domain.StatusApproved
	case strings.HasPrefix(s, "REJECT"), strings.HasPrefix(s, "RECHAZAD"):
		return domain.StatusRejected
	default:
		return domain.StatusUnknown
	}
}
