// Package prompt renders the instruction templates sent to the language
// model. Templates are embedded at build time.
package prompt

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/config"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

// Fallback answers. They are part of the external contract and must not be
// reworded.
const (
	FallbackPlain    = "Lo siento, no encuentro esa información en la normativa disponible."
	FallbackExtended = "Lo siento, no encuentro los pasos o la información exacta en la documentación disponible. Te sugiero contactar con la Secretaría de tu centro o revisar la web principal de la US."
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("prompts").Funcs(template.FuncMap{"role": roleLabel}).ParseFS(templateFS, "templates/*.tmpl"),
)

func roleLabel(r domain.Role) string {
	if r == domain.RoleAssistant {
		return "Asistente"
	}
	return "Usuario"
}

func render(name string, data any) (string, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return sb.String(), nil
}

// Fallback returns the not-found sentence of a deployment profile.
func Fallback(profile string) string {
	if profile == config.ProfileNormativa {
		return FallbackPlain
	}
	return FallbackExtended
}

// Answer renders the answering prompt of profile.
func Answer(profile, context, question string) (string, error) {
	name := "secretaria.tmpl"
	if profile == config.ProfileNormativa {
		name = "normativa.tmpl"
	}
	return render(name, struct {
		Context, Question, Fallback string
	}{context, question, Fallback(profile)})
}

// Reformulate renders the prompt that rewrites a follow-up question as a
// standalone one.
func Reformulate(history []domain.Turn, question string) (string, error) {
	return render("reformulate.tmpl", struct {
		History  []domain.Turn
		Question string
	}{history, question})
}

// Audit renders the quality-audit prompt for one transcript.
func Audit(rules, text string) (string, error) {
	return render("audit.tmpl", struct{ Rules, Text string }{rules, text})
}

// Review renders the editorial review prompt.
func Review(rules, history, input string) (string, error) {
	return render("review.tmpl", struct{ Rules, History, Input string }{rules, history, input})
}

// Teaching renders the body of an audited example stored in the feedback
// corpus.
func Teaching(id int, title, verdict, excerpt string) (string, error) {
	return render("teaching.tmpl", struct {
		ID                      int
		Title, Verdict, Excerpt string
	}{id, title, verdict, excerpt})
}

// JoinContext concatenates chunk texts in retrieval order.
func JoinContext(chunks []domain.ScoredChunk, sep string) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Chunk.Text
	}
	return strings.Join(texts, sep)
}
