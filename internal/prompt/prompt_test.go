package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/config"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

func TestAnswer_Profiles(t *testing.T) {
	out, err := Answer(config.ProfileNormativa, "Artículo 5: ...", "¿Cómo anulo la matrícula?")
	require.NoError(t, err)
	assert.Contains(t, out, "Asistente Administrativo Experto")
	assert.Contains(t, out, `"`+FallbackPlain+`"`)
	assert.Contains(t, out, "CONTEXTO DE LA NORMATIVA:\nArtículo 5: ...")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "¿Cómo anulo la matrícula?"))

	out, err = Answer(config.ProfileSecretaria, "ctx", "q")
	require.NoError(t, err)
	assert.Contains(t, out, "Asistente de Atención al Estudiante")
	assert.Contains(t, out, FallbackExtended)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "RESPUESTA DEL ASISTENTE:"))
}

func TestAnswer_NoEscaping(t *testing.T) {
	out, err := Answer(config.ProfileNormativa, `Art. 3 <"plazos"> & 'tasas'`, "q")
	require.NoError(t, err)
	assert.Contains(t, out, `Art. 3 <"plazos"> & 'tasas'`)
}

func TestFallback(t *testing.T) {
	assert.Equal(t, FallbackPlain, Fallback(config.ProfileNormativa))
	assert.Equal(t, FallbackExtended, Fallback(config.ProfileSecretaria))
	assert.Equal(t, FallbackExtended, Fallback(""))
}

func TestReformulate(t *testing.T) {
	out, err := Reformulate([]domain.Turn{
		{Role: domain.RoleUser, Content: "¿Cuándo es la matrícula?"},
		{Role: domain.RoleAssistant, Content: "En julio."},
	}, "¿Y cómo la anulo?")
	require.NoError(t, err)
	assert.Contains(t, out, "Usuario: ¿Cuándo es la matrícula?\nAsistente: En julio.\n")
	assert.Contains(t, out, "NUEVA PREGUNTA:\n¿Y cómo la anulo?")
}

func TestAudit(t *testing.T) {
	out, err := Audit("Interviews must disclose consent.", "transcript")
	require.NoError(t, err)
	assert.Contains(t, out, "Interviews must disclose consent.")
	assert.Contains(t, out, "ENTREVISTA:\ntranscript")
	assert.Contains(t, out, "STATUS: [APPROVED o REJECTED]")
}

func TestReview(t *testing.T) {
	out, err := Review("regla", "", "noticia")
	require.NoError(t, err)
	assert.Contains(t, out, "CONTEXTO NORMATIVO (Reglas a cumplir):\nregla")
	assert.Contains(t, out, "NUEVA NOTICIA DEL USUARIO:\nnoticia")
}

func TestTeaching(t *testing.T) {
	out, err := Teaching(7, "Entrevista", "STATUS: REJECTED\nREASON: falta consentimiento", "Hola")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "EJEMPLO DE ARCHIVO (ID: 7)\nTITULO: Entrevista\n"))
	assert.Contains(t, out, "RESULTADO AUDITORÍA: STATUS: REJECTED\nREASON: falta consentimiento\n---")
	assert.Contains(t, out, "FRAGMENTO DEL TEXTO ORIGINAL:\nHola...")
}

func TestJoinContext(t *testing.T) {
	chunks := []domain.ScoredChunk{
		{Chunk: domain.Chunk{Text: "uno"}},
		{Chunk: domain.Chunk{Text: "dos"}},
	}
	assert.Equal(t, "uno\n\ndos", JoinContext(chunks, "\n\n"))
	assert.Equal(t, "", JoinContext(nil, "\n\n"))
}
