package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
	calls  []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, name+" "+args[len(args)-2])
	return m.output, m.err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestWalker(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.pdf", "")
	writeFile(t, dir, "a.pdf", "")
	writeFile(t, dir, "notas.txt", "")
	writeFile(t, dir, "borradores/c.pdf", "")

	w := NewWalker([]string{"**/*.pdf"}, []string{"borradores/**"})
	files, err := w.Walk(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "a.pdf"), files[0])
	assert.Equal(t, filepath.Join(dir, "b.pdf"), files[1])
}

func TestPDFLoader_SplitsPages(t *testing.T) {
	runner := &mockRunner{output: []byte("Página uno\n\fPágina dos\n\f   \fPágina cuatro\n\f")}
	l := NewPDFLoader(runner)

	docs, err := l.LoadFile(context.Background(), "/docs/normativa.pdf")
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "Página uno\n", docs[0].Text)
	require.NotNil(t, docs[0].Metadata.Page)
	assert.Equal(t, 0, *docs[0].Metadata.Page)
	assert.Equal(t, 1, *docs[1].Metadata.Page)
	assert.Equal(t, 3, *docs[2].Metadata.Page)
	assert.Equal(t, "/docs/normativa.pdf", docs[2].Metadata.Source)
	assert.Equal(t, []string{"pdftotext /docs/normativa.pdf"}, runner.calls)
}

func TestPDFLoader_RunnerError(t *testing.T) {
	l := NewPDFLoader(&mockRunner{err: errors.New("pdftotext: not found")})
	_, err := l.LoadFile(context.Background(), "/docs/x.pdf")
	assert.Error(t, err)
}

func TestDirLoader_Text(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "guia_buenas_practicas.txt", "Las entrevistas deben informar del consentimiento.")
	writeFile(t, dir, "vacio.txt", "  \n")

	l, err := New("text", []string{"**/*.txt"}, nil)
	require.NoError(t, err)

	docs, err := l.Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.NotEmpty(t, docs[0].ID)
	assert.Nil(t, docs[0].Metadata.Page)
	assert.Contains(t, docs[0].Text, "consentimiento")
}

func TestDirLoader_MissingDir(t *testing.T) {
	l, err := New("text", nil, nil)
	require.NoError(t, err)

	_, err = l.Load(context.Background(), filepath.Join(t.TempDir(), "no-existe"))
	assert.ErrorIs(t, err, domain.ErrInputDirMissing)
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New("docx", nil, nil)
	assert.Error(t, err)
}

func TestNew_PDFToolMissing(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()
	lookPath = func(string) (string, error) { return "", errors.New("executable file not found in $PATH") }

	l, err := New("pdf", nil, nil)
	assert.Nil(t, l)
	assert.ErrorIs(t, err, ErrPDFToolNotFound)
	assert.Contains(t, err.Error(), "pdftotext")
}

func TestNew_PDFToolAvailable(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()
	lookPath = func(string) (string, error) { return "/usr/bin/pdftotext", nil }

	l, err := New("pdf", []string{"**/*.pdf"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestJSONLoader(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "news_dialogue.json",
		`[{"title": "Entrevista", "summary": "Resumen", "utt": ["Hola.", "Adiós."]}]`)

	docs, err := NewJSONLoader().LoadFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Text, "TITULO: Entrevista")
	assert.Contains(t, docs[0].Text, "Hola.\nAdiós.")
	assert.Equal(t, "Entrevista", docs[0].Metadata.Title)
	assert.Equal(t, 0, *docs[0].Metadata.Page)
}

func TestJSONLoader_Malformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.json", `{"title": "x"}`)
	_, err := NewJSONLoader().LoadFile(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrMalformedDataset)
}

func TestHTMLLoader(t *testing.T) {
	path := writeFile(t, t.TempDir(), "faq.html", `<html><head><title>Secretaría</title>
<script>var x = 1;</script></head>
<body><nav>Inicio | Contacto</nav>
<h1>Anulación de matrícula</h1>
<p>La anulación se solicita   en la Secretaría del centro.</p>


<p>Plazo: hasta el 31 de octubre.</p></body></html>`)

	docs, err := NewHTMLLoader().LoadFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	text := docs[0].Text
	assert.Equal(t, "Secretaría", docs[0].Metadata.Title)
	assert.Contains(t, text, "La anulación se solicita en la Secretaría del centro.")
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "Inicio | Contacto")
	assert.NotContains(t, text, "\n\n\n")
}
