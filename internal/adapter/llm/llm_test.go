package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/config"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

func TestOllamaGenerator_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, "llama3.1", req.Model)
		assert.Equal(t, 0.0, req.Options["temperature"])
		json.NewEncoder(w).Encode(generateResponse{Model: "llama3.1", Response: "Según el Artículo 5...", Done: true})
	}))
	defer srv.Close()

	g := NewOllamaGenerator(srv.URL, "llama3.1", 0, time.Second)
	out, err := g.Complete(context.Background(), "pregunta")
	require.NoError(t, err)
	assert.Equal(t, "Según el Artículo 5...", out)
}

func TestOllamaGenerator_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		w.Write([]byte(`{"response":"Hola","done":false}` + "\n"))
		w.Write([]byte(`{"response":", ","done":false}` + "\n"))
		w.Write([]byte(`{"response":"","done":false}` + "\n"))
		w.Write([]byte(`{"response":"mundo","done":true}` + "\n"))
	}))
	defer srv.Close()

	g := NewOllamaGenerator(srv.URL, "llama3.1", 0, time.Second)
	s, err := g.Stream(context.Background(), "p")
	require.NoError(t, err)

	var fragments []string
	for s.Next() {
		fragments = append(fragments, s.Fragment())
	}
	require.NoError(t, s.Err())
	assert.Equal(t, []string{"Hola", ", ", "mundo"}, fragments)
	assert.False(t, s.Next(), "stream must not restart")
}

func TestOllamaGenerator_StreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"Hola","done":false}` + "\n"))
		w.Write([]byte(`{"error":"model crashed"}` + "\n"))
	}))
	defer srv.Close()

	s, err := NewOllamaGenerator(srv.URL, "m", 0, time.Second).Stream(context.Background(), "p")
	require.NoError(t, err)
	out, err := Collect(s)
	assert.Equal(t, "Hola", out)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}

func TestOllamaGenerator_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaGenerator(srv.URL, "m", 0, time.Second).Complete(context.Background(), "p")
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}

func TestOpenAIGenerator_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"respuesta"}}]}`))
	}))
	defer srv.Close()

	g, err := NewOpenAIGenerator("custom", srv.URL, "k", "deepseek-chat", 0, time.Second)
	require.NoError(t, err)
	out, err := g.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "respuesta", out)
}

func TestOpenAIGenerator_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Plazo\"}}]}\n\n"))
		w.Write([]byte(": keep-alive\n\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\" abierto\"}}]}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	g, err := NewOpenAIGenerator("custom", srv.URL, "", "m", 0, time.Second)
	require.NoError(t, err)
	s, err := g.Stream(context.Background(), "p")
	require.NoError(t, err)
	out, err := Collect(s)
	require.NoError(t, err)
	assert.Equal(t, "Plazo abierto", out)
}

func TestOpenAIGenerator_EarlyClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 3; i++ {
			w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n"))
		}
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	g, err := NewOpenAIGenerator("custom", srv.URL, "", "m", 0, time.Second)
	require.NoError(t, err)
	s, err := g.Stream(context.Background(), "p")
	require.NoError(t, err)

	require.True(t, s.Next())
	require.NoError(t, s.Close())
	assert.False(t, s.Next())
	assert.NoError(t, s.Err())
}

func TestNewOpenAIGenerator_MissingKey(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	_, err := NewOpenAIGenerator("deepseek", "", "", "deepseek-chat", 0, 0)
	assert.Error(t, err)

	_, err = NewOpenAIGenerator("unknown", "", "", "m", 0, 0)
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestScripted(t *testing.T) {
	s := NewScripted("uno", "dos")
	ctx := context.Background()

	a, _ := s.Complete(ctx, "p1")
	b, _ := s.Complete(ctx, "p2")
	c, _ := s.Complete(ctx, "p3")
	assert.Equal(t, []string{"uno", "dos", "dos"}, []string{a, b, c})

	st, err := s.Stream(ctx, "p4")
	require.NoError(t, err)
	out, err := Collect(st)
	require.NoError(t, err)
	assert.Equal(t, "dos", out)
	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, s.Prompts())

	boom := errors.New("boom")
	failing := &Scripted{Err: boom}
	_, err = failing.Complete(ctx, "p")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, failing.Calls())
}

func TestSliceStream(t *testing.T) {
	boom := errors.New("cut")
	s := NewSliceStream([]string{"a", "b"}, boom)
	assert.True(t, s.Next())
	assert.NoError(t, s.Err())
	assert.Equal(t, "a", s.Fragment())
	assert.True(t, s.Next())
	assert.False(t, s.Next())
	assert.ErrorIs(t, s.Err(), boom)
	assert.False(t, s.Next())
}

func TestNew(t *testing.T) {
	g, err := New(config.GenerationConfig{Provider: "ollama", Model: "llama3.1"})
	require.NoError(t, err)
	assert.Equal(t, "llama3.1", g.ModelName())

	_, err = New(config.GenerationConfig{Provider: "bard"})
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}
