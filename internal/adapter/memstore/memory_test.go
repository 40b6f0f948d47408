package memstore

import (
	"context"
	"testing"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/embedding"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

func TestMemoryIndex(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(embedding.NewHashEmbedder(512, "es"))

	docs := []domain.Chunk{
		{Text: "La anulación de matrícula se solicita en la Secretaría del centro."},
		{Text: "El plazo de presentación del TFG termina en julio."},
		{Text: "Las becas del Ministerio se solicitan en la sede electrónica."},
	}
	n, err := idx.Index(ctx, docs)
	if err != nil || n != 3 {
		t.Fatalf("Index = %d, %v", n, err)
	}
	idx.Index(ctx, docs[:1])

	count, _ := idx.Count()
	if count != 4 {
		t.Errorf("Count = %d, want 4", count)
	}

	results, err := idx.Query(ctx, "¿Cómo solicito la anulación de la matrícula?", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("len = %d, want 2", len(results))
	}
	for _, r := range results {
		if r.Chunk.Text != docs[0].Text {
			t.Errorf("unexpected hit %q", r.Chunk.Text)
		}
		if r.Chunk.ID == "" {
			t.Error("chunk id not assigned")
		}
	}
	if results[0].Distance > results[1].Distance {
		t.Error("results not ordered by distance")
	}
}

func TestMemoryIndex_ZeroK(t *testing.T) {
	idx := NewMemoryIndex(embedding.NewHashEmbedder(64, "es"))
	results, err := idx.Query(context.Background(), "matrícula", 0)
	if err != nil || results != nil {
		t.Errorf("Query k=0 = %v, %v", results, err)
	}
}
