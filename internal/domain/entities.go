package domain

import "fmt"

// UnknownSource is used when a chunk carries no source metadata.
const UnknownSource = "Desconocido"

// Metadata describes where a piece of text came from.
type Metadata struct {
	Source string `json:"source,omitempty"`
	Page   *int   `json:"page,omitempty"`
	Origin string `json:"origen,omitempty"`
	Title  string `json:"title,omitempty"`
	Chunk  int    `json:"chunk"`
}

// PageNumber returns a pointer suitable for Metadata.Page.
func PageNumber(n int) *int {
	return &n
}

// Document is a raw text segment produced by a loader.
type Document struct {
	ID       string
	Text     string
	Metadata Metadata
}

// Chunk is a bounded slice of a Document. Ordinal gives its position
// within the parent.
type Chunk struct {
	ID       string
	DocID    string
	Ordinal  int
	Text     string
	Metadata Metadata
}

// ScoredChunk is a query hit. Lower distance means more relevant.
type ScoredChunk struct {
	Chunk    Chunk
	Distance float64
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Citation identifies the origin of a retrieved chunk for display.
type Citation struct {
	Source string
	Page   *int
}

// String renders the citation as "<source> (Pág <page>)", with "?" when
// the page is unknown.
func (c Citation) String() string {
	source := c.Source
	if source == "" {
		source = UnknownSource
	}
	if c.Page == nil {
		return fmt.Sprintf("%s (Pág ?)", source)
	}
	return fmt.Sprintf("%s (Pág %d)", source, *c.Page)
}

// Interview is a row of the entrevistas table.
type Interview struct {
	ID         int
	Title      string
	Summary    string
	Transcript string
}

type VerdictStatus string

const (
	StatusApproved VerdictStatus = "APPROVED"
	StatusRejected VerdictStatus = "REJECTED"
	StatusUnknown  VerdictStatus = "UNKNOWN"
)

// Verdict is the two-field outcome of auditing a record against the rules.
type Verdict struct {
	Status VerdictStatus
	Reason string
	Raw    string
}

// AuditResult pairs an audited interview with its verdict and the teaching
// document written to the feedback corpus.
type AuditResult struct {
	Interview Interview
	Verdict   Verdict
	Teaching  Document
}
