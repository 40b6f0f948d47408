// Package mcpserver exposes the assistant as a Model Context Protocol tool.
package mcpserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/usecase"
)

// Version is the MCP server version.
const Version = "0.1.0"

// ToolName is the name under which the answering pipeline is published.
const ToolName = "consultar_asistente"

// ErrMissingAssistant is returned when no answering backend is provided.
var ErrMissingAssistant = errors.New("mcp: assistant is required")

// Asker answers one question given the earlier turns of a conversation.
type Asker interface {
	Answer(ctx context.Context, question string, history []domain.Turn) (*usecase.Answer, error)
}

// AskInput is the input schema of the tool.
type AskInput struct {
	Question string        `json:"question" jsonschema:"the question about University of Seville procedures or regulations"`
	History  []domain.Turn `json:"history,omitempty" jsonschema:"earlier turns of the conversation, oldest first"`
}

// AskOutput is the output schema of the tool.
type AskOutput struct {
	Answer       string   `json:"answer"`
	Sources      []string `json:"sources"`
	Reformulated string   `json:"reformulated"`
}

type Server struct {
	asker  Asker
	server *mcp.Server
}

// NewServer creates an MCP server with the answering tool registered.
func NewServer(asker Asker) (*Server, error) {
	if asker == nil {
		return nil, ErrMissingAssistant
	}

	impl := &mcp.Implementation{
		Name:    "asistente-us",
		Version: Version,
	}
	s := &Server{
		asker:  asker,
		server: mcp.NewServer(impl, nil),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolName,
		Description: "Answer questions about University of Seville bureaucracy from the indexed regulations, citing the documents used",
	}, s.handleAsk)
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.asker.Answer(ctx, input.Question, input.History)
	if err != nil {
		return nil, AskOutput{}, err
	}

	out := AskOutput{
		Answer:       answer.Text,
		Sources:      answer.Sources,
		Reformulated: answer.Reformulated,
	}
	if out.Sources == nil {
		out.Sources = []string{}
	}
	return nil, out, nil
}
