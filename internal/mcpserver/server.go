package mcpserver

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/domain/ragModel"
	"github.com/huddleapp/huddle/internal/rag"
	"github.com/huddleapp/huddle/internal/rag/retrieve"
	"github.com/huddleapp/huddle/pkg/logging"
)

const version = "1.0.0"

// Server exposes workspace retrieval to MCP clients. It reuses the same
// retrieval path as the HTTP API, so scope rules apply identically.
type Server struct {
	ragService rag.Service
	server     *mcp.Server
	logger     *logging.Logger
}

func NewServer(ragService rag.Service) *Server {
	s := &Server{
		ragService: ragService,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "huddle",
			Version: version,
		}, nil),
		logger: logging.NewLogger("mcpServer"),
	}
	s.registerTools()
	return s
}

// Handler returns the streamable HTTP transport for mounting on the router.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

type searchWorkspaceInput struct {
	Query        string `json:"query" jsonschema:"the search query"`
	ChannelID    string `json:"channel_id,omitempty" jsonschema:"restrict results to one channel"`
	OwnerID      string `json:"owner_id,omitempty" jsonschema:"include this user's personal documents"`
	Limit        int    `json:"limit,omitempty" jsonschema:"maximum number of results (default 5)"`
	MessagesOnly bool   `json:"messages_only,omitempty" jsonschema:"exclude document chunks from channel results"`
}

type searchWorkspaceOutput struct {
	Results []workspaceHit `json:"results"`
	Count   int            `json:"count"`
}

type workspaceHit struct {
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
	Type       string  `json:"type"`
	DocumentID string  `json:"document_id,omitempty"`
	Filename   string  `json:"filename,omitempty"`
	PageNumber int     `json:"page_number,omitempty"`
	ChannelID  string  `json:"channel_id,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_workspace",
		Description: "Search channel messages and uploaded documents in the Huddle workspace",
	}, s.handleSearchWorkspace)
}

func (s *Server) handleSearchWorkspace(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input searchWorkspaceInput,
) (*mcp.CallToolResult, searchWorkspaceOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = config.DefaultRetrievalLimit
	}

	results, err := s.ragService.RawRetrieve(ctx, input.Query, retrieve.Options{
		ChannelID:    input.ChannelID,
		OwnerID:      input.OwnerID,
		Limit:        limit,
		MessagesOnly: input.MessagesOnly,
	})
	if err != nil {
		s.logger.Error("workspace search failed", "error", err.Error())
		return nil, searchWorkspaceOutput{}, err
	}

	output := searchWorkspaceOutput{
		Results: make([]workspaceHit, len(results)),
		Count:   len(results),
	}
	for i, res := range results {
		hit := workspaceHit{Text: res.Text, Score: res.Score}
		switch meta := res.Meta.(type) {
		case ragModel.MessageMeta:
			hit.Type = string(ragModel.TypeMessage)
			hit.ChannelID = meta.ChannelID
		case ragModel.PDFChunkMeta:
			hit.Type = string(ragModel.TypePDFChunk)
			hit.DocumentID = meta.DocumentID
			hit.Filename = meta.Filename
			hit.PageNumber = meta.PageNumber
			hit.ChannelID = meta.ChannelID
		}
		output.Results[i] = hit
	}
	return nil, output, nil
}
