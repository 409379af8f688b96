package medassist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/medicare-ai/medassist/dataset"
	"github.com/medicare-ai/medassist/orchestrator"
	"github.com/medicare-ai/medassist/retriever"
)

const Version = "1.0.0"

// NewMCPServer exposes the assistant as MCP tools.
func NewMCPServer(a *Assistant, serverName string) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		serverName,
		Version,
		server.WithToolCapabilities(false),
		server.WithInstructions("This is a medical assistant server answering medicine questions from a curated dataset with LLM provider failover"),
	)

	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("chat", "Answer a medicine or health question, keeping conversation context per session", GetChatSchema()),
		HandleChat(a),
	)
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("search-medicines", "Retrieve dataset passages relevant to a natural language query", GetSearchSchema()),
		HandleSearch(a),
	)
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("alternatives", "List brands with the same salt composition as the given brand", GetAlternativesSchema()),
		HandleAlternatives(a),
	)
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("cheapest", "Find the cheapest medicine among those named in the query, or in the whole dataset", GetCheapestSchema()),
		HandleCheapest(a),
	)
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("system-status", "Report provider, credential and dataset status", GetStatusSchema()),
		HandleStatus(a),
	)
	return mcpServer
}

func GetChatSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"message": {"type": "string", "description": "The user's question"},
			"session_id": {"type": "string", "description": "Conversation id; a new one is created when empty"},
			"user_id": {"type": "string", "description": "Caller identity used for transcripts"}
		},
		"required": ["message"]
	}`)
}

func GetSearchSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Search query"}
		},
		"required": ["query"]
	}`)
}

func GetAlternativesSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"brand": {"type": "string", "description": "Brand name, e.g. Dolo 650"}
		},
		"required": ["brand"]
	}`)
}

func GetCheapestSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Question naming the medicines to compare"}
		},
		"required": ["query"]
	}`)
}

func GetStatusSchema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func HandleChat(a *Assistant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := request.RequireString("message")
		if err != nil || strings.TrimSpace(message) == "" {
			return mcp.NewToolResultError("invalid message argument"), nil
		}
		userID := request.GetString("user_id", "mcp")
		reply, err := a.Orchestrator.Handle(ctx, orchestrator.Request{
			UserID:    userID,
			SessionID: request.GetString("session_id", ""),
			Messages:  []orchestrator.Message{{Role: orchestrator.RoleUser, Content: message}},
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(reply)
	}
}

func HandleSearch(a *Assistant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || strings.TrimSpace(query) == "" {
			return mcp.NewToolResultError("invalid query argument"), nil
		}
		chunks, err := a.Pipeline.Search(ctx, query)
		if errors.Is(err, retriever.ErrRetrievalEmpty) {
			return mcp.NewToolResultText("No relevant information found in the database."), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return jsonResult(map[string]any{"query": query, "chunks": chunks})
	}
}

func HandleAlternatives(a *Assistant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		brand, err := request.RequireString("brand")
		if err != nil || strings.TrimSpace(brand) == "" {
			return mcp.NewToolResultError("invalid brand argument"), nil
		}
		alts, err := a.Pipeline.Alternatives(brand)
		if errors.Is(err, dataset.ErrDrugNotFound) || errors.Is(err, dataset.ErrNoAlternatives) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err != nil {
			return nil, err
		}
		return jsonResult(map[string]any{"brand": brand, "alternatives": alts})
	}
}

func HandleCheapest(a *Assistant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("invalid query argument"), nil
		}
		return mcp.NewToolResultText(a.Pipeline.Cheapest(query)), nil
	}
}

func HandleStatus(a *Assistant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(a.Status())
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result failed, err: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
