package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/dexteam/internal/errors"
	"github.com/hpungsan/dexteam/internal/pokemon"
	"github.com/hpungsan/dexteam/internal/session"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	ctrl *session.Controller
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ctrl *session.Controller) *Handlers {
	return &Handlers{ctrl: ctrl}
}

// Request types for each tool

// SetSearchRequest represents the arguments for team_set_search.
type SetSearchRequest struct {
	Text *string `json:"text"`
}

// SearchRequest represents the arguments for team_search.
type SearchRequest struct {
	Text *string `json:"text,omitempty"`
}

// MemberRequest represents the arguments for team_remove and team_select.
type MemberRequest struct {
	ID int `json:"id"`
}

// StateOutput is the result of every tool: the state plus the selected
// Pokémon's Markdown card.
type StateOutput struct {
	session.State
	SelectedCard string `json:"selected_card,omitempty"`
}

// Handler implementations

// HandleState handles the team_state tool call.
func (h *Handlers) HandleState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.stateResult()
}

// HandleSetSearch handles the team_set_search tool call.
func (h *Handlers) HandleSetSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetSearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Text == nil {
		return errorResult(errors.NewInvalidRequest("text is required")), nil
	}

	h.ctrl.SetSearchText(*input.Text)
	return h.stateResult()
}

// HandleSearch handles the team_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if input.Text != nil {
		h.ctrl.SetSearchText(*input.Text)
	}
	if _, err := h.ctrl.SubmitSearch(ctx); err != nil {
		return errorResult(err), nil
	}
	return h.stateResult()
}

// HandleRandom handles the team_random tool call.
func (h *Handlers) HandleRandom(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := h.ctrl.FetchRandom(ctx); err != nil {
		return errorResult(err), nil
	}
	return h.stateResult()
}

// HandleAdd handles the team_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.ctrl.AddToTeam(); err != nil {
		return errorResult(err), nil
	}
	return h.stateResult()
}

// HandleRemove handles the team_remove tool call.
func (h *Handlers) HandleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeMember(req)
	if err != nil {
		return errorResult(err), nil
	}

	h.ctrl.RemoveFromTeam(input.ID)
	return h.stateResult()
}

// HandleSelect handles the team_select tool call.
func (h *Handlers) HandleSelect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeMember(req)
	if err != nil {
		return errorResult(err), nil
	}

	if _, err := h.ctrl.SelectMember(input.ID); err != nil {
		return errorResult(err), nil
	}
	return h.stateResult()
}

func decodeMember(req mcp.CallToolRequest) (MemberRequest, error) {
	input, err := decode[MemberRequest](req)
	if err != nil {
		return input, errors.NewInvalidRequest(err.Error())
	}
	if input.ID <= 0 {
		return input, errors.NewInvalidRequest("id must be a positive integer")
	}
	return input, nil
}

func (h *Handlers) stateResult() (*mcp.CallToolResult, error) {
	out := StateOutput{State: h.ctrl.State()}
	if out.Selected != nil {
		out.SelectedCard = pokemon.Card(*out.Selected)
	}
	return successResult(out)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if appErr, ok := errors.As(err); ok && appErr.Code != errors.ErrInternal {
		errorObj := map[string]any{
			"code":    appErr.Code,
			"message": appErr.Message,
			"status":  appErr.Status,
		}
		if appErr.Details != nil {
			errorObj["details"] = appErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
