package server

import (
	"context"
	"fmt"

	mcperrors "github.com/utcsync/mcp-time-server/pkg/errors"
	"github.com/utcsync/mcp-time-server/pkg/protocol"
	"github.com/utcsync/mcp-time-server/pkg/timesvc"
)

// Prompt renderers produce a single user message embedding the same
// JSON documents the tools return, pretty-printed, with a one-line
// lead-in. A missing required argument is an invalid-params error.

func userTextMessage(text string) []protocol.PromptMessage {
	return []protocol.PromptMessage{{
		Role:    "user",
		Content: protocol.ContentItem{Type: "text", Text: text},
	}}
}

func (h *Handlers) promptTime(ctx context.Context, _ map[string]string) (*protocol.GetPromptResult, error) {
	pretty, err := prettyJSON(timesvc.Now())
	if err != nil {
		return nil, mcperrors.InternalError(err)
	}

	return &protocol.GetPromptResult{
		Description: "Current UTC time with full details",
		Messages:    userTextMessage("Here is the current UTC time:\n\n" + pretty),
	}, nil
}

func (h *Handlers) promptTimeIn(ctx context.Context, args map[string]string) (*protocol.GetPromptResult, error) {
	timezone, ok := args["timezone"]
	if !ok {
		return nil, mcperrors.MissingParameter("timezone")
	}

	response, err := timesvc.NowInZone(timezone)
	if err != nil {
		return nil, err
	}
	pretty, err := prettyJSON(response)
	if err != nil {
		return nil, mcperrors.InternalError(err)
	}

	return &protocol.GetPromptResult{
		Description: fmt.Sprintf("Current time in %s", timezone),
		Messages: userTextMessage(fmt.Sprintf(
			"Here is the current time in %s:\n\n%s", timezone, pretty)),
	}, nil
}

func (h *Handlers) promptFormatTime(ctx context.Context, args map[string]string) (*protocol.GetPromptResult, error) {
	format, ok := args["format"]
	if !ok {
		return nil, mcperrors.MissingParameter("format")
	}

	payload, err := h.formattedPayload(format)
	if err != nil {
		return nil, err
	}
	pretty, err := prettyJSON(payload)
	if err != nil {
		return nil, mcperrors.InternalError(err)
	}

	return &protocol.GetPromptResult{
		Description: fmt.Sprintf("Time formatted as '%s'", format),
		Messages: userTextMessage(fmt.Sprintf(
			"Here is the current time formatted as '%s':\n\n%s", format, pretty)),
	}, nil
}

func (h *Handlers) promptUnixTime(ctx context.Context, _ map[string]string) (*protocol.GetPromptResult, error) {
	pretty, err := prettyJSON(timesvc.NowUnix())
	if err != nil {
		return nil, mcperrors.InternalError(err)
	}

	return &protocol.GetPromptResult{
		Description: "Current Unix timestamp",
		Messages:    userTextMessage("Here is the current Unix timestamp:\n\n" + pretty),
	}, nil
}
