package server

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"

	mcperrors "github.com/utcsync/mcp-time-server/pkg/errors"
	"github.com/utcsync/mcp-time-server/pkg/logging"
	"github.com/utcsync/mcp-time-server/pkg/protocol"
)

// Dispatch processes one raw JSON-RPC message and returns at most one
// response. A nil return means nothing may be written back: the
// message carried a null or absent id, so it is a notification even
// when its handler failed.
//
// Parse and invalid-request failures are the exception to silence:
// they are reported best-effort, with the recovered id when one could
// be salvaged and an explicit null id otherwise.
func (s *Server) Dispatch(ctx context.Context, raw []byte) *protocol.Response {
	var req protocol.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		s.logger.Error("Failed to parse request", logging.ErrorField(err))
		return s.errorResponse(recoverID(raw), mcperrors.ParseError(err.Error()))
	}

	if req.Method == "" {
		return s.errorResponse(req.ID, mcperrors.InvalidRequest("method required"))
	}
	if req.JSONRPC != protocol.JSONRPCVersion {
		return s.errorResponse(req.ID, mcperrors.InvalidRequest(`jsonrpc must be "2.0"`))
	}

	resp := s.route(ctx, &req)
	if req.IsNotification() {
		return nil
	}
	return resp
}

// HandleMessage dispatches one raw message and encodes the response
// for the wire. A nil return means there is nothing to write.
func (s *Server) HandleMessage(ctx context.Context, raw []byte) []byte {
	resp := s.Dispatch(ctx, raw)
	if resp == nil {
		return nil
	}

	out, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("Failed to serialize response", logging.ErrorField(err))
		return nil
	}
	return out
}

// route classifies the method and runs its handler. A panic inside a
// handler becomes an internal-error response; one request must never
// take the read loop down with it.
func (s *Server) route(ctx context.Context, req *protocol.Request) (resp *protocol.Response) {
	method := req.Method

	if strings.HasPrefix(method, protocol.NotificationsPrefix) {
		s.logger.Debug("Received notification", logging.String("method", method))
		return s.resultResponse(req.ID, struct{}{})
	}

	ctx, finish := s.instr.ObserveRequest(ctx, methodLabel(method))
	defer func() { finish(resp) }()

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("Handler panic",
				logging.String("method", method),
				logging.Any("panic", rec),
				logging.String("stack", string(debug.Stack())))
			resp = s.errorResponse(req.ID, mcperrors.InternalError(fmt.Errorf("%v", rec)))
		}
	}()

	result, err := s.handleMethod(ctx, req)
	if err != nil {
		s.logger.Error("Request error",
			logging.String("method", method),
			logging.ErrorField(err))
		return s.errorResponse(req.ID, err)
	}
	return s.resultResponse(req.ID, result)
}

func (s *Server) handleMethod(ctx context.Context, req *protocol.Request) (interface{}, error) {
	switch req.Method {
	case protocol.MethodInitialize:
		return s.handleInitialize(ctx, req.Params)
	case protocol.MethodPing:
		return struct{}{}, nil
	case protocol.MethodToolsList:
		return s.handleToolsList(ctx)
	case protocol.MethodToolsCall:
		return s.handleToolsCall(ctx, req.Params)
	case protocol.MethodPromptsList:
		return s.handlePromptsList(ctx)
	case protocol.MethodPromptsGet:
		return s.handlePromptsGet(ctx, req.Params)
	}

	if strings.HasPrefix(req.Method, protocol.LegacyTimePrefix) {
		if handler, ok := s.registry.ResolveLegacy(req.Method); ok {
			return handler(ctx, req.Params)
		}
	}

	return nil, mcperrors.MethodNotFound(req.Method)
}

func (s *Server) handleInitialize(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p protocol.InitializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err == nil && p.ClientInfo != nil {
			s.logger.Info("Client connected",
				logging.String("client", p.ClientInfo.Name),
				logging.String("client_version", p.ClientInfo.Version))
		}
	}

	return protocol.InitializeResult{
		ProtocolVersion: protocol.ProtocolVersion,
		ServerInfo: protocol.ServerInfo{
			Name:    s.name,
			Version: s.version,
		},
		Capabilities: protocol.ServerCapabilities{
			Tools:   &protocol.ToolsCapability{ListChanged: false},
			Prompts: &protocol.PromptsCapability{ListChanged: false},
		},
	}, nil
}

func (s *Server) handleToolsList(ctx context.Context) (interface{}, error) {
	s.logger.Debug("Listing tools")
	return protocol.ListToolsResult{Tools: s.registry.Tools()}, nil
}

func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (interface{}, error) {
	name, arguments, ok := nameAndArguments(params)
	if !ok {
		return nil, mcperrors.MissingParameter("tool name")
	}

	s.logger.Debug("Calling tool", logging.String("name", name))

	handler, found := s.registry.ResolveTool(name)
	if !found {
		// An unregistered name is an execution failure flagged in the
		// result, not a protocol error.
		_, finish := s.instr.ObserveToolCall(ctx, "unknown")
		finish(true)
		return protocol.NewToolErrorResult("Unknown tool: " + name), nil
	}

	ctx, finish := s.instr.ObserveToolCall(ctx, name)
	result, err := handler(ctx, arguments)
	if err != nil {
		finish(true)
		return nil, err
	}

	pretty, perr := prettyJSON(result)
	if perr != nil {
		finish(true)
		return nil, mcperrors.InternalError(perr)
	}
	finish(false)
	return protocol.NewToolTextResult(pretty), nil
}

func (s *Server) handlePromptsList(ctx context.Context) (interface{}, error) {
	s.logger.Debug("Listing prompts")
	return protocol.ListPromptsResult{Prompts: s.registry.Prompts()}, nil
}

func (s *Server) handlePromptsGet(ctx context.Context, params json.RawMessage) (interface{}, error) {
	name, arguments, ok := nameAndArguments(params)
	if !ok {
		return nil, mcperrors.MissingParameter("prompt name")
	}

	s.logger.Debug("Getting prompt", logging.String("name", name))

	render, found := s.registry.ResolvePrompt(name)
	if !found {
		return nil, mcperrors.UnknownPrompt(name)
	}

	ctx, finish := s.instr.ObservePromptRender(ctx, name)
	result, err := render(ctx, protocol.RawArguments(arguments))
	finish(err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// nameAndArguments pulls the common {name, arguments} pair out of a
// tools/call or prompts/get params payload. A non-object payload or a
// non-string name reads as no name at all.
func nameAndArguments(params json.RawMessage) (string, json.RawMessage, bool) {
	var p struct {
		Name      interface{}     `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if len(params) > 0 {
		_ = json.Unmarshal(params, &p)
	}

	name, ok := p.Name.(string)
	if !ok {
		return "", nil, false
	}
	return name, p.Arguments, true
}

// methodLabel normalizes a method name for metric labels. Matched
// methods keep their name; everything else folds into one bucket so a
// client cannot mint unbounded label values.
func methodLabel(method string) string {
	switch method {
	case protocol.MethodInitialize, protocol.MethodPing,
		protocol.MethodToolsList, protocol.MethodToolsCall,
		protocol.MethodPromptsList, protocol.MethodPromptsGet,
		protocol.MethodTimeGet, protocol.MethodTimeGetWithFormat,
		protocol.MethodTimeGetWithTimezone, protocol.MethodTimeGetUnix,
		protocol.MethodTimeGetNanos, protocol.MethodTimeListTimezones,
		protocol.MethodTimeConvert:
		return method
	}
	return "unknown"
}

// recoverID pulls the id out of a frame that failed full decoding, so
// a parse error can still reference the request that caused it.
func recoverID(raw []byte) interface{} {
	var probe struct {
		ID interface{} `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil
	}
	return probe.ID
}

func (s *Server) resultResponse(id interface{}, result interface{}) *protocol.Response {
	resp, err := protocol.NewResponse(id, result)
	if err != nil {
		s.logger.Error("Failed to encode result", logging.ErrorField(err))
		return s.errorResponse(id, mcperrors.InternalError(err))
	}
	return resp
}

func (s *Server) errorResponse(id interface{}, err error) *protocol.Response {
	resp, convErr := mcperrors.ToJSONRPCResponse(err, id)
	if convErr != nil {
		resp, _ = protocol.NewErrorResponse(id, mcperrors.CodeInternalError, "Internal error", nil)
	}
	return resp
}
