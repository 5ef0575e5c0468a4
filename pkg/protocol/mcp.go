package protocol

// ProtocolVersion is the MCP protocol revision this server reports,
// regardless of what the client proposed.
const ProtocolVersion = "2025-06-18"

// Method names, grouped by dispatch family. Matching is exact and
// case-sensitive within each family.
const (
	// Lifecycle
	MethodInitialize = "initialize"
	MethodPing       = "ping"

	// Tools
	MethodToolsList = "tools/list"
	MethodToolsCall = "tools/call"

	// Prompts
	MethodPromptsList = "prompts/list"
	MethodPromptsGet  = "prompts/get"

	// Legacy flat namespace, kept for pre-MCP clients
	MethodTimeGet             = "time/get"
	MethodTimeGetWithFormat   = "time/get_with_format"
	MethodTimeGetWithTimezone = "time/get_with_timezone"
	MethodTimeGetUnix         = "time/get_unix"
	MethodTimeGetNanos        = "time/get_nanos"
	MethodTimeListTimezones   = "time/list_timezones"
	MethodTimeConvert         = "time/convert"

	// NotificationsPrefix marks one-way client messages that are
	// acknowledged but never answered.
	NotificationsPrefix = "notifications/"

	// LegacyTimePrefix identifies the legacy family
	LegacyTimePrefix = "time/"
)

// InitializeParams are the parameters sent by the client on initialize
type InitializeParams struct {
	ProtocolVersion string          `json:"protocolVersion"`
	ClientInfo      *ClientInfo     `json:"clientInfo,omitempty"`
	Capabilities    map[string]any  `json:"capabilities,omitempty"`
}

// ClientInfo identifies the connecting client
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the server's half of the handshake
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
	Capabilities    ServerCapabilities `json:"capabilities"`
}

// ServerInfo identifies this server on the wire
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerCapabilities declares the fixed capability set negotiated at
// initialize. It never changes during a session.
type ServerCapabilities struct {
	Tools   *ToolsCapability   `json:"tools,omitempty"`
	Prompts *PromptsCapability `json:"prompts,omitempty"`
}

// ToolsCapability describes the tools family support
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// PromptsCapability describes the prompts family support
type PromptsCapability struct {
	ListChanged bool `json:"listChanged"`
}
