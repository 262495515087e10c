// Package mcp implements a Model Context Protocol (MCP) server that exposes
// a merge workspace as tools and resources for AI assistants.
//
// The server communicates via JSON-RPC 2.0 over stdio and implements the
// MCP specification (2024-11-05) for tools and resources. One server is
// bound to one workspace: files added through add_files stay in it until
// they are removed or the process exits.
//
// # Usage with Claude Desktop
//
// Add to your claude_desktop_config.json:
//
//	{
//	  "mcpServers": {
//	    "pdfmerge": {
//	      "command": "pdfmerge-mcp"
//	    }
//	  }
//	}
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
)

// Protocol constants.
const (
	ProtocolVersion = "2024-11-05"
	ServerName      = "pdfmerge-mcp"
	ServerVersion   = "1.0.0"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Server is an MCP server that handles JSON-RPC 2.0 messages over stdio.
type Server struct {
	tools     map[string]Tool
	resources map[string]Resource
	methods   map[string]method
	input     io.Reader
	output    io.Writer
	log       *slog.Logger
	mu        sync.Mutex // guards output
}

// method answers one JSON-RPC request. A nil *rpcError means success.
type method func(ctx context.Context, params json.RawMessage) (any, *rpcError)

// Tool defines an MCP tool that can be called by the client.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	Handler     ToolHandler    `json:"-"`
}

// ToolHandler executes a tool with the given arguments.
type ToolHandler func(ctx context.Context, args map[string]any) (ToolResult, error)

// ToolResult is the result returned by a tool execution.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock is a piece of content in a tool result.
type ContentBlock struct {
	Type     string `json:"type"` // "text" or "image"
	Text     string `json:"text,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"` // base64 for binary
}

// textResult wraps a single text block.
func textResult(format string, args ...any) ToolResult {
	return ToolResult{Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf(format, args...)}}}
}

// Resource defines an MCP resource.
type Resource struct {
	URI         string          `json:"uri"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	MIMEType    string          `json:"mimeType,omitempty"`
	Handler     ResourceHandler `json:"-"`
}

// ResourceHandler reads a resource and returns its content.
type ResourceHandler func(uri string) ([]ResourceContent, error)

// ResourceContent is the content of a read resource.
type ResourceContent struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"` // base64
}

type jsonrpcRequest struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

// isNotification reports whether the sender expects no reply.
func (r jsonrpcRequest) isNotification() bool {
	return r.ID == nil && (r.Method == "initialized" || strings.HasPrefix(r.Method, "notifications/"))
}

type jsonrpcResponse struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id"`
	Result  any              `json:"result,omitempty"`
	Error   *rpcError        `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("%s (%d)", e.Message, e.Code)
}

func invalidParams(message string, data any) *rpcError {
	return &rpcError{Code: codeInvalidParams, Message: message, Data: data}
}

// decodeParams unmarshals request params into v.
func decodeParams(raw json.RawMessage, v any) *rpcError {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return invalidParams("Invalid params", err.Error())
	}
	return nil
}

// NewServer creates a new MCP server reading from stdin and writing to stdout.
func NewServer(log *slog.Logger) *Server {
	return NewServerWithIO(os.Stdin, os.Stdout, log)
}

// NewServerWithIO creates a new MCP server with custom I/O for testing.
func NewServerWithIO(in io.Reader, out io.Writer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		tools:     make(map[string]Tool),
		resources: make(map[string]Resource),
		input:     in,
		output:    out,
		log:       log,
	}
	s.methods = map[string]method{
		"initialize":     s.initialize,
		"ping":           func(context.Context, json.RawMessage) (any, *rpcError) { return struct{}{}, nil },
		"tools/list":     s.listTools,
		"tools/call":     s.callTool,
		"resources/list": s.listResources,
		"resources/read": s.readResource,
	}
	return s
}

// AddTool registers a tool with the server.
func (s *Server) AddTool(t Tool) {
	s.tools[t.Name] = t
}

// AddResource registers a resource with the server.
func (s *Server) AddResource(r Resource) {
	s.resources[r.URI] = r
}

// Run reads newline-delimited requests until EOF or until ctx is done.
// Requests are answered one at a time, in the order received.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.input)
	// MCP uses newline-delimited JSON; allow lines up to 64 MiB.
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req jsonrpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.reply(nil, nil, &rpcError{Code: codeParseError, Message: "Parse error", Data: err.Error()})
			continue
		}
		s.dispatch(ctx, req)
	}
	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, req jsonrpcRequest) {
	s.log.Debug("mcp request", "method", req.Method)
	if req.isNotification() {
		return
	}
	m, ok := s.methods[req.Method]
	if !ok {
		s.reply(req.ID, nil, &rpcError{Code: codeMethodNotFound, Message: "Method not found", Data: req.Method})
		return
	}
	result, rerr := m(ctx, req.Params)
	s.reply(req.ID, result, rerr)
}

func (s *Server) initialize(context.Context, json.RawMessage) (any, *rpcError) {
	return map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    ServerName,
			"version": ServerVersion,
		},
	}, nil
}

func (s *Server) listTools(context.Context, json.RawMessage) (any, *rpcError) {
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	tools := make([]Tool, 0, len(names))
	for _, name := range names {
		tools = append(tools, s.tools[name])
	}
	return map[string]any{"tools": tools}, nil
}

// callTool runs a tool. Tool failures are reported inside the result with
// isError set, so the client can show them; only protocol problems become
// JSON-RPC errors.
func (s *Server) callTool(ctx context.Context, params json.RawMessage) (any, *rpcError) {
	var p struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if rerr := decodeParams(params, &p); rerr != nil {
		return nil, rerr
	}
	tool, ok := s.tools[p.Name]
	if !ok {
		return nil, invalidParams("Unknown tool", p.Name)
	}
	if p.Arguments == nil {
		p.Arguments = map[string]any{}
	}

	result, err := tool.Handler(ctx, p.Arguments)
	if err != nil {
		s.log.Warn("tool failed", "tool", p.Name, "err", err)
		return ToolResult{
			Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf("Error: %v", err)}},
			IsError: true,
		}, nil
	}
	return result, nil
}

func (s *Server) listResources(context.Context, json.RawMessage) (any, *rpcError) {
	uris := make([]string, 0, len(s.resources))
	for uri := range s.resources {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	resources := make([]Resource, 0, len(uris))
	for _, uri := range uris {
		resources = append(resources, s.resources[uri])
	}
	return map[string]any{"resources": resources}, nil
}

func (s *Server) readResource(_ context.Context, params json.RawMessage) (any, *rpcError) {
	var p struct {
		URI string `json:"uri"`
	}
	if rerr := decodeParams(params, &p); rerr != nil {
		return nil, rerr
	}
	r, ok := s.resources[p.URI]
	if !ok {
		return nil, invalidParams("Unknown resource", p.URI)
	}
	contents, err := r.Handler(p.URI)
	if err != nil {
		return nil, &rpcError{Code: codeInternalError, Message: "Resource error", Data: err.Error()}
	}
	return map[string]any{"contents": contents}, nil
}

// reply writes one response line. An error replaces the result.
func (s *Server) reply(id *json.RawMessage, result any, rerr *rpcError) {
	resp := jsonrpcResponse{JSONRPC: "2.0", ID: id, Result: result}
	if rerr != nil {
		resp.Result = nil
		resp.Error = rerr
	}
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("encoding response", "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.output.Write(append(data, '\n')); err != nil {
		s.log.Error("writing response", "err", err)
	}
}
