package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/internal/testutil"
	"github.com/lvillar/pdfmerge/preview"
	"github.com/lvillar/pdfmerge/session"
)

type blankRenderer struct{}

func (blankRenderer) FirstPage([]byte, float64) (image.Image, int, error) {
	return image.NewRGBA(image.Rect(0, 0, 40, 60)), 1, nil
}

func newTestServer(t *testing.T) (*Server, *session.Workspace) {
	t.Helper()
	cfg := pdfmerge.NewConfig()
	ws := session.NewWorkspace(cfg,
		session.WithPreviewGenerator(preview.NewGenerator(cfg, preview.WithRenderer(blankRenderer{}))))
	s := NewServerWithIO(nil, nil, nil)
	RegisterTools(s, ws)
	RegisterResources(s, ws)
	return s, ws
}

func sendRequest(t *testing.T, s *Server, method string, id int, params any) jsonrpcResponse {
	t.Helper()

	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		req["params"] = params
	}

	reqBytes, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	reqBytes = append(reqBytes, '\n')

	var output bytes.Buffer
	s.input = bytes.NewReader(reqBytes)
	s.output = &output

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	var resp jsonrpcResponse
	if err := json.Unmarshal(output.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshaling response %q: %v", output.String(), err)
	}
	return resp
}

// callTool invokes a tool and decodes its result.
func callTool(t *testing.T, s *Server, name string, args map[string]any) ToolResult {
	t.Helper()
	resp := sendRequest(t, s, "tools/call", 1, map[string]any{"name": name, "arguments": args})
	if resp.Error != nil {
		t.Fatalf("%s: unexpected error: %v", name, resp.Error.Message)
	}
	raw, _ := json.Marshal(resp.Result)
	var res ToolResult
	if err := json.Unmarshal(raw, &res); err != nil {
		t.Fatalf("%s: decoding result: %v", name, err)
	}
	return res
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return p
}

func TestServerInitialize(t *testing.T) {
	s, _ := newTestServer(t)

	resp := sendRequest(t, s, "initialize", 1, map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "1.0"},
	})

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	result, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatal("result is not a map")
	}
	if result["protocolVersion"] != "2024-11-05" {
		t.Fatalf("unexpected protocol version: %v", result["protocolVersion"])
	}
	serverInfo, ok := result["serverInfo"].(map[string]any)
	if !ok {
		t.Fatal("missing serverInfo")
	}
	if serverInfo["name"] != "pdfmerge-mcp" {
		t.Fatalf("unexpected server name: %v", serverInfo["name"])
	}
}

func TestServerToolsList(t *testing.T) {
	s, _ := newTestServer(t)

	resp := sendRequest(t, s, "tools/list", 2, nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	result, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatal("result is not a map")
	}
	tools, ok := result["tools"].([]any)
	if !ok {
		t.Fatal("tools is not an array")
	}

	var names []string
	for _, tool := range tools {
		if tm, ok := tool.(map[string]any); ok {
			names = append(names, tm["name"].(string))
		}
	}
	want := []string{
		"add_files", "extract_pages", "list_files", "merge_files", "pdf_info",
		"preview_files", "remove_file", "reorder_files", "set_selected_pages", "toggle_page",
	}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("tools = %v, want %v", names, want)
	}
}

func TestServerResourcesList(t *testing.T) {
	s, _ := newTestServer(t)

	resp := sendRequest(t, s, "resources/list", 3, nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	result := resp.Result.(map[string]any)
	resources, ok := result["resources"].([]any)
	if !ok {
		t.Fatal("resources is not an array")
	}
	if len(resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(resources))
	}
}

func TestServerPing(t *testing.T) {
	s := NewServerWithIO(nil, nil, nil)

	resp := sendRequest(t, s, "ping", 4, nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
}

func TestServerUnknownMethod(t *testing.T) {
	s := NewServerWithIO(nil, nil, nil)

	resp := sendRequest(t, s, "nonexistent/method", 5, nil)
	if resp.Error == nil {
		t.Fatal("expected error for unknown method")
	}
	if resp.Error.Code != -32601 {
		t.Fatalf("expected error code -32601, got %d", resp.Error.Code)
	}
}

func TestServerNotificationHasNoReply(t *testing.T) {
	s := NewServerWithIO(nil, nil, nil)
	var output bytes.Buffer
	s.input = strings.NewReader(`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{}}` + "\n")
	s.output = &output

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if output.Len() != 0 {
		t.Fatalf("expected no reply, got %s", output.String())
	}
}

func TestServerParseError(t *testing.T) {
	s := NewServerWithIO(nil, nil, nil)
	var output bytes.Buffer
	s.input = strings.NewReader("{not json\n")
	s.output = &output

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	var resp jsonrpcResponse
	if err := json.Unmarshal(output.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshaling response %q: %v", output.String(), err)
	}
	if resp.Error == nil || resp.Error.Code != codeParseError {
		t.Fatalf("expected parse error, got %+v", resp)
	}
}

func TestServerUnknownTool(t *testing.T) {
	s, _ := newTestServer(t)

	resp := sendRequest(t, s, "tools/call", 6, map[string]any{
		"name":      "nonexistent_tool",
		"arguments": map[string]any{},
	})
	if resp.Error == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestMergeWorkflow(t *testing.T) {
	s, ws := newTestServer(t)
	dir := t.TempDir()

	five := writeFile(t, dir, "five.pdf", testutil.PDF(t, testutil.DistinctSizes(300, 5)...))
	one := writeFile(t, dir, "one.pdf", testutil.PDF(t, testutil.Size{Wd: 500, Ht: 700}))
	notes := writeFile(t, dir, "notes.txt", []byte("hello"))

	res := callTool(t, s, "add_files", map[string]any{
		"paths": []string{five, notes, one, filepath.Join(dir, "missing.pdf")},
	})
	if res.IsError {
		t.Fatalf("add_files failed: %v", res.Content)
	}
	text := res.Content[0].Text
	if !strings.Contains(text, "notes.txt") || !strings.Contains(text, "missing.pdf") {
		t.Errorf("expected rejections to be reported: %s", text)
	}
	if ws.Len() != 2 {
		t.Fatalf("expected 2 files, got %d", ws.Len())
	}

	res = callTool(t, s, "set_selected_pages", map[string]any{"file": "five.pdf", "pages": []int{2}})
	if res.IsError {
		t.Fatalf("set_selected_pages failed: %v", res.Content)
	}

	res = callTool(t, s, "preview_files", map[string]any{})
	if len(res.Content) != 4 || res.Content[1].Type != "image" {
		t.Errorf("expected text and image block per file, got %+v", res.Content)
	}

	out := filepath.Join(dir, "merged.pdf")
	res = callTool(t, s, "merge_files", map[string]any{"compression": "high", "outputPath": out})
	if res.IsError {
		t.Fatalf("merge_files failed: %v", res.Content)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading merged PDF: %v", err)
	}
	dims := testutil.PageDims(t, data)
	if len(dims) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(dims))
	}
	if int(dims[0].Width+0.5) != 320 || int(dims[1].Width+0.5) != 500 {
		t.Errorf("unexpected page widths %v, %v", dims[0].Width, dims[1].Width)
	}

	res = callTool(t, s, "pdf_info", map[string]any{"path": out})
	if res.IsError || !strings.Contains(res.Content[0].Text, `"page_count": 2`) {
		t.Errorf("unexpected pdf_info result: %+v", res)
	}

	resp := sendRequest(t, s, "resources/read", 9, map[string]any{"uri": "merge://progress"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	raw, _ := json.Marshal(resp.Result)
	if !strings.Contains(string(raw), "PDF created successfully!") {
		t.Errorf("unexpected progress resource: %s", raw)
	}
}

func TestEditTools(t *testing.T) {
	s, ws := newTestServer(t)
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", testutil.PDFPages(t, 3))
	b := writeFile(t, dir, "b.png", testutil.PNG(t, 10, 10))
	callTool(t, s, "add_files", map[string]any{"paths": []string{a, b, a}})

	res := callTool(t, s, "toggle_page", map[string]any{"file": "a.pdf", "page": 1, "selected": false})
	if !res.IsError || !strings.Contains(res.Content[0].Text, "more than one file") {
		t.Errorf("expected ambiguous name error, got %+v", res)
	}

	files := ws.Files()
	res = callTool(t, s, "toggle_page", map[string]any{"file": files[2].ID, "page": 1, "selected": false})
	if res.IsError {
		t.Fatalf("toggle_page failed: %v", res.Content)
	}
	if got := ws.Files()[2].Selected; len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("selection = %v, want [0 2]", got)
	}

	res = callTool(t, s, "reorder_files", map[string]any{"from": 2, "to": 0})
	if res.IsError {
		t.Fatalf("reorder_files failed: %v", res.Content)
	}
	if ws.Files()[0].ID != files[2].ID {
		t.Error("expected third file to move to the front")
	}

	res = callTool(t, s, "remove_file", map[string]any{"index": 1})
	if res.IsError || ws.Len() != 2 {
		t.Errorf("remove_file: %+v, %d files left", res, ws.Len())
	}

	res = callTool(t, s, "remove_file", map[string]any{"index": 9})
	if !res.IsError {
		t.Error("expected error for out-of-range index")
	}

	res = callTool(t, s, "list_files", map[string]any{})
	if !strings.Contains(res.Content[0].Text, "b.png") {
		t.Errorf("unexpected list_files result: %s", res.Content[0].Text)
	}
}

func TestMergeNeedsTwoFiles(t *testing.T) {
	s, _ := newTestServer(t)
	dir := t.TempDir()
	callTool(t, s, "add_files", map[string]any{"paths": []string{writeFile(t, dir, "a.pdf", testutil.PDFPages(t, 1))}})

	res := callTool(t, s, "merge_files", map[string]any{})
	if !res.IsError {
		t.Fatal("expected error with a single file")
	}
	if !strings.Contains(res.Content[0].Text, "at least two files") {
		t.Errorf("unexpected error text: %s", res.Content[0].Text)
	}
}

func TestExtractPagesTool(t *testing.T) {
	s, _ := newTestServer(t)
	dir := t.TempDir()
	src := writeFile(t, dir, "src.pdf", testutil.PDF(t, testutil.DistinctSizes(300, 4)...))
	out := filepath.Join(dir, "out.pdf")

	res := callTool(t, s, "extract_pages", map[string]any{"path": src, "pages": []int{4, 2}, "outputPath": out})
	if res.IsError {
		t.Fatalf("extract_pages failed: %v", res.Content)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if n := testutil.PageCount(t, data); n != 2 {
		t.Errorf("expected 2 pages, got %d", n)
	}

	res = callTool(t, s, "extract_pages", map[string]any{"path": src, "pages": []int{}})
	if !res.IsError {
		t.Error("expected error for empty page list")
	}
}

func TestServerMultipleRequests(t *testing.T) {
	requests := []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":4,"method":"resources/read","params":{"uri":"merge://files"}}`,
		`{"jsonrpc":"2.0","id":5,"method":"ping"}`,
	}

	input := strings.Join(requests, "\n") + "\n"
	var output bytes.Buffer

	s, _ := newTestServer(t)
	s.input = strings.NewReader(input)
	s.output = &output

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 responses, got %d: %s", len(lines), output.String())
	}

	for i, line := range lines {
		var resp jsonrpcResponse
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("response %d: unmarshal error: %v\nline: %s", i, err, line)
		}
		if resp.Error != nil {
			t.Errorf("response %d: unexpected error: %s", i, resp.Error.Message)
		}
	}
}

func TestToolAddTool(t *testing.T) {
	s := NewServerWithIO(nil, nil, nil)

	s.AddTool(Tool{
		Name:        "custom_tool",
		Description: "A custom test tool",
		InputSchema: schema(nil, map[string]any{}),
		Handler: func(context.Context, map[string]any) (ToolResult, error) {
			return textResult("custom result"), nil
		},
	})

	resp := sendRequest(t, s, "tools/call", 1, map[string]any{
		"name":      "custom_tool",
		"arguments": map[string]any{},
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	resultBytes, _ := json.Marshal(resp.Result)
	if !strings.Contains(string(resultBytes), "custom result") {
		t.Fatalf("unexpected result: %s", string(resultBytes))
	}
}
