package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/pageops"
	"github.com/lvillar/pdfmerge/session"
	"github.com/lvillar/pdfmerge/source"
)

// toolset binds the tool handlers to a workspace.
type toolset struct {
	ws *session.Workspace
}

// RegisterTools adds the workspace tools to the server.
func RegisterTools(s *Server, ws *session.Workspace) {
	t := &toolset{ws: ws}
	s.AddTool(t.addFilesTool())
	s.AddTool(t.listFilesTool())
	s.AddTool(t.removeFileTool())
	s.AddTool(t.reorderFilesTool())
	s.AddTool(t.setSelectedPagesTool())
	s.AddTool(t.togglePageTool())
	s.AddTool(t.previewFilesTool())
	s.AddTool(t.mergeFilesTool())
	s.AddTool(pdfInfoTool())
	s.AddTool(extractPagesTool())
}

func schema(required []string, props map[string]any) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func arrayProp(itemType, description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": itemType},
		"description": description,
	}
}

func jsonResult(v any) (ToolResult, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ToolResult{}, fmt.Errorf("encoding result: %w", err)
	}
	return ToolResult{Content: []ContentBlock{{Type: "text", Text: string(jsonBytes)}}}, nil
}

func (t *toolset) addFilesTool() Tool {
	return Tool{
		Name:        "add_files",
		Description: "Add PDF, PNG, JPEG or HEIC files to the merge, in the order given. HEIC photos are converted to JPEG. Files that cannot be used are reported and skipped.",
		InputSchema: schema([]string{"paths"}, map[string]any{
			"paths": arrayProp("string", "Paths to the files to add"),
		}),
		Handler: t.handleAddFiles,
	}
}

type addedFile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PageCount int    `json:"pageCount"`
}

func (t *toolset) handleAddFiles(ctx context.Context, args map[string]any) (ToolResult, error) {
	paths, err := stringSliceArg(args, "paths")
	if err != nil {
		return ToolResult{}, err
	}

	var (
		uploads  []source.Upload
		problems []string
	)
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s could not be read: %v", filepath.Base(p), err))
			continue
		}
		uploads = append(uploads, source.Upload{Name: filepath.Base(p), Data: data})
	}

	files, rejected := t.ws.AddFiles(ctx, uploads)
	for _, r := range rejected {
		problems = append(problems, r.Message())
	}

	added := make([]addedFile, len(files))
	for i, f := range files {
		added[i] = addedFile{ID: f.ID, Name: f.Name, PageCount: f.PageCount}
	}
	return jsonResult(map[string]any{"added": added, "rejected": problems})
}

func (t *toolset) listFilesTool() Tool {
	return Tool{
		Name:        "list_files",
		Description: "List the files of the merge in order, with sizes, page counts and the zero-based indexes of the selected pages.",
		InputSchema: schema(nil, map[string]any{}),
		Handler: func(context.Context, map[string]any) (ToolResult, error) {
			return jsonResult(t.ws.Files())
		},
	}
}

func (t *toolset) removeFileTool() Tool {
	return Tool{
		Name:        "remove_file",
		Description: "Remove the file at the given zero-based position.",
		InputSchema: schema([]string{"index"}, map[string]any{
			"index": prop("integer", "Zero-based position of the file"),
		}),
		Handler: func(_ context.Context, args map[string]any) (ToolResult, error) {
			index, err := intArg(args, "index")
			if err != nil {
				return ToolResult{}, err
			}
			f, err := t.ws.RemoveFile(index)
			if err != nil {
				return ToolResult{}, err
			}
			return textResult("Removed %s", f.Name), nil
		},
	}
}

func (t *toolset) reorderFilesTool() Tool {
	return Tool{
		Name:        "reorder_files",
		Description: "Move the file at position 'from' to position 'to' (both zero-based).",
		InputSchema: schema([]string{"from", "to"}, map[string]any{
			"from": prop("integer", "Current position"),
			"to":   prop("integer", "New position"),
		}),
		Handler: func(_ context.Context, args map[string]any) (ToolResult, error) {
			from, err := intArg(args, "from")
			if err != nil {
				return ToolResult{}, err
			}
			to, err := intArg(args, "to")
			if err != nil {
				return ToolResult{}, err
			}
			if err := t.ws.Reorder(from, to); err != nil {
				return ToolResult{}, err
			}
			return jsonResult(t.ws.Files())
		},
	}
}

func (t *toolset) setSelectedPagesTool() Tool {
	return Tool{
		Name:        "set_selected_pages",
		Description: "Replace the pages taken from a file. Pages are zero-based indexes and are emitted in the order given. An empty list excludes the file's pages.",
		InputSchema: schema([]string{"file", "pages"}, map[string]any{
			"file":  prop("string", "File id, or file name if the name is unique"),
			"pages": arrayProp("integer", "Zero-based page indexes"),
		}),
		Handler: func(_ context.Context, args map[string]any) (ToolResult, error) {
			id, err := t.resolveFile(args)
			if err != nil {
				return ToolResult{}, err
			}
			pages, err := intSliceArg(args, "pages")
			if err != nil {
				return ToolResult{}, err
			}
			if err := t.ws.SetSelectedPages(id, pages); err != nil {
				return ToolResult{}, err
			}
			return jsonResult(map[string]any{"id": id, "selected": pages})
		},
	}
}

func (t *toolset) togglePageTool() Tool {
	return Tool{
		Name:        "toggle_page",
		Description: "Select or deselect one page of a file. The resulting selection is sorted ascending.",
		InputSchema: schema([]string{"file", "page", "selected"}, map[string]any{
			"file":     prop("string", "File id, or file name if the name is unique"),
			"page":     prop("integer", "Zero-based page index"),
			"selected": prop("boolean", "Whether the page is included"),
		}),
		Handler: func(_ context.Context, args map[string]any) (ToolResult, error) {
			id, err := t.resolveFile(args)
			if err != nil {
				return ToolResult{}, err
			}
			page, err := intArg(args, "page")
			if err != nil {
				return ToolResult{}, err
			}
			selected, ok := args["selected"].(bool)
			if !ok {
				return ToolResult{}, fmt.Errorf("missing 'selected' argument")
			}
			pages, err := t.ws.TogglePage(id, page, selected)
			if err != nil {
				return ToolResult{}, err
			}
			return jsonResult(map[string]any{"id": id, "selected": pages})
		},
	}
}

func (t *toolset) previewFilesTool() Tool {
	return Tool{
		Name:        "preview_files",
		Description: "Render a thumbnail of the first page of every file, in merge order.",
		InputSchema: schema(nil, map[string]any{}),
		Handler: func(ctx context.Context, _ map[string]any) (ToolResult, error) {
			previews, err := t.ws.Previews(ctx)
			if err != nil {
				return ToolResult{}, err
			}
			var res ToolResult
			for i, p := range previews {
				res.Content = append(res.Content,
					ContentBlock{Type: "text", Text: fmt.Sprintf("%d. %s (%d pages)", i+1, p.Name, p.PageCount)},
					ContentBlock{Type: "image", MIMEType: "image/png", Data: base64.StdEncoding.EncodeToString(p.Thumbnail)},
				)
			}
			if len(res.Content) == 0 {
				return textResult("No files added"), nil
			}
			return res, nil
		},
	}
}

func (t *toolset) mergeFilesTool() Tool {
	return Tool{
		Name:        "merge_files",
		Description: "Merge the selected pages of all files into one PDF. Requires at least two files. Returns the PDF as base64 unless outputPath is given.",
		InputSchema: schema(nil, map[string]any{
			"compression": map[string]any{
				"type":        "string",
				"enum":        []string{"low", "medium", "high"},
				"description": "Image compression preset (defaults to the configured preset)",
			},
			"outputPath": prop("string", "Optional file path to save the PDF. If omitted, returns base64."),
		}),
		Handler: t.handleMergeFiles,
	}
}

func (t *toolset) handleMergeFiles(ctx context.Context, args map[string]any) (ToolResult, error) {
	name, _ := args["compression"].(string)
	level, err := t.ws.Compression(name)
	if err != nil {
		return ToolResult{}, err
	}

	a, err := t.ws.Merge(ctx, level)
	if err != nil {
		return ToolResult{}, fmt.Errorf("merging: %w", err)
	}

	if outputPath, ok := args["outputPath"].(string); ok && outputPath != "" {
		if err := os.WriteFile(outputPath, a.Data, 0644); err != nil {
			return ToolResult{}, fmt.Errorf("writing file: %w", err)
		}
		return textResult("%s: %s (%s)", pageops.StatusSucceeded, outputPath, source.FormatSize(int64(len(a.Data)))), nil
	}

	encoded := base64.StdEncoding.EncodeToString(a.Data)
	return textResult("%s %s (%d bytes). Base64 data:\n%s", pageops.StatusSucceeded, a.Name, len(a.Data), encoded), nil
}

func pdfInfoTool() Tool {
	return Tool{
		Name:        "pdf_info",
		Description: "Get the page count and page sizes (in points) of a PDF file.",
		InputSchema: schema([]string{"path"}, map[string]any{
			"path": prop("string", "Path to the PDF file"),
		}),
		Handler: handlePDFInfo,
	}
}

func handlePDFInfo(_ context.Context, args map[string]any) (ToolResult, error) {
	path, ok := args["path"].(string)
	if !ok {
		return ToolResult{}, fmt.Errorf("missing 'path' argument")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ToolResult{}, fmt.Errorf("reading PDF: %w", err)
	}
	info, err := pageops.Info(data)
	if err != nil {
		return ToolResult{}, fmt.Errorf("opening PDF: %w", err)
	}
	return jsonResult(info)
}

func extractPagesTool() Tool {
	return Tool{
		Name:        "extract_pages",
		Description: "Copy specific pages of a PDF file into a new PDF. Page numbers are 1-based.",
		InputSchema: schema([]string{"path", "pages"}, map[string]any{
			"path":       prop("string", "Path to the source PDF"),
			"pages":      arrayProp("integer", "1-based page numbers, in output order"),
			"outputPath": prop("string", "Optional file path to save the PDF. If omitted, returns base64."),
		}),
		Handler: handleExtractPages,
	}
}

func handleExtractPages(_ context.Context, args map[string]any) (ToolResult, error) {
	path, ok := args["path"].(string)
	if !ok {
		return ToolResult{}, fmt.Errorf("missing 'path' argument")
	}
	pages, err := intSliceArg(args, "pages")
	if err != nil {
		return ToolResult{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ToolResult{}, fmt.Errorf("reading PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pageops.ExtractPages(&buf, data, pages...); err != nil {
		return ToolResult{}, fmt.Errorf("extracting pages: %w", err)
	}

	if outputPath, ok := args["outputPath"].(string); ok && outputPath != "" {
		if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
			return ToolResult{}, fmt.Errorf("writing file: %w", err)
		}
		return textResult("Extracted %d pages to %s", len(pages), outputPath), nil
	}
	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	return textResult("Extracted %d pages (%d bytes). Base64 data:\n%s", len(pages), buf.Len(), encoded), nil
}

// resolveFile maps the 'file' argument to a file id. Ids take precedence;
// otherwise the argument must name exactly one file.
func (t *toolset) resolveFile(args map[string]any) (string, error) {
	ref, ok := args["file"].(string)
	if !ok || ref == "" {
		return "", fmt.Errorf("missing 'file' argument")
	}
	var matches []string
	for _, f := range t.ws.Files() {
		if f.ID == ref {
			return f.ID, nil
		}
		if f.Name == ref {
			matches = append(matches, f.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", pdfmerge.ErrUnknownFile, ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s (%d files, use the id)", pdfmerge.ErrAmbiguousName, ref, len(matches))
	}
}

func intArg(args map[string]any, key string) (int, error) {
	v, ok := args[key].(float64)
	if !ok {
		return 0, fmt.Errorf("missing '%s' argument", key)
	}
	if v != float64(int(v)) {
		return 0, fmt.Errorf("'%s' must be an integer", key)
	}
	return int(v), nil
}

func intSliceArg(args map[string]any, key string) ([]int, error) {
	raw, ok := args[key].([]any)
	if !ok {
		return nil, fmt.Errorf("missing '%s' argument", key)
	}
	out := make([]int, len(raw))
	for i, r := range raw {
		v, ok := r.(float64)
		if !ok || v != float64(int(v)) {
			return nil, fmt.Errorf("'%s' must contain integers", key)
		}
		out[i] = int(v)
	}
	return out, nil
}

func stringSliceArg(args map[string]any, key string) ([]string, error) {
	raw, ok := args[key].([]any)
	if !ok {
		return nil, fmt.Errorf("missing '%s' argument", key)
	}
	out := make([]string, len(raw))
	for i, r := range raw {
		s, ok := r.(string)
		if !ok {
			return nil, fmt.Errorf("'%s' must contain strings", key)
		}
		out[i] = s
	}
	return out, nil
}
