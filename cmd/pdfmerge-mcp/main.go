// Command pdfmerge-mcp is an MCP (Model Context Protocol) server that lets
// AI assistants combine PDFs and images into one PDF.
//
// # Installation
//
//	go install github.com/lvillar/pdfmerge/cmd/pdfmerge-mcp@latest
//
// # Configuration for Claude Desktop
//
// Add to ~/.config/claude/claude_desktop_config.json:
//
//	{
//	  "mcpServers": {
//	    "pdfmerge": {
//	      "command": "pdfmerge-mcp"
//	    }
//	  }
//	}
//
// # Available Tools
//
//   - add_files: Add PDFs and images to the merge
//   - list_files: List files and page selections
//   - remove_file: Remove a file
//   - reorder_files: Move a file to another position
//   - set_selected_pages: Choose the pages taken from a file
//   - toggle_page: Select or deselect one page
//   - preview_files: Render first-page thumbnails
//   - merge_files: Build the merged PDF
//   - pdf_info: Page count and sizes of a PDF
//   - extract_pages: Copy pages of a PDF into a new one
//
// # Available Resources
//
//   - merge://files : Files in merge order with selections
//   - merge://progress : State of the latest merge run
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lvillar/pdfmerge/config"
	"github.com/lvillar/pdfmerge/mcp"
	"github.com/lvillar/pdfmerge/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfmerge-mcp: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws := session.NewWorkspace(cfg.Merge(), session.WithLogger(log))
	defer ws.Close()

	server := mcp.NewServer(log)
	mcp.RegisterTools(server, ws)
	mcp.RegisterResources(server, ws)

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "pdfmerge-mcp: %v\n", err)
		os.Exit(1)
	}
}
