// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/reddot/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the RedDot MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"RedDot Counting Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: count_red_dots ---
	s.AddTool(mcp.NewTool("count_red_dots",
		mcp.WithDescription("Count red pixels in every multi-frame TIFF under a directory and return the per-directory summaries."),
		mcp.WithString("path", mcp.Description("Root directory to scan (defaults to the configured root).")),
		mcp.WithString("name_fallback", mcp.Description("How to handle file names without a timestamp (file, batch)."), mcp.Enum("file", "batch")),
		mcp.WithBoolean("write_csv", mcp.Description("Also write the summary CSV files. Defaults to false.")),
	), h.handleCountRedDots)

	// --- 2. Tool: classify_pixel ---
	s.AddTool(mcp.NewTool("classify_pixel",
		mcp.WithDescription("Convert an 8-bit RGB color to HSV and report whether it counts as red."),
		mcp.WithNumber("r", mcp.Description("Red channel (0-255)."), mcp.Required()),
		mcp.WithNumber("g", mcp.Description("Green channel (0-255)."), mcp.Required()),
		mcp.WithNumber("b", mcp.Description("Blue channel (0-255)."), mcp.Required()),
	), h.handleClassifyPixel)

	// --- 3. Tool: parse_file_name ---
	s.AddTool(mcp.NewTool("parse_file_name",
		mcp.WithDescription("Parse the sequence number, date and time out of an image file name."),
		mcp.WithString("name", mcp.Description("File name such as 001_20240101_083000.tif."), mcp.Required()),
	), h.handleParseFileName)

	return s
}

// StartMCPServer starts the RedDot MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
