package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/reddot/core"
	"github.com/huangsam/reddot/core/agg"
	"github.com/huangsam/reddot/core/algo"
	"github.com/huangsam/reddot/internal/contract"
	"github.com/huangsam/reddot/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// pixelVerdict is the classify_pixel response.
type pixelVerdict struct {
	R   uint8 `json:"r"`
	G   uint8 `json:"g"`
	B   uint8 `json:"b"`
	H   uint8 `json:"h"`
	S   uint8 `json:"s"`
	V   uint8 `json:"v"`
	Red bool  `json:"red"`
}

// nameInfo is the parse_file_name response.
type nameInfo struct {
	FileName  string            `json:"file_name"`
	Stem      string            `json:"stem"`
	Matched   bool              `json:"matched"`
	Parsed    schema.ParsedName `json:"parsed"`
	Timestamp *time.Time        `json:"timestamp"`
}

func (h *toolHandler) handleCountRedDots(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("path", ""); p != "" {
		root, err := resolveRoot(p)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid path: %v", err)), nil
		}
		cfg.InputPath = root
	}
	if f := request.GetString("name_fallback", ""); f != "" {
		fallback := schema.NameFallback(strings.ToLower(f))
		if _, ok := schema.ValidNameFallbacks[fallback]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid name_fallback '%s'. must be file, batch", f)), nil
		}
		cfg.NameFallback = fallback
	}
	cfg.SkipCSV = !request.GetBool("write_csv", false)

	result, _, err := core.GetCountResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("count failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleClassifyPixel(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var channels [3]uint8
	for i, name := range []string{"r", "g", "b"} {
		v := request.GetInt(name, -1)
		if v < 0 || v > 255 {
			return mcp.NewToolResultError(fmt.Sprintf("%s must be between 0 and 255", name)), nil
		}
		channels[i] = uint8(v)
	}

	rule := h.baseCfg.RedRule
	if len(rule.HueRanges) == 0 {
		rule = schema.DefaultRedRule()
	}

	c := algo.FromRGB(channels[0], channels[1], channels[2])
	verdict := pixelVerdict{
		R: channels[0], G: channels[1], B: channels[2],
		H: c.H, S: c.S, V: c.V,
		Red: algo.Matches(rule, c),
	}

	jsonData, _ := json.MarshalIndent(verdict, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleParseFileName(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(request.GetString("name", ""))
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	name = filepath.Base(name)

	parsed, ok := agg.ParseName(name)
	info := nameInfo{
		FileName:  name,
		Stem:      agg.Stem(name),
		Matched:   ok,
		Parsed:    parsed,
		Timestamp: agg.CombineTimestamp(parsed.Date, parsed.Time),
	}

	jsonData, _ := json.MarshalIndent(info, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

// resolveRoot makes p absolute and checks that it is a directory.
func resolveRoot(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", p)
	}
	return filepath.Clean(abs), nil
}
