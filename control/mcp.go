package control

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/cadkeys/kit"
)

// RegisterMCP registers the cadkeys tools on an MCP server.
func RegisterMCP(srv *mcp.Server, b Backend) {
	registerStatusTool(srv, b)
	registerSetUnitTool(srv, b)
	registerSetPrecisionTool(srv, b)
	registerToggleFeetTool(srv, b)
	registerPressTool(srv, b)
	registerYankTool(srv, b)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func registerStatusTool(srv *mcp.Server, b Backend) {
	tool := &mcp.Tool{
		Name:        "cadkeys_status",
		Description: "Report the current unit, fraction precision, feet display and yank state.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return b.Status(ctx)
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

type setUnitReq struct {
	Unit string `json:"unit"`
}

func registerSetUnitTool(srv *mcp.Server, b Backend) {
	tool := &mcp.Tool{
		Name:        "cadkeys_set_unit",
		Description: "Switch the display unit of the measurement panels: mm or inch.",
		InputSchema: inputSchema(map[string]any{
			"unit": map[string]any{"type": "string", "enum": []string{"mm", "inch"}},
		}, []string{"unit"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*setUnitReq)
		if err := b.SetUnit(ctx, r.Unit); err != nil {
			return nil, err
		}
		return map[string]string{"unit": r.Unit}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r setUnitReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

type setPrecisionReq struct {
	Denominator int `json:"denominator"`
}

func registerSetPrecisionTool(srv *mcp.Server, b Backend) {
	tool := &mcp.Tool{
		Name:        "cadkeys_set_precision",
		Description: "Set the fractional-inch denominator: 8, 16 or 32.",
		InputSchema: inputSchema(map[string]any{
			"denominator": map[string]any{"type": "integer", "enum": []int{8, 16, 32}},
		}, []string{"denominator"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*setPrecisionReq)
		if err := b.SetPrecision(ctx, r.Denominator); err != nil {
			return nil, err
		}
		return map[string]int{"denominator": r.Denominator}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r setPrecisionReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func registerToggleFeetTool(srv *mcp.Server, b Backend) {
	tool := &mcp.Tool{
		Name:        "cadkeys_toggle_feet",
		Description: "Toggle the feet component in fractional-inch display.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		on, err := b.ToggleFeet(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]bool{"show_feet": on}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

type pressReq struct {
	Key string `json:"key"`
}

func registerPressTool(srv *mcp.Server, b Backend) {
	tool := &mcp.Tool{
		Name:        "cadkeys_press",
		Description: "Perform a bound key as if pressed in the viewer, e.g. \"f\" or \"shift+t\".",
		InputSchema: inputSchema(map[string]any{
			"key": map[string]any{"type": "string", "description": "Key combination"},
		}, []string{"key"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*pressReq)
		if err := b.Press(ctx, r.Key); err != nil {
			return nil, err
		}
		return map[string]string{"pressed": r.Key}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r pressReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

type yankReq struct {
	Sequence string `json:"sequence"`
}

func registerYankTool(srv *mcp.Server, b Backend) {
	tool := &mcp.Tool{
		Name:        "cadkeys_yank",
		Description: "Run a complete yank copy sequence, e.g. \"yy\", \"yx\" or \"ybc\".",
		InputSchema: inputSchema(map[string]any{
			"sequence": map[string]any{"type": "string", "description": "Key sequence starting with y"},
		}, []string{"sequence"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*yankReq)
		if err := b.Yank(ctx, r.Sequence); err != nil {
			return nil, err
		}
		return map[string]string{"sequence": r.Sequence}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r yankReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
