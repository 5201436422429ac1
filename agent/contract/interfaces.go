package contract

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ToolInvoker is the boundary the conversation loop uses to reach the domain tools.
type ToolInvoker interface {
	Invoke(ctx context.Context, name string, args map[string]any) ToolResult
	ToolInfos() []*schema.ToolInfo
}
