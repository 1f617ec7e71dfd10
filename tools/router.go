// Package tools defines the tool catalog and routes tool calls to
// their handlers.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/avandyck/glidewire/client"
	"github.com/avandyck/glidewire/output"
	"github.com/avandyck/glidewire/resource"
)

// API is the slice of the record transport the tool handlers use.
type API interface {
	GetRecord(ctx context.Context, table, sysID string, fields []string) (client.Record, error)
	QueryTable(ctx context.Context, table string, q client.Query) ([]client.Record, error)
	CreateRecord(ctx context.Context, table string, data map[string]any) (client.Record, error)
	UpdateRecord(ctx context.Context, table, sysID string, data map[string]any) (client.Record, error)
	DeleteRecord(ctx context.Context, table, sysID string) error
	ListAttachments(ctx context.Context, tableName, tableSysID string, limit int) ([]client.Record, error)
	GetAttachment(ctx context.Context, sysID string) (client.Record, error)
	DownloadAttachment(ctx context.Context, sysID string) ([]byte, error)
	UploadAttachment(ctx context.Context, tableName, tableSysID, fileName, contentType string, data []byte) (client.Record, error)
	DeleteAttachment(ctx context.Context, sysID string) error
}

// Core carries the shared dependencies every handler receives.
type Core struct {
	API            API
	Resolver       *resource.Resolver
	Logger         *slog.Logger
	MaxOutputBytes int
}

// NewCore builds a handler core. A nil logger discards.
func NewCore(api API, resolver *resource.Resolver, logger *slog.Logger, maxOutputBytes int) *Core {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if maxOutputBytes <= 0 {
		maxOutputBytes = output.DefaultMaxBytes
	}
	return &Core{API: api, Resolver: resolver, Logger: logger, MaxOutputBytes: maxOutputBytes}
}

// ValidationError rejects malformed tool arguments before the handler
// runs.
type ValidationError struct {
	Tool    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Message)
}

// MethodNotFoundError rejects an unknown tool name.
type MethodNotFoundError struct {
	Name string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// InternalError wraps a handler failure with the tool that raised it.
type InternalError struct {
	Tool string
	Err  error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// validatable inputs are checked at the dispatch boundary, before the
// handler ever touches the transport.
type validatable interface {
	validate() error
}

// Tool is one catalog entry: a name bound to exactly one handler with
// a typed input.
type Tool struct {
	Name        string
	Description string
	ReadOnly    bool

	invoke   func(ctx context.Context, core *Core, rawArgs map[string]any) (any, error)
	register func(s *mcp.Server, core *Core)
}

// entry builds a Tool from a typed handler. The same decode/validate/
// normalize path backs both direct dispatch and SDK registration.
func entry[In any](name, description string, readOnly bool, h func(ctx context.Context, core *Core, in In) (any, error)) Tool {
	run := func(ctx context.Context, core *Core, in In) (any, error) {
		if v, ok := any(in).(validatable); ok {
			if err := v.validate(); err != nil {
				return nil, &ValidationError{Tool: name, Message: err.Error()}
			}
		}
		out, err := h(ctx, core, in)
		if err != nil {
			var vErr *ValidationError
			if errors.As(err, &vErr) {
				return nil, err
			}
			return nil, &InternalError{Tool: name, Err: err}
		}
		return out, nil
	}

	return Tool{
		Name:        name,
		Description: description,
		ReadOnly:    readOnly,
		invoke: func(ctx context.Context, core *Core, rawArgs map[string]any) (any, error) {
			var in In
			if rawArgs != nil {
				encoded, err := json.Marshal(rawArgs)
				if err != nil {
					return nil, &ValidationError{Tool: name, Message: err.Error()}
				}
				if err := json.Unmarshal(encoded, &in); err != nil {
					return nil, &ValidationError{Tool: name, Message: err.Error()}
				}
			}
			return run(ctx, core, in)
		},
		register: func(s *mcp.Server, core *Core) {
			mcp.AddTool(s, &mcp.Tool{
				Name:        name,
				Description: description,
				Annotations: &mcp.ToolAnnotations{ReadOnlyHint: readOnly},
			}, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
				out, err := run(ctx, core, in)
				if err != nil {
					return nil, nil, err
				}
				text, err := Render(out, core.MaxOutputBytes)
				if err != nil {
					return nil, nil, &InternalError{Tool: name, Err: err}
				}
				return &mcp.CallToolResult{
					Content: []mcp.Content{&mcp.TextContent{Text: text}},
				}, nil, nil
			})
		},
	}
}

var tableOnce = sync.OnceValue(buildTable)

// Table returns the complete tool catalog keyed by name. Duplicate
// names panic at first use.
func Table() map[string]Tool {
	return tableOnce()
}

func buildTable() map[string]Tool {
	var all []Tool
	all = append(all, incidentTools()...)
	all = append(all, scriptIncludeTools()...)
	all = append(all, tableTools()...)
	all = append(all, processTools()...)
	all = append(all, attachmentTools()...)

	m := make(map[string]Tool, len(all))
	for _, t := range all {
		if _, dup := m[t.Name]; dup {
			panic("duplicate tool name: " + t.Name)
		}
		m[t.Name] = t
	}
	return m
}

// Names returns every tool name in sorted order.
func Names() []string {
	table := Table()
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds every catalog tool to the MCP server.
func Register(s *mcp.Server, core *Core) {
	table := Table()
	for _, name := range Names() {
		table[name].register(s, core)
	}
}

// Dispatch routes one tool call by name, decodes and validates its
// arguments, runs the handler, and renders the result as text. Unknown
// names fail without touching the session or transport.
func Dispatch(ctx context.Context, core *Core, name string, args map[string]any) (string, error) {
	tool, ok := Table()[name]
	if !ok {
		return "", &MethodNotFoundError{Name: name}
	}
	out, err := tool.invoke(ctx, core, args)
	if err != nil {
		return "", err
	}
	return Render(out, core.MaxOutputBytes)
}

// Render turns a handler result into one text block: strings pass
// through, everything else is pretty-printed JSON, bounded by
// maxBytes.
func Render(result any, maxBytes int) (string, error) {
	text, ok := result.(string)
	if !ok {
		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode result: %w", err)
		}
		text = string(encoded)
	}
	bounded, _ := output.Truncate(text, maxBytes)
	return bounded, nil
}
