// Package prompts defines the parameterized prompt templates served
// over MCP.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Prompt is one template: declared arguments plus a body builder.
type Prompt struct {
	Name        string
	Description string
	Arguments   []*mcp.PromptArgument
	Build       func(args map[string]string) string
}

// All returns every prompt template in registration order.
func All() []Prompt {
	return []Prompt{
		{
			Name:        "incident_analysis",
			Description: "Analyze an incident: history, related records, and suggested next steps.",
			Arguments: []*mcp.PromptArgument{
				{Name: "incident_number", Description: "Incident number, e.g. INC0010001", Required: true},
			},
			Build: func(args map[string]string) string {
				return fmt.Sprintf(`Analyze ServiceNow incident %s.

1. Fetch the incident with the get_incident tool.
2. Review its state, priority, assignment, and work notes.
3. Look for related incidents with list_incidents filtered by the same
   category or caller.
4. Summarize the likely root cause and recommend concrete next steps.
5. If the incident can be resolved, propose close notes for the
   resolve_incident tool, but do not resolve without being asked.`, args["incident_number"])
			},
		},
		{
			Name:        "bulk_update_records",
			Description: "Query records and apply the same update to each match, reporting per-record results.",
			Arguments: []*mcp.PromptArgument{
				{Name: "table", Description: "Table to update", Required: true},
				{Name: "query", Description: "Encoded query selecting the records", Required: true},
				{Name: "update_description", Description: "What to change on each record", Required: true},
			},
			Build: func(args map[string]string) string {
				return fmt.Sprintf(`Apply a bulk update on the %s table.

1. Run query_table with query %q to collect the matching records.
2. For each match, call update_record with the change: %s.
3. Each update stands alone: the instance offers no transaction or
   rollback, so a failure on one record must not stop the rest.
4. Report success or failure per record, and finish with a count of
   updated vs failed records. Never report partial completion as
   all-or-nothing.`, args["table"], args["query"], args["update_description"])
			},
		},
		{
			Name:        "process_definition_workflow",
			Description: "Walk a process definition's lanes and activities and explain the workflow.",
			Arguments: []*mcp.PromptArgument{
				{Name: "process_name", Description: "Name of the process definition", Required: true},
			},
			Build: func(args map[string]string) string {
				return fmt.Sprintf(`Explain the workflow of the process definition named %q.

1. Find the definition with list_process_definitions (query name=%s).
2. Fetch it with get_process_definition to get lanes and activities.
3. Describe the flow lane by lane: what each lane is responsible for
   and which activities run in it, in order.
4. Point out lanes with no activities or inactive definitions.
5. Treat each follow-up change as independently failable; never assume
   a multi-step edit is atomic.`, args["process_name"], args["process_name"])
			},
		},
		{
			Name:        "table_exploration",
			Description: "Explore an unfamiliar table: schema, sample data, and useful queries.",
			Arguments: []*mcp.PromptArgument{
				{Name: "table", Description: "Table name to explore", Required: true},
			},
			Build: func(args map[string]string) string {
				return fmt.Sprintf(`Explore the %s table.

1. Read servicenow://table-schema/%s for the field definitions.
2. Read servicenow://table-data/%s for sample records.
3. Summarize what the table stores, its key fields, and its reference
   fields.
4. Suggest three useful query_table encoded queries for this table.`, args["table"], args["table"], args["table"])
			},
		},
	}
}

// Register adds every prompt to the MCP server.
func Register(s *mcp.Server) {
	for _, p := range All() {
		s.AddPrompt(&mcp.Prompt{
			Name:        p.Name,
			Description: p.Description,
			Arguments:   p.Arguments,
		}, handler(p))
	}
}

func handler(p Prompt) mcp.PromptHandler {
	return func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		args := map[string]string{}
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		var missing []string
		for _, decl := range p.Arguments {
			if decl.Required && strings.TrimSpace(args[decl.Name]) == "" {
				missing = append(missing, decl.Name)
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("prompt %s: missing required arguments: %s", p.Name, strings.Join(missing, ", "))
		}
		return &mcp.GetPromptResult{
			Description: p.Description,
			Messages: []*mcp.PromptMessage{
				{Role: "user", Content: &mcp.TextContent{Text: p.Build(args)}},
			},
		}, nil
	}
}
