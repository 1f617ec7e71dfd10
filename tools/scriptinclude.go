package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/avandyck/glidewire/client"
	"github.com/avandyck/glidewire/resource"
)

const scriptIncludeTable = "sys_script_include"

type ListScriptIncludesInput struct {
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum script includes to return (default 10, max 200)"`
	Offset int    `json:"offset,omitempty" jsonschema:"Number of records to skip"`
	Active *bool  `json:"active,omitempty" jsonschema:"Filter by active flag"`
	Query  string `json:"query,omitempty" jsonschema:"Additional encoded query appended verbatim"`
}

func (in ListScriptIncludesInput) validate() error {
	if in.Offset < 0 {
		return fmt.Errorf("offset must be non-negative, got %d", in.Offset)
	}
	_, err := normalizeLimit(in.Limit, listDefaultLimit, listMaxLimit)
	return err
}

type GetScriptIncludeInput struct {
	ScriptIncludeID string `json:"script_include_id" jsonschema:"Script include sys_id or API name"`
}

func (in GetScriptIncludeInput) validate() error {
	return requireField(in.ScriptIncludeID, "script_include_id")
}

type CreateScriptIncludeInput struct {
	Name           string `json:"name" jsonschema:"Script include name"`
	Script         string `json:"script" jsonschema:"JavaScript source"`
	Description    string `json:"description,omitempty" jsonschema:"What the script include does"`
	APIName        string `json:"api_name,omitempty" jsonschema:"Fully qualified API name"`
	ClientCallable bool   `json:"client_callable,omitempty" jsonschema:"Allow calls from client scripts"`
	Active         *bool  `json:"active,omitempty" jsonschema:"Active flag (default true)"`
}

func (in CreateScriptIncludeInput) validate() error {
	if err := requireField(in.Name, "name"); err != nil {
		return err
	}
	return requireField(in.Script, "script")
}

type UpdateScriptIncludeInput struct {
	ScriptIncludeID string `json:"script_include_id" jsonschema:"Script include sys_id or API name"`
	Script          string `json:"script,omitempty" jsonschema:"New JavaScript source"`
	Description     string `json:"description,omitempty" jsonschema:"New description"`
	ClientCallable  *bool  `json:"client_callable,omitempty" jsonschema:"Allow calls from client scripts"`
	Active          *bool  `json:"active,omitempty" jsonschema:"Active flag"`
}

func (in UpdateScriptIncludeInput) validate() error {
	if err := requireField(in.ScriptIncludeID, "script_include_id"); err != nil {
		return err
	}
	if in.Script == "" && in.Description == "" && in.ClientCallable == nil && in.Active == nil {
		return errors.New("no fields to update")
	}
	return nil
}

type DeleteScriptIncludeInput struct {
	ScriptIncludeID string `json:"script_include_id" jsonschema:"Script include sys_id or API name"`
}

func (in DeleteScriptIncludeInput) validate() error {
	return requireField(in.ScriptIncludeID, "script_include_id")
}

type scriptIncludeResult struct {
	Summary       string        `json:"summary"`
	ScriptInclude client.Record `json:"script_include,omitempty"`
}

type scriptIncludeListResult struct {
	Summary        string          `json:"summary"`
	Count          int             `json:"count"`
	ScriptIncludes []client.Record `json:"script_includes"`
}

func scriptIncludeTools() []Tool {
	return []Tool{
		entry("list_script_includes", "List script includes with optional filters.", true,
			func(ctx context.Context, core *Core, in ListScriptIncludesInput) (any, error) {
				limit, err := normalizeLimit(in.Limit, listDefaultLimit, listMaxLimit)
				if err != nil {
					return nil, err
				}
				var activeFilter string
				if in.Active != nil {
					activeFilter = fmt.Sprintf("active=%t", *in.Active)
				}
				records, err := core.API.QueryTable(ctx, scriptIncludeTable, client.Query{
					Filter:  joinFilter(activeFilter, in.Query),
					Limit:   limit,
					Offset:  in.Offset,
					OrderBy: "name",
				})
				if err != nil {
					return nil, err
				}
				return scriptIncludeListResult{
					Summary:        fmt.Sprintf("Found %d script includes", len(records)),
					Count:          len(records),
					ScriptIncludes: records,
				}, nil
			}),

		entry("get_script_include", "Fetch one script include by sys_id or API name.", true,
			func(ctx context.Context, core *Core, in GetScriptIncludeInput) (any, error) {
				record, err := findScriptInclude(ctx, core, in.ScriptIncludeID)
				if err != nil {
					return nil, err
				}
				return scriptIncludeResult{
					Summary:       fmt.Sprintf("Script include %s", client.FieldString(record, "name")),
					ScriptInclude: record,
				}, nil
			}),

		entry("create_script_include", "Create a new script include.", false,
			func(ctx context.Context, core *Core, in CreateScriptIncludeInput) (any, error) {
				data := map[string]any{
					"name":            in.Name,
					"script":          in.Script,
					"client_callable": in.ClientCallable,
				}
				setIf(data, "description", in.Description)
				setIf(data, "api_name", in.APIName)
				if in.Active != nil {
					data["active"] = *in.Active
				}
				record, err := core.API.CreateRecord(ctx, scriptIncludeTable, data)
				if err != nil {
					return nil, err
				}
				return scriptIncludeResult{
					Summary:       fmt.Sprintf("Created script include %s", client.FieldString(record, "name")),
					ScriptInclude: record,
				}, nil
			}),

		entry("update_script_include", "Update an existing script include.", false,
			func(ctx context.Context, core *Core, in UpdateScriptIncludeInput) (any, error) {
				existing, err := findScriptInclude(ctx, core, in.ScriptIncludeID)
				if err != nil {
					return nil, err
				}
				data := map[string]any{}
				setIf(data, "script", in.Script)
				setIf(data, "description", in.Description)
				if in.ClientCallable != nil {
					data["client_callable"] = *in.ClientCallable
				}
				if in.Active != nil {
					data["active"] = *in.Active
				}
				record, err := core.API.UpdateRecord(ctx, scriptIncludeTable, client.FieldString(existing, "sys_id"), data)
				if err != nil {
					return nil, err
				}
				return scriptIncludeResult{
					Summary:       fmt.Sprintf("Updated script include %s", client.FieldString(record, "name")),
					ScriptInclude: record,
				}, nil
			}),

		entry("delete_script_include", "Delete a script include.", false,
			func(ctx context.Context, core *Core, in DeleteScriptIncludeInput) (any, error) {
				existing, err := findScriptInclude(ctx, core, in.ScriptIncludeID)
				if err != nil {
					return nil, err
				}
				sysID := client.FieldString(existing, "sys_id")
				if err := core.API.DeleteRecord(ctx, scriptIncludeTable, sysID); err != nil {
					return nil, err
				}
				return scriptIncludeResult{
					Summary: fmt.Sprintf("Deleted script include %s", client.FieldString(existing, "name")),
				}, nil
			}),
	}
}

// findScriptInclude resolves a sys_id or API name to the full record.
func findScriptInclude(ctx context.Context, core *Core, ident string) (client.Record, error) {
	if resource.IsSysID(ident) {
		return core.API.GetRecord(ctx, scriptIncludeTable, ident, nil)
	}
	records, err := core.API.QueryTable(ctx, scriptIncludeTable, client.Query{
		Filter: "name=" + ident + "^ORapi_name=" + ident,
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no script include found with name %q", ident)
	}
	return records[0], nil
}
