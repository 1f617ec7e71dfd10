package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/avandyck/glidewire/client"
	"github.com/avandyck/glidewire/resource"
)

const incidentTable = "incident"

// Incident state 6 is Resolved.
const incidentStateResolved = "6"

type CreateIncidentInput struct {
	ShortDescription string `json:"short_description" jsonschema:"Short description of the incident"`
	Description      string `json:"description,omitempty" jsonschema:"Detailed description"`
	CallerID         string `json:"caller_id,omitempty" jsonschema:"sys_id or username of the caller"`
	Category         string `json:"category,omitempty" jsonschema:"Incident category"`
	Subcategory      string `json:"subcategory,omitempty" jsonschema:"Incident subcategory"`
	Impact           string `json:"impact,omitempty" jsonschema:"Impact (1=high, 2=medium, 3=low)"`
	Urgency          string `json:"urgency,omitempty" jsonschema:"Urgency (1=high, 2=medium, 3=low)"`
	AssignmentGroup  string `json:"assignment_group,omitempty" jsonschema:"sys_id or name of the assignment group"`
}

func (in CreateIncidentInput) validate() error {
	return requireField(in.ShortDescription, "short_description")
}

type UpdateIncidentInput struct {
	IncidentID       string `json:"incident_id" jsonschema:"Incident sys_id or number (INC...)"`
	ShortDescription string `json:"short_description,omitempty" jsonschema:"New short description"`
	Description      string `json:"description,omitempty" jsonschema:"New description"`
	State            string `json:"state,omitempty" jsonschema:"New state code"`
	AssignedTo       string `json:"assigned_to,omitempty" jsonschema:"sys_id or username of the assignee"`
	AssignmentGroup  string `json:"assignment_group,omitempty" jsonschema:"sys_id or name of the assignment group"`
	Category         string `json:"category,omitempty" jsonschema:"New category"`
	Impact           string `json:"impact,omitempty" jsonschema:"New impact"`
	Urgency          string `json:"urgency,omitempty" jsonschema:"New urgency"`
	WorkNotes        string `json:"work_notes,omitempty" jsonschema:"Work note to append"`
	CloseNotes       string `json:"close_notes,omitempty" jsonschema:"Close notes"`
	CloseCode        string `json:"close_code,omitempty" jsonschema:"Close code"`
}

func (in UpdateIncidentInput) validate() error {
	if err := requireField(in.IncidentID, "incident_id"); err != nil {
		return err
	}
	if len(in.fields()) == 0 {
		return errors.New("no fields to update")
	}
	return nil
}

func (in UpdateIncidentInput) fields() map[string]any {
	data := map[string]any{}
	setIf(data, "short_description", in.ShortDescription)
	setIf(data, "description", in.Description)
	setIf(data, "state", in.State)
	setIf(data, "assigned_to", in.AssignedTo)
	setIf(data, "assignment_group", in.AssignmentGroup)
	setIf(data, "category", in.Category)
	setIf(data, "impact", in.Impact)
	setIf(data, "urgency", in.Urgency)
	setIf(data, "work_notes", in.WorkNotes)
	setIf(data, "close_notes", in.CloseNotes)
	setIf(data, "close_code", in.CloseCode)
	return data
}

type GetIncidentInput struct {
	IncidentID string   `json:"incident_id" jsonschema:"Incident sys_id or number (INC...)"`
	Fields     []string `json:"fields,omitempty" jsonschema:"Field names to return; all fields when omitted"`
}

func (in GetIncidentInput) validate() error {
	return requireField(in.IncidentID, "incident_id")
}

type ListIncidentsInput struct {
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum incidents to return (default 10, max 200)"`
	Offset     int    `json:"offset,omitempty" jsonschema:"Number of incidents to skip"`
	State      string `json:"state,omitempty" jsonschema:"Filter by state code"`
	AssignedTo string `json:"assigned_to,omitempty" jsonschema:"Filter by assignee"`
	Category   string `json:"category,omitempty" jsonschema:"Filter by category"`
	Query      string `json:"query,omitempty" jsonschema:"Additional encoded query appended verbatim"`
}

func (in ListIncidentsInput) validate() error {
	if in.Offset < 0 {
		return fmt.Errorf("offset must be non-negative, got %d", in.Offset)
	}
	_, err := normalizeLimit(in.Limit, listDefaultLimit, listMaxLimit)
	return err
}

type ResolveIncidentInput struct {
	IncidentID string `json:"incident_id" jsonschema:"Incident sys_id or number (INC...)"`
	CloseCode  string `json:"close_code" jsonschema:"Resolution code"`
	CloseNotes string `json:"close_notes" jsonschema:"Resolution notes"`
}

func (in ResolveIncidentInput) validate() error {
	if err := requireField(in.IncidentID, "incident_id"); err != nil {
		return err
	}
	if err := requireField(in.CloseCode, "close_code"); err != nil {
		return err
	}
	return requireField(in.CloseNotes, "close_notes")
}

type AddIncidentCommentInput struct {
	IncidentID string `json:"incident_id" jsonschema:"Incident sys_id or number (INC...)"`
	Comment    string `json:"comment" jsonschema:"Comment text"`
	WorkNote   bool   `json:"work_note,omitempty" jsonschema:"Add as an internal work note instead of a customer-visible comment"`
}

func (in AddIncidentCommentInput) validate() error {
	if err := requireField(in.IncidentID, "incident_id"); err != nil {
		return err
	}
	return requireField(in.Comment, "comment")
}

type incidentResult struct {
	Summary      string        `json:"summary"`
	LookupMethod string        `json:"lookup_method,omitempty"`
	Incident     client.Record `json:"incident"`
}

type incidentListResult struct {
	Summary   string          `json:"summary"`
	Count     int             `json:"count"`
	Incidents []client.Record `json:"incidents"`
}

func incidentTools() []Tool {
	return []Tool{
		entry("create_incident", "Create a new incident.", false,
			func(ctx context.Context, core *Core, in CreateIncidentInput) (any, error) {
				data := map[string]any{"short_description": in.ShortDescription}
				setIf(data, "description", in.Description)
				setIf(data, "caller_id", in.CallerID)
				setIf(data, "category", in.Category)
				setIf(data, "subcategory", in.Subcategory)
				setIf(data, "impact", in.Impact)
				setIf(data, "urgency", in.Urgency)
				setIf(data, "assignment_group", in.AssignmentGroup)

				record, err := core.API.CreateRecord(ctx, incidentTable, data)
				if err != nil {
					return nil, err
				}
				return incidentResult{
					Summary:  fmt.Sprintf("Created incident %s", client.FieldString(record, "number")),
					Incident: record,
				}, nil
			}),

		entry("update_incident", "Update fields on an existing incident by sys_id or number.", false,
			func(ctx context.Context, core *Core, in UpdateIncidentInput) (any, error) {
				sysID, _, err := findIncident(ctx, core, in.IncidentID, []string{"sys_id", "number"})
				if err != nil {
					return nil, err
				}
				record, err := core.API.UpdateRecord(ctx, incidentTable, sysID, in.fields())
				if err != nil {
					return nil, err
				}
				return incidentResult{
					Summary:  fmt.Sprintf("Updated incident %s", client.FieldString(record, "number")),
					Incident: record,
				}, nil
			}),

		entry("get_incident", "Fetch one incident by sys_id or number.", true,
			func(ctx context.Context, core *Core, in GetIncidentInput) (any, error) {
				if resource.IsSysID(in.IncidentID) {
					record, err := core.API.GetRecord(ctx, incidentTable, in.IncidentID, in.Fields)
					if err != nil {
						return nil, err
					}
					return incidentResult{
						Summary:      fmt.Sprintf("Incident %s: %s", client.FieldString(record, "number"), client.FieldString(record, "short_description")),
						LookupMethod: "sys_id",
						Incident:     record,
					}, nil
				}
				records, err := core.API.QueryTable(ctx, incidentTable, client.Query{
					Filter: "number=" + in.IncidentID,
					Fields: in.Fields,
					Limit:  1,
				})
				if err != nil {
					return nil, err
				}
				if len(records) == 0 {
					return nil, fmt.Errorf("no incident found with number %q", in.IncidentID)
				}
				return incidentResult{
					Summary:      fmt.Sprintf("Incident %s: %s", in.IncidentID, client.FieldString(records[0], "short_description")),
					LookupMethod: "number",
					Incident:     records[0],
				}, nil
			}),

		entry("list_incidents", "List incidents with optional filters.", true,
			func(ctx context.Context, core *Core, in ListIncidentsInput) (any, error) {
				limit, err := normalizeLimit(in.Limit, listDefaultLimit, listMaxLimit)
				if err != nil {
					return nil, err
				}
				var stateFilter, assignedFilter, categoryFilter string
				if in.State != "" {
					stateFilter = "state=" + in.State
				}
				if in.AssignedTo != "" {
					assignedFilter = "assigned_to=" + in.AssignedTo
				}
				if in.Category != "" {
					categoryFilter = "category=" + in.Category
				}
				records, err := core.API.QueryTable(ctx, incidentTable, client.Query{
					Filter:     joinFilter(stateFilter, assignedFilter, categoryFilter, in.Query),
					Limit:      limit,
					Offset:     in.Offset,
					OrderBy:    "sys_created_on",
					Descending: true,
				})
				if err != nil {
					return nil, err
				}
				return incidentListResult{
					Summary:   fmt.Sprintf("Found %d incidents", len(records)),
					Count:     len(records),
					Incidents: records,
				}, nil
			}),

		entry("resolve_incident", "Resolve an incident with a close code and notes.", false,
			func(ctx context.Context, core *Core, in ResolveIncidentInput) (any, error) {
				sysID, _, err := findIncident(ctx, core, in.IncidentID, []string{"sys_id", "number"})
				if err != nil {
					return nil, err
				}
				record, err := core.API.UpdateRecord(ctx, incidentTable, sysID, map[string]any{
					"state":       incidentStateResolved,
					"close_code":  in.CloseCode,
					"close_notes": in.CloseNotes,
				})
				if err != nil {
					return nil, err
				}
				return incidentResult{
					Summary:  fmt.Sprintf("Resolved incident %s (%s)", client.FieldString(record, "number"), in.CloseCode),
					Incident: record,
				}, nil
			}),

		entry("add_incident_comment", "Append a comment or work note to an incident.", false,
			func(ctx context.Context, core *Core, in AddIncidentCommentInput) (any, error) {
				sysID, _, err := findIncident(ctx, core, in.IncidentID, []string{"sys_id", "number"})
				if err != nil {
					return nil, err
				}
				field := "comments"
				if in.WorkNote {
					field = "work_notes"
				}
				record, err := core.API.UpdateRecord(ctx, incidentTable, sysID, map[string]any{field: in.Comment})
				if err != nil {
					return nil, err
				}
				return incidentResult{
					Summary:  fmt.Sprintf("Added %s to incident %s", field, client.FieldString(record, "number")),
					Incident: record,
				}, nil
			}),
	}
}

// findIncident resolves an identifier that may be either a sys_id or a
// human-readable number to the record's sys_id.
func findIncident(ctx context.Context, core *Core, ident string, fields []string) (string, client.Record, error) {
	if resource.IsSysID(ident) {
		return ident, nil, nil
	}
	records, err := core.API.QueryTable(ctx, incidentTable, client.Query{
		Filter: "number=" + ident,
		Fields: fields,
		Limit:  1,
	})
	if err != nil {
		return "", nil, err
	}
	if len(records) == 0 {
		return "", nil, fmt.Errorf("no incident found with number %q", ident)
	}
	sysID := client.FieldString(records[0], "sys_id")
	if sysID == "" {
		return "", nil, fmt.Errorf("incident %q has no sys_id", ident)
	}
	return sysID, records[0], nil
}
