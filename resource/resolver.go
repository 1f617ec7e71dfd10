// Package resource resolves dynamic servicenow:// resource URIs into
// instance data.
package resource

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/avandyck/glidewire/client"
)

// Scheme is the URI scheme all resources live under.
const Scheme = "servicenow"

const (
	dictionaryTable = "sys_dictionary"
	incidentTable   = "incident"
	userTable       = "sys_user"

	// ProcessDefinitionTable holds process definition records.
	ProcessDefinitionTable = "sys_pd_process_definition"

	sampleSize = 10
)

// Lane and activity records moved tables between platform releases;
// candidates are tried in order and the first successful lookup wins.
var (
	LaneTables     = []string{"sys_pd_lane", "pd_lane"}
	ActivityTables = []string{"sys_pd_activity", "pd_activity"}
)

var sysIDRe = regexp.MustCompile(`^[a-fA-F0-9]{32}$`)

// IsSysID reports whether ident looks like a 32-hex-char opaque primary
// key rather than a human-readable number or name.
func IsSysID(ident string) bool {
	return sysIDRe.MatchString(ident)
}

// Template describes one supported URI shape for listing.
type Template struct {
	URITemplate string
	Name        string
	Description string
}

// Templates lists every URI shape the resolver understands, in match
// order.
func Templates() []Template {
	return []Template{
		{Scheme + "://table-schema/{table}", "table_schema", "Field definitions for a table"},
		{Scheme + "://table-data/{table}", "table_data", "Sample records from a table"},
		{Scheme + "://record/{table}/{sys_id}", "record", "A single record by table and sys_id"},
		{Scheme + "://incident/{identifier}", "incident", "An incident by sys_id or number"},
		{Scheme + "://user/{identifier}", "user", "A user by sys_id, username, or email"},
		{Scheme + "://process-definition/{sys_id}", "process_definition", "A process definition with its lanes and activities"},
	}
}

// InvalidURIError rejects a URI that matches none of the supported
// shapes or is missing required parameters.
type InvalidURIError struct {
	URI    string
	Reason string
}

func (e *InvalidURIError) Error() string {
	var shapes []string
	for _, t := range Templates() {
		shapes = append(shapes, t.URITemplate)
	}
	return fmt.Sprintf("invalid resource URI %q: %s; supported URIs: %s",
		e.URI, e.Reason, strings.Join(shapes, ", "))
}

// RecordAPI is the slice of the transport the resolver needs.
type RecordAPI interface {
	GetRecord(ctx context.Context, table, sysID string, fields []string) (client.Record, error)
	QueryTable(ctx context.Context, table string, q client.Query) ([]client.Record, error)
}

// FieldDef is one projected sys_dictionary row.
type FieldDef struct {
	ColumnName    string `json:"column_name"`
	ColumnLabel   string `json:"column_label"`
	InternalType  string `json:"internal_type"`
	MaxLength     string `json:"max_length"`
	Mandatory     bool   `json:"mandatory"`
	Reference     string `json:"reference"`
	IsChoiceField bool   `json:"is_choice_field"`
	DefaultValue  string `json:"default_value"`
	Comments      string `json:"comments"`
}

// TableSchema is the table-schema resource payload.
type TableSchema struct {
	Table  string     `json:"table"`
	Fields []FieldDef `json:"fields"`
}

// TableData is the table-data resource payload.
type TableData struct {
	Table       string          `json:"table"`
	SampleCount int             `json:"sample_count"`
	Records     []client.Record `json:"records"`
}

// RecordView is the record resource payload.
type RecordView struct {
	Table  string        `json:"table"`
	SysID  string        `json:"sys_id"`
	Record client.Record `json:"record"`
}

// Lookup is the incident and user resource payload.
type Lookup struct {
	Type         string        `json:"type"`
	Identifier   string        `json:"identifier"`
	LookupMethod string        `json:"lookup_method"`
	Record       client.Record `json:"record"`
}

// ProcessSummary aggregates counts and state for a process definition.
type ProcessSummary struct {
	TotalLanes      int    `json:"total_lanes"`
	TotalActivities int    `json:"total_activities"`
	Status          string `json:"status"`
	Active          bool   `json:"active"`
}

// ProcessDefinition is the process-definition resource payload.
type ProcessDefinition struct {
	Type              string          `json:"type"`
	SysID             string          `json:"sys_id"`
	ProcessDefinition client.Record   `json:"process_definition"`
	Lanes             []client.Record `json:"lanes"`
	Activities        []client.Record `json:"activities"`
	Summary           ProcessSummary  `json:"summary"`
}

// Resolver matches resource URIs against the supported shapes and
// fetches the backing data.
type Resolver struct {
	api    RecordAPI
	logger *slog.Logger
}

// NewResolver builds a resolver. A nil logger discards.
func NewResolver(api RecordAPI, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{api: api, logger: logger}
}

// Resolve parses uri and returns the payload for its shape.
func (r *Resolver) Resolve(ctx context.Context, uri string) (any, error) {
	rest, ok := strings.CutPrefix(uri, Scheme+"://")
	if !ok {
		return nil, &InvalidURIError{URI: uri, Reason: "unsupported scheme"}
	}

	kind, params, _ := strings.Cut(rest, "/")
	switch kind {
	case "table-schema":
		table, err := singleParam(uri, params, "table name")
		if err != nil {
			return nil, err
		}
		return r.tableSchema(ctx, table)
	case "table-data":
		table, err := singleParam(uri, params, "table name")
		if err != nil {
			return nil, err
		}
		return r.tableData(ctx, table)
	case "record":
		segments := strings.Split(params, "/")
		if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
			return nil, &InvalidURIError{URI: uri, Reason: "record requires exactly a table name and a sys_id"}
		}
		return r.record(ctx, segments[0], segments[1])
	case "incident":
		ident, err := singleParam(uri, params, "incident sys_id or number")
		if err != nil {
			return nil, err
		}
		return r.incident(ctx, ident)
	case "user":
		ident, err := singleParam(uri, params, "user sys_id, username, or email")
		if err != nil {
			return nil, err
		}
		return r.user(ctx, ident)
	case "process-definition":
		id, err := singleParam(uri, params, "process definition sys_id")
		if err != nil {
			return nil, err
		}
		return r.ProcessDefinitionByID(ctx, id)
	default:
		return nil, &InvalidURIError{URI: uri, Reason: "unknown resource kind"}
	}
}

func singleParam(uri, params, what string) (string, error) {
	if params == "" || strings.Contains(params, "/") {
		return "", &InvalidURIError{URI: uri, Reason: "expected exactly one " + what}
	}
	return params, nil
}

func (r *Resolver) tableSchema(ctx context.Context, table string) (*TableSchema, error) {
	rows, err := r.api.QueryTable(ctx, dictionaryTable, client.Query{
		Filter: "name=" + table,
		Fields: []string{"element", "column_label", "internal_type", "max_length", "mandatory", "reference", "choice", "default_value", "comments"},
	})
	if err != nil {
		return nil, err
	}

	fields := make([]FieldDef, 0, len(rows))
	for _, row := range rows {
		name := client.FieldString(row, "element")
		if name == "" {
			continue
		}
		choice := client.FieldString(row, "choice")
		fields = append(fields, FieldDef{
			ColumnName:    name,
			ColumnLabel:   client.FieldString(row, "column_label"),
			InternalType:  client.FieldString(row, "internal_type"),
			MaxLength:     client.FieldString(row, "max_length"),
			Mandatory:     client.FieldString(row, "mandatory") == "true",
			Reference:     client.FieldString(row, "reference"),
			IsChoiceField: choice != "" && choice != "0",
			DefaultValue:  client.FieldString(row, "default_value"),
			Comments:      client.FieldString(row, "comments"),
		})
	}
	return &TableSchema{Table: table, Fields: fields}, nil
}

func (r *Resolver) tableData(ctx context.Context, table string) (*TableData, error) {
	records, err := r.api.QueryTable(ctx, table, client.Query{Limit: sampleSize})
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []client.Record{}
	}
	return &TableData{Table: table, SampleCount: len(records), Records: records}, nil
}

func (r *Resolver) record(ctx context.Context, table, sysID string) (*RecordView, error) {
	record, err := r.api.GetRecord(ctx, table, sysID, nil)
	if err != nil {
		return nil, err
	}
	return &RecordView{Table: table, SysID: sysID, Record: record}, nil
}

func (r *Resolver) incident(ctx context.Context, ident string) (*Lookup, error) {
	if IsSysID(ident) {
		record, err := r.api.GetRecord(ctx, incidentTable, ident, nil)
		if err != nil {
			return nil, err
		}
		return &Lookup{Type: "incident", Identifier: ident, LookupMethod: "sys_id", Record: record}, nil
	}

	records, err := r.api.QueryTable(ctx, incidentTable, client.Query{Filter: "number=" + ident, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no incident found with number %q", ident)
	}
	return &Lookup{Type: "incident", Identifier: ident, LookupMethod: "number", Record: records[0]}, nil
}

func (r *Resolver) user(ctx context.Context, ident string) (*Lookup, error) {
	if IsSysID(ident) {
		record, err := r.api.GetRecord(ctx, userTable, ident, nil)
		if err != nil {
			return nil, err
		}
		return &Lookup{Type: "user", Identifier: ident, LookupMethod: "sys_id", Record: record}, nil
	}

	records, err := r.api.QueryTable(ctx, userTable, client.Query{
		Filter: "user_name=" + ident + "^ORemail=" + ident,
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no user found with username or email %q", ident)
	}
	return &Lookup{Type: "user", Identifier: ident, LookupMethod: "username_or_email", Record: records[0]}, nil
}

// ProcessDefinitionByID aggregates a definition with its lanes and their
// activities. Lane and activity lookups never fail the resolution:
// failures are logged and the lists default to empty, because the
// top-level record is meaningful on its own.
func (r *Resolver) ProcessDefinitionByID(ctx context.Context, sysID string) (*ProcessDefinition, error) {
	definition, err := r.api.GetRecord(ctx, ProcessDefinitionTable, sysID, nil)
	if err != nil {
		return nil, err
	}

	lanes := r.FallbackQuery(ctx, LaneTables, client.Query{
		Filter:  "process_definition=" + sysID,
		OrderBy: "order",
	})

	activities := []client.Record{}
	for _, lane := range lanes {
		laneID := client.FieldString(lane, "sys_id")
		if laneID == "" {
			continue
		}
		laneName := client.FieldString(lane, "name")
		for _, activity := range r.FallbackQuery(ctx, ActivityTables, client.Query{
			Filter:  "lane=" + laneID,
			OrderBy: "order",
		}) {
			activity["lane_name"] = laneName
			activity["lane_sys_id"] = laneID
			activities = append(activities, activity)
		}
	}

	return &ProcessDefinition{
		Type:              "process_definition",
		SysID:             sysID,
		ProcessDefinition: definition,
		Lanes:             lanes,
		Activities:        activities,
		Summary: ProcessSummary{
			TotalLanes:      len(lanes),
			TotalActivities: len(activities),
			Status:          client.FieldString(definition, "status"),
			Active:          client.FieldString(definition, "active") == "true",
		},
	}, nil
}

// FallbackQuery tries each candidate table in order and returns the
// first successful result. All failures are swallowed into an empty
// list.
func (r *Resolver) FallbackQuery(ctx context.Context, tables []string, q client.Query) []client.Record {
	for _, table := range tables {
		records, err := r.api.QueryTable(ctx, table, q)
		if err != nil {
			r.logger.DebugContext(ctx, "fallback query",
				"table", table,
				"filter", q.Filter,
				"outcome", "error",
				"error", err.Error(),
			)
			continue
		}
		if records == nil {
			records = []client.Record{}
		}
		return records
	}
	r.logger.InfoContext(ctx, "fallback query",
		"tables", strings.Join(tables, ","),
		"filter", q.Filter,
		"outcome", "empty",
	)
	return []client.Record{}
}
