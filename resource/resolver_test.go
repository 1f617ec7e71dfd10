package resource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/avandyck/glidewire/client"
)

type fakeAPI struct {
	records    map[string]client.Record   // "table/sys_id" -> record
	queries    map[string][]client.Record // table -> result
	queryErrs  map[string]error           // table -> error
	getCalls   []string
	queryCalls []string
	lastQuery  map[string]client.Query
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		records:   map[string]client.Record{},
		queries:   map[string][]client.Record{},
		queryErrs: map[string]error{},
		lastQuery: map[string]client.Query{},
	}
}

func (f *fakeAPI) GetRecord(_ context.Context, table, sysID string, _ []string) (client.Record, error) {
	f.getCalls = append(f.getCalls, table+"/"+sysID)
	record, ok := f.records[table+"/"+sysID]
	if !ok {
		return nil, &client.APIError{Status: 404, Message: "No Record found"}
	}
	return record, nil
}

func (f *fakeAPI) QueryTable(_ context.Context, table string, q client.Query) ([]client.Record, error) {
	f.queryCalls = append(f.queryCalls, table)
	f.lastQuery[table] = q
	if err, ok := f.queryErrs[table]; ok {
		return nil, err
	}
	// Copy so callers that annotate records do not alias fixture maps.
	out := make([]client.Record, 0, len(f.queries[table]))
	for _, record := range f.queries[table] {
		dup := make(client.Record, len(record))
		for k, v := range record {
			dup[k] = v
		}
		out = append(out, dup)
	}
	return out, nil
}

func TestResolveTableSchema(t *testing.T) {
	api := newFakeAPI()
	api.queries["sys_dictionary"] = []client.Record{
		{
			"element":       "number",
			"column_label":  "Number",
			"internal_type": map[string]any{"value": "string"},
			"mandatory":     "true",
			"max_length":    "40",
			"choice":        "0",
		},
		{"element": "", "column_label": "Collection row"},
	}
	r := NewResolver(api, nil)

	out, err := r.Resolve(context.Background(), "servicenow://table-schema/incident")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	schema, ok := out.(*TableSchema)
	if !ok {
		t.Fatalf("result type = %T", out)
	}
	if schema.Table != "incident" {
		t.Fatalf("Table = %q", schema.Table)
	}
	if len(schema.Fields) != 1 {
		t.Fatalf("len(Fields) = %d, want 1 (empty column_name dropped)", len(schema.Fields))
	}
	field := schema.Fields[0]
	if field.ColumnName != "number" || field.ColumnLabel != "Number" {
		t.Fatalf("field = %+v", field)
	}
	if field.InternalType != "string" {
		t.Fatalf("InternalType = %q", field.InternalType)
	}
	if !field.Mandatory {
		t.Fatal("Mandatory should parse to true")
	}
	if field.IsChoiceField {
		t.Fatal("choice=0 should not mark a choice field")
	}
	if got := api.lastQuery["sys_dictionary"].Filter; got != "name=incident" {
		t.Fatalf("dictionary filter = %q", got)
	}
}

func TestResolveTableData(t *testing.T) {
	api := newFakeAPI()
	api.queries["cmdb_ci"] = []client.Record{{"sys_id": "a"}, {"sys_id": "b"}}
	r := NewResolver(api, nil)

	out, err := r.Resolve(context.Background(), "servicenow://table-data/cmdb_ci")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	data := out.(*TableData)
	if data.SampleCount != 2 || data.Table != "cmdb_ci" {
		t.Fatalf("data = %+v", data)
	}
	if got := api.lastQuery["cmdb_ci"].Limit; got != sampleSize {
		t.Fatalf("sample limit = %d, want %d", got, sampleSize)
	}
}

func TestResolveRecord(t *testing.T) {
	api := newFakeAPI()
	api.records["change_request/"+strings.Repeat("a", 32)] = client.Record{"sys_id": strings.Repeat("a", 32)}
	r := NewResolver(api, nil)

	out, err := r.Resolve(context.Background(), "servicenow://record/change_request/"+strings.Repeat("a", 32))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	view := out.(*RecordView)
	if view.Table != "change_request" {
		t.Fatalf("Table = %q", view.Table)
	}
}

func TestResolveRecordRequiresBothSegments(t *testing.T) {
	r := NewResolver(newFakeAPI(), nil)
	for _, uri := range []string{
		"servicenow://record/incident",
		"servicenow://record/incident/",
		"servicenow://record//abc",
		"servicenow://record/a/b/c",
	} {
		_, err := r.Resolve(context.Background(), uri)
		var invalidErr *InvalidURIError
		if !errors.As(err, &invalidErr) {
			t.Fatalf("Resolve(%q) error = %v, want *InvalidURIError", uri, err)
		}
	}
}

func TestResolveIncidentByNumber(t *testing.T) {
	api := newFakeAPI()
	api.queries["incident"] = []client.Record{{"number": "INC0010001", "short_description": "printer on fire"}}
	r := NewResolver(api, nil)

	out, err := r.Resolve(context.Background(), "servicenow://incident/INC0010001")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	lookup := out.(*Lookup)
	if lookup.LookupMethod != "number" {
		t.Fatalf("LookupMethod = %q, want number", lookup.LookupMethod)
	}
	if lookup.Identifier != "INC0010001" || lookup.Type != "incident" {
		t.Fatalf("lookup = %+v", lookup)
	}
	if got := api.lastQuery["incident"].Filter; got != "number=INC0010001" {
		t.Fatalf("filter = %q", got)
	}
	if len(api.getCalls) != 0 {
		t.Fatalf("unexpected get-by-id calls: %v", api.getCalls)
	}
}

func TestResolveIncidentBySysID(t *testing.T) {
	sysID := "1c741bd70b2322007518478d83673af3"
	api := newFakeAPI()
	api.records["incident/"+sysID] = client.Record{"sys_id": sysID}
	r := NewResolver(api, nil)

	out, err := r.Resolve(context.Background(), "servicenow://incident/"+sysID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	lookup := out.(*Lookup)
	if lookup.LookupMethod != "sys_id" {
		t.Fatalf("LookupMethod = %q, want sys_id", lookup.LookupMethod)
	}
	if len(api.queryCalls) != 0 {
		t.Fatalf("sys_id lookup must not query: %v", api.queryCalls)
	}
}

func TestResolveIncidentNoMatch(t *testing.T) {
	r := NewResolver(newFakeAPI(), nil)
	if _, err := r.Resolve(context.Background(), "servicenow://incident/INC0099999"); err == nil {
		t.Fatal("expected error for zero matches")
	}
}

func TestResolveUserByName(t *testing.T) {
	api := newFakeAPI()
	api.queries["sys_user"] = []client.Record{{"user_name": "abel.tuter"}}
	r := NewResolver(api, nil)

	out, err := r.Resolve(context.Background(), "servicenow://user/abel.tuter")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	lookup := out.(*Lookup)
	if lookup.LookupMethod != "username_or_email" {
		t.Fatalf("LookupMethod = %q", lookup.LookupMethod)
	}
	if got := api.lastQuery["sys_user"].Filter; got != "user_name=abel.tuter^ORemail=abel.tuter" {
		t.Fatalf("filter = %q", got)
	}
}

func TestIsSysID(t *testing.T) {
	tests := []struct {
		ident string
		want  bool
	}{
		{"1c741bd70b2322007518478d83673af3", true},
		{"1C741BD70B2322007518478D83673AF3", true},
		{"INC0010001", false},
		{"1c741bd70b2322007518478d83673af", false},   // 31 chars
		{"1c741bd70b2322007518478d83673af3a", false}, // 33 chars
		{"zc741bd70b2322007518478d83673af3", false},  // non-hex
		{"", false},
	}
	for _, tt := range tests {
		if got := IsSysID(tt.ident); got != tt.want {
			t.Fatalf("IsSysID(%q) = %v, want %v", tt.ident, got, tt.want)
		}
	}
}

func TestResolveProcessDefinitionAggregates(t *testing.T) {
	defID := strings.Repeat("d", 32)
	api := newFakeAPI()
	api.records[ProcessDefinitionTable+"/"+defID] = client.Record{
		"sys_id": defID, "name": "Onboarding", "status": "published", "active": "true",
	}
	api.queries["sys_pd_lane"] = []client.Record{
		{"sys_id": "lane1", "name": "HR"},
		{"sys_id": "lane2", "name": "IT"},
	}
	api.queries["sys_pd_activity"] = []client.Record{{"sys_id": "act1", "name": "Create account"}}
	r := NewResolver(api, nil)

	out, err := r.Resolve(context.Background(), "servicenow://process-definition/"+defID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	def := out.(*ProcessDefinition)
	if def.Summary.TotalLanes != 2 {
		t.Fatalf("TotalLanes = %d", def.Summary.TotalLanes)
	}
	// One activity result per lane in this fake.
	if def.Summary.TotalActivities != 2 {
		t.Fatalf("TotalActivities = %d", def.Summary.TotalActivities)
	}
	if !def.Summary.Active || def.Summary.Status != "published" {
		t.Fatalf("Summary = %+v", def.Summary)
	}
	if def.Activities[0]["lane_name"] != "HR" || def.Activities[1]["lane_name"] != "IT" {
		t.Fatalf("activities not tagged with lanes: %v", def.Activities)
	}
}

func TestResolveProcessDefinitionLaneFallback(t *testing.T) {
	defID := strings.Repeat("d", 32)
	api := newFakeAPI()
	api.records[ProcessDefinitionTable+"/"+defID] = client.Record{"sys_id": defID}
	api.queryErrs["sys_pd_lane"] = fmt.Errorf("table not found")
	api.queries["pd_lane"] = []client.Record{{"sys_id": "lane1", "name": "Legacy"}}
	api.queries["sys_pd_activity"] = []client.Record{}
	r := NewResolver(api, nil)

	out, err := r.Resolve(context.Background(), "servicenow://process-definition/"+defID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	def := out.(*ProcessDefinition)
	if def.Summary.TotalLanes != 1 {
		t.Fatalf("TotalLanes = %d, want 1 from fallback table", def.Summary.TotalLanes)
	}
}

func TestResolveProcessDefinitionAllLaneLookupsFail(t *testing.T) {
	defID := strings.Repeat("d", 32)
	api := newFakeAPI()
	api.records[ProcessDefinitionTable+"/"+defID] = client.Record{"sys_id": defID}
	api.queryErrs["sys_pd_lane"] = fmt.Errorf("table not found")
	api.queryErrs["pd_lane"] = fmt.Errorf("table not found")
	r := NewResolver(api, nil)

	out, err := r.Resolve(context.Background(), "servicenow://process-definition/"+defID)
	if err != nil {
		t.Fatalf("Resolve() must not fail on lane lookup failure, got %v", err)
	}
	def := out.(*ProcessDefinition)
	if len(def.Lanes) != 0 || len(def.Activities) != 0 {
		t.Fatalf("lanes/activities = %v/%v, want empty", def.Lanes, def.Activities)
	}
	if def.Summary.TotalLanes != 0 || def.Summary.TotalActivities != 0 {
		t.Fatalf("summary = %+v", def.Summary)
	}
}

func TestResolveRejectionsEnumerateTemplates(t *testing.T) {
	r := NewResolver(newFakeAPI(), nil)
	for _, uri := range []string{
		"servicenow://unknown/thing",
		"servicenow://incident",
		"servicenow://incident/",
		"servicenow://table-schema/a/b",
		"https://example.com/incident/1",
	} {
		_, err := r.Resolve(context.Background(), uri)
		var invalidErr *InvalidURIError
		if !errors.As(err, &invalidErr) {
			t.Fatalf("Resolve(%q) error = %v, want *InvalidURIError", uri, err)
		}
		for _, tmpl := range Templates() {
			if !strings.Contains(err.Error(), tmpl.URITemplate) {
				t.Fatalf("error for %q does not list %q", uri, tmpl.URITemplate)
			}
		}
	}
}

func TestTemplatesCount(t *testing.T) {
	if got := len(Templates()); got != 6 {
		t.Fatalf("len(Templates()) = %d, want 6", got)
	}
}
