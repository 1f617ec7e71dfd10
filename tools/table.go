package tools

import (
	"context"
	"fmt"

	"github.com/avandyck/glidewire/client"
)

type QueryTableInput struct {
	Table      string   `json:"table" jsonschema:"Table name"`
	Query      string   `json:"query,omitempty" jsonschema:"Encoded query passed through verbatim"`
	Fields     []string `json:"fields,omitempty" jsonschema:"Field names to return; all fields when omitted"`
	Limit      *int     `json:"limit,omitempty" jsonschema:"Maximum records to return (default 100, max 10000)"`
	Offset     int      `json:"offset,omitempty" jsonschema:"Number of records to skip"`
	OrderBy    string   `json:"order_by,omitempty" jsonschema:"Field to order by"`
	Descending bool     `json:"descending,omitempty" jsonschema:"Order descending"`
}

func (in QueryTableInput) validate() error {
	if err := requireField(in.Table, "table"); err != nil {
		return err
	}
	if in.Offset < 0 {
		return fmt.Errorf("offset must be non-negative, got %d", in.Offset)
	}
	if in.Limit != nil {
		if *in.Limit <= 0 {
			return fmt.Errorf("limit must be positive, got %d", *in.Limit)
		}
		if *in.Limit > queryMaxLimit {
			return fmt.Errorf("limit must not exceed %d, got %d", queryMaxLimit, *in.Limit)
		}
	}
	return nil
}

type GetRecordInput struct {
	Table  string   `json:"table" jsonschema:"Table name"`
	SysID  string   `json:"sys_id" jsonschema:"Record sys_id"`
	Fields []string `json:"fields,omitempty" jsonschema:"Field names to return; all fields when omitted"`
}

func (in GetRecordInput) validate() error {
	if err := requireField(in.Table, "table"); err != nil {
		return err
	}
	return requireField(in.SysID, "sys_id")
}

type CreateRecordInput struct {
	Table string         `json:"table" jsonschema:"Table name"`
	Data  map[string]any `json:"data" jsonschema:"Field values for the new record"`
}

func (in CreateRecordInput) validate() error {
	if err := requireField(in.Table, "table"); err != nil {
		return err
	}
	if len(in.Data) == 0 {
		return fmt.Errorf("data is required")
	}
	return nil
}

type UpdateRecordInput struct {
	Table string         `json:"table" jsonschema:"Table name"`
	SysID string         `json:"sys_id" jsonschema:"Record sys_id"`
	Data  map[string]any `json:"data" jsonschema:"Field values to update"`
}

func (in UpdateRecordInput) validate() error {
	if err := requireField(in.Table, "table"); err != nil {
		return err
	}
	if err := requireField(in.SysID, "sys_id"); err != nil {
		return err
	}
	if len(in.Data) == 0 {
		return fmt.Errorf("data is required")
	}
	return nil
}

type DeleteRecordInput struct {
	Table string `json:"table" jsonschema:"Table name"`
	SysID string `json:"sys_id" jsonschema:"Record sys_id"`
}

func (in DeleteRecordInput) validate() error {
	if err := requireField(in.Table, "table"); err != nil {
		return err
	}
	return requireField(in.SysID, "sys_id")
}

type recordResult struct {
	Summary string        `json:"summary"`
	Table   string        `json:"table"`
	Record  client.Record `json:"record,omitempty"`
}

type recordListResult struct {
	Summary string          `json:"summary"`
	Table   string          `json:"table"`
	Count   int             `json:"count"`
	Records []client.Record `json:"records"`
}

func tableTools() []Tool {
	return []Tool{
		entry("query_table", "Query any table with an encoded query, field projection, and paging.", true,
			func(ctx context.Context, core *Core, in QueryTableInput) (any, error) {
				limit := queryDefaultLimit
				if in.Limit != nil {
					limit = *in.Limit
				}
				records, err := core.API.QueryTable(ctx, in.Table, client.Query{
					Filter:     in.Query,
					Fields:     in.Fields,
					Limit:      limit,
					Offset:     in.Offset,
					OrderBy:    in.OrderBy,
					Descending: in.Descending,
				})
				if err != nil {
					return nil, err
				}
				return recordListResult{
					Summary: fmt.Sprintf("Found %d records in %s", len(records), in.Table),
					Table:   in.Table,
					Count:   len(records),
					Records: records,
				}, nil
			}),

		entry("get_record", "Fetch one record from any table by sys_id.", true,
			func(ctx context.Context, core *Core, in GetRecordInput) (any, error) {
				record, err := core.API.GetRecord(ctx, in.Table, in.SysID, in.Fields)
				if err != nil {
					return nil, err
				}
				return recordResult{
					Summary: fmt.Sprintf("Record %s from %s", in.SysID, in.Table),
					Table:   in.Table,
					Record:  record,
				}, nil
			}),

		entry("create_record", "Create a record in any table.", false,
			func(ctx context.Context, core *Core, in CreateRecordInput) (any, error) {
				record, err := core.API.CreateRecord(ctx, in.Table, in.Data)
				if err != nil {
					return nil, err
				}
				return recordResult{
					Summary: fmt.Sprintf("Created record %s in %s", client.FieldString(record, "sys_id"), in.Table),
					Table:   in.Table,
					Record:  record,
				}, nil
			}),

		entry("update_record", "Update fields on a record in any table.", false,
			func(ctx context.Context, core *Core, in UpdateRecordInput) (any, error) {
				record, err := core.API.UpdateRecord(ctx, in.Table, in.SysID, in.Data)
				if err != nil {
					return nil, err
				}
				return recordResult{
					Summary: fmt.Sprintf("Updated record %s in %s", in.SysID, in.Table),
					Table:   in.Table,
					Record:  record,
				}, nil
			}),

		entry("delete_record", "Delete a record from any table.", false,
			func(ctx context.Context, core *Core, in DeleteRecordInput) (any, error) {
				if err := core.API.DeleteRecord(ctx, in.Table, in.SysID); err != nil {
					return nil, err
				}
				return recordResult{
					Summary: fmt.Sprintf("Deleted record %s from %s", in.SysID, in.Table),
					Table:   in.Table,
				}, nil
			}),
	}
}
