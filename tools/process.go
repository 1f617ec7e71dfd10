package tools

import (
	"context"
	"fmt"

	"github.com/avandyck/glidewire/client"
	"github.com/avandyck/glidewire/resource"
)

type ListProcessDefinitionsInput struct {
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum definitions to return (default 10, max 200)"`
	Offset int    `json:"offset,omitempty" jsonschema:"Number of records to skip"`
	Active *bool  `json:"active,omitempty" jsonschema:"Filter by active flag"`
	Query  string `json:"query,omitempty" jsonschema:"Additional encoded query appended verbatim"`
}

func (in ListProcessDefinitionsInput) validate() error {
	if in.Offset < 0 {
		return fmt.Errorf("offset must be non-negative, got %d", in.Offset)
	}
	_, err := normalizeLimit(in.Limit, listDefaultLimit, listMaxLimit)
	return err
}

type GetProcessDefinitionInput struct {
	ProcessDefinitionID string `json:"process_definition_id" jsonschema:"Process definition sys_id"`
}

func (in GetProcessDefinitionInput) validate() error {
	return requireField(in.ProcessDefinitionID, "process_definition_id")
}

type ListProcessLanesInput struct {
	ProcessDefinitionID string `json:"process_definition_id" jsonschema:"Parent process definition sys_id"`
}

func (in ListProcessLanesInput) validate() error {
	return requireField(in.ProcessDefinitionID, "process_definition_id")
}

type ListProcessActivitiesInput struct {
	LaneID string `json:"lane_id" jsonschema:"Parent lane sys_id"`
}

func (in ListProcessActivitiesInput) validate() error {
	return requireField(in.LaneID, "lane_id")
}

type GetActivityDefinitionInput struct {
	ActivityID string `json:"activity_id" jsonschema:"Activity sys_id"`
}

func (in GetActivityDefinitionInput) validate() error {
	return requireField(in.ActivityID, "activity_id")
}

type processListResult struct {
	Summary string          `json:"summary"`
	Count   int             `json:"count"`
	Records []client.Record `json:"records"`
}

func processTools() []Tool {
	return []Tool{
		entry("list_process_definitions", "List process definitions.", true,
			func(ctx context.Context, core *Core, in ListProcessDefinitionsInput) (any, error) {
				limit, err := normalizeLimit(in.Limit, listDefaultLimit, listMaxLimit)
				if err != nil {
					return nil, err
				}
				var activeFilter string
				if in.Active != nil {
					activeFilter = fmt.Sprintf("active=%t", *in.Active)
				}
				records, err := core.API.QueryTable(ctx, resource.ProcessDefinitionTable, client.Query{
					Filter:  joinFilter(activeFilter, in.Query),
					Limit:   limit,
					Offset:  in.Offset,
					OrderBy: "name",
				})
				if err != nil {
					return nil, err
				}
				return processListResult{
					Summary: fmt.Sprintf("Found %d process definitions", len(records)),
					Count:   len(records),
					Records: records,
				}, nil
			}),

		entry("get_process_definition", "Fetch a process definition with its lanes and activities.", true,
			func(ctx context.Context, core *Core, in GetProcessDefinitionInput) (any, error) {
				return core.Resolver.ProcessDefinitionByID(ctx, in.ProcessDefinitionID)
			}),

		entry("list_process_lanes", "List the lanes of a process definition.", true,
			func(ctx context.Context, core *Core, in ListProcessLanesInput) (any, error) {
				lanes := core.Resolver.FallbackQuery(ctx, resource.LaneTables, client.Query{
					Filter:  "process_definition=" + in.ProcessDefinitionID,
					OrderBy: "order",
				})
				return processListResult{
					Summary: fmt.Sprintf("Found %d lanes", len(lanes)),
					Count:   len(lanes),
					Records: lanes,
				}, nil
			}),

		entry("list_process_activities", "List the activities of a lane.", true,
			func(ctx context.Context, core *Core, in ListProcessActivitiesInput) (any, error) {
				activities := core.Resolver.FallbackQuery(ctx, resource.ActivityTables, client.Query{
					Filter:  "lane=" + in.LaneID,
					OrderBy: "order",
				})
				return processListResult{
					Summary: fmt.Sprintf("Found %d activities", len(activities)),
					Count:   len(activities),
					Records: activities,
				}, nil
			}),

		entry("get_activity_definition", "Fetch one activity by sys_id.", true,
			func(ctx context.Context, core *Core, in GetActivityDefinitionInput) (any, error) {
				var lastErr error
				for _, table := range resource.ActivityTables {
					record, err := core.API.GetRecord(ctx, table, in.ActivityID, nil)
					if err != nil {
						lastErr = err
						continue
					}
					return recordResult{
						Summary: fmt.Sprintf("Activity %s", client.FieldString(record, "name")),
						Table:   table,
						Record:  record,
					}, nil
				}
				return nil, fmt.Errorf("activity %s not found: %w", in.ActivityID, lastErr)
			}),
	}
}
