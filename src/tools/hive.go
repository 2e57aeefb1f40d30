package tools

import (
	"context"
	"fmt"

	"github.com/hivegate/hive-agent/src/hive"
)

// NewHiveTools builds the five metastore tools over one shared client.
func NewHiveTools(client *hive.Client) []Definition {
	schemaParam := Param{
		Type:        "string",
		Description: "Schema (database) name, e.g. 'public'",
		Required:    true,
	}
	tableParam := Param{
		Type:        "string",
		Description: "Table name without the schema prefix, e.g. 'measure'",
		Required:    true,
	}

	return []Definition{
		{
			Name:        "delete_table",
			Description: "Delete a Hive table. For 'public.measure', schema is 'public' and table_name is 'measure'. Deletion is permanent; restate the schema and table in your answer.",
			Params: map[string]Param{
				"schema":     schemaParam,
				"table_name": tableParam,
			},
			Run: func(ctx context.Context, args map[string]any) (hive.Result, error) {
				return client.DeleteTable(ctx, args["schema"].(string), args["table_name"].(string))
			},
		},
		{
			Name:        "create_table",
			Description: "Create a Hive table with the given columns.",
			Params: map[string]Param{
				"schema":     schemaParam,
				"table_name": tableParam,
				"columns": {
					Type:        "array",
					Description: "Column definitions",
					Required:    true,
					Items: &Param{
						Type: "object",
						Fields: map[string]Param{
							"name": {Type: "string", Description: "Column name", Required: true},
							"type": {Type: "string", Description: "Hive column type, e.g. 'string', 'bigint'", Required: true},
						},
					},
				},
			},
			Run: func(ctx context.Context, args map[string]any) (hive.Result, error) {
				cols, err := toColumns(args["columns"])
				if err != nil {
					return hive.Result{}, err
				}
				return client.CreateTable(ctx, args["schema"].(string), args["table_name"].(string), cols)
			},
		},
		{
			Name:        "get_table_info",
			Description: "Get the metadata of one Hive table, including its columns.",
			Params: map[string]Param{
				"schema":     schemaParam,
				"table_name": tableParam,
			},
			Run: func(ctx context.Context, args map[string]any) (hive.Result, error) {
				return client.GetTableInfo(ctx, args["schema"].(string), args["table_name"].(string))
			},
		},
		{
			Name:        "list_tables",
			Description: "List all tables in one schema.",
			Params: map[string]Param{
				"schema": schemaParam,
			},
			Run: func(ctx context.Context, args map[string]any) (hive.Result, error) {
				return client.ListTables(ctx, args["schema"].(string))
			},
		},
		{
			Name:        "list_databases",
			Description: "List all databases in the Hive metastore.",
			Params:      map[string]Param{},
			Run: func(ctx context.Context, _ map[string]any) (hive.Result, error) {
				return client.ListDatabases(ctx)
			},
		},
	}
}

// toColumns converts the validated generic array into typed columns.
func toColumns(v any) ([]hive.Column, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("columns must be an array")
	}
	cols := make([]hive.Column, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("column entries must be objects")
		}
		name, _ := obj["name"].(string)
		typ, _ := obj["type"].(string)
		cols = append(cols, hive.Column{Name: name, Type: typ})
	}
	return cols, nil
}
