package filesystem

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/wardenfs/warden/internal/sandbox"
	"github.com/wardenfs/warden/internal/shared/types"
)

// FormatsOps handles structured file format operations
type FormatsOps struct {
	*FilesystemOps
}

// GetTools returns format operation tool definitions
func (f *FormatsOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "fs.json.read",
			Name:        "Read JSON",
			Description: "Parse JSON file",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "fs.json.write",
			Name:        "Write JSON",
			Description: "Write data as indented JSON",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "data", Type: "object", Description: "Data to write", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "fs.yaml.read",
			Name:        "Read YAML",
			Description: "Parse YAML file",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "fs.yaml.write",
			Name:        "Write YAML",
			Description: "Write data as YAML",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "data", Type: "object", Description: "Data to write", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "fs.toml.read",
			Name:        "Read TOML",
			Description: "Parse TOML file",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "fs.toml.write",
			Name:        "Write TOML",
			Description: "Write data as TOML",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "data", Type: "object", Description: "Data to write", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "fs.csv.read",
			Name:        "Read CSV",
			Description: "Parse CSV file to array of objects",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "has_header", Type: "boolean", Description: "First row is header (default true)", Required: false},
			},
			Returns: "array",
		},
	}
}

// JSONRead parses a JSON file
func (f *FormatsOps) JSONRead(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	canon, data, denied := f.readFormat(params)
	if denied != nil {
		return denied, nil
	}

	var parsed interface{}
	if err := sonic.Unmarshal(data, &parsed); err != nil {
		return Failure(fmt.Sprintf("JSON parse error: %v", err))
	}

	return Success(map[string]interface{}{"path": canon, "data": parsed})
}

// JSONWrite writes data as indented JSON
func (f *FormatsOps) JSONWrite(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	path, data, denied := f.writeParams(params)
	if denied != nil {
		return denied, nil
	}

	jsonData, err := sonic.MarshalIndent(data, "", "  ")
	if err != nil {
		return Failure(fmt.Sprintf("JSON encoding error: %v", err))
	}

	return f.writeFormat(path, jsonData)
}

// YAMLRead parses a YAML file
func (f *FormatsOps) YAMLRead(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	canon, data, denied := f.readFormat(params)
	if denied != nil {
		return denied, nil
	}

	var parsed interface{}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Failure(fmt.Sprintf("YAML parse error: %v", err))
	}

	return Success(map[string]interface{}{"path": canon, "data": parsed})
}

// YAMLWrite writes data as YAML
func (f *FormatsOps) YAMLWrite(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	path, data, denied := f.writeParams(params)
	if denied != nil {
		return denied, nil
	}

	yamlData, err := yaml.Marshal(data)
	if err != nil {
		return Failure(fmt.Sprintf("YAML encoding error: %v", err))
	}

	return f.writeFormat(path, yamlData)
}

// TOMLRead parses a TOML file
func (f *FormatsOps) TOMLRead(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	canon, data, denied := f.readFormat(params)
	if denied != nil {
		return denied, nil
	}

	var parsed map[string]interface{}
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return Failure(fmt.Sprintf("TOML parse error: %v", err))
	}

	return Success(map[string]interface{}{"path": canon, "data": parsed})
}

// TOMLWrite writes data as TOML
func (f *FormatsOps) TOMLWrite(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	path, data, denied := f.writeParams(params)
	if denied != nil {
		return denied, nil
	}

	tomlData, err := toml.Marshal(data)
	if err != nil {
		return Failure(fmt.Sprintf("TOML encoding error: %v", err))
	}

	return f.writeFormat(path, tomlData)
}

// CSVRead parses a CSV file into an array of row objects
func (f *FormatsOps) CSVRead(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	hasHeader := true
	if h, ok := params["has_header"].(bool); ok {
		hasHeader = h
	}

	canon, data, denied := f.readFormat(params)
	if denied != nil {
		return denied, nil
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	records, err := reader.ReadAll()
	if err != nil {
		return Failure(fmt.Sprintf("CSV parse error: %v", err))
	}

	if len(records) == 0 {
		return Success(map[string]interface{}{"path": canon, "rows": []interface{}{}, "count": 0})
	}

	var headers []string
	startRow := 0

	if hasHeader {
		headers = records[0]
		startRow = 1
	} else {
		for i := 0; i < len(records[0]); i++ {
			headers = append(headers, fmt.Sprintf("col%d", i))
		}
	}

	rows := []map[string]interface{}{}
	for i := startRow; i < len(records); i++ {
		row := make(map[string]interface{})
		for j, value := range records[i] {
			if j < len(headers) {
				row[headers[j]] = value
			}
		}
		rows = append(rows, row)
	}

	return Success(map[string]interface{}{"path": canon, "rows": rows, "count": len(rows), "headers": headers})
}

// readFormat authorizes a path parameter for reading and returns its contents
func (f *FormatsOps) readFormat(params map[string]interface{}) (string, []byte, *types.Result) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		denied, _ := Failure("path parameter required")
		return "", nil, denied
	}

	canon, denied := f.authorize(path, sandbox.ModeRead)
	if denied != nil {
		return "", nil, denied
	}

	data, err := os.ReadFile(canon)
	if err != nil {
		denied, _ := Failure(fmt.Sprintf("read failed: %s", path))
		return "", nil, denied
	}
	return canon, data, nil
}

// writeParams validates path and data parameters for write tools
func (f *FormatsOps) writeParams(params map[string]interface{}) (string, interface{}, *types.Result) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		denied, _ := Failure("path parameter required")
		return "", nil, denied
	}

	data, ok := params["data"]
	if !ok {
		denied, _ := Failure("data parameter required")
		return "", nil, denied
	}
	return path, data, nil
}

// writeFormat authorizes the target and writes encoded bytes
func (f *FormatsOps) writeFormat(path string, encoded []byte) (*types.Result, error) {
	canon, denied := f.authorize(path, sandbox.ModeWrite)
	if denied != nil {
		return denied, nil
	}

	if err := os.WriteFile(canon, encoded, 0o644); err != nil {
		return Failure(fmt.Sprintf("write failed: %s", path))
	}

	return Success(map[string]interface{}{"written": true, "path": canon, "size": len(encoded)})
}
