// cmd/tools/worker-generator/scaffold.go
package main

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"vibe-transmuter/pkg/registry"
)

// WorkerData holds data for templates
type WorkerData struct {
	Module               string
	Name                 string
	PackageName          string
	Category             string
	TaskType             string
	Description          string
	InputSchema          map[string]interface{}
	OutputSchema         map[string]interface{}
	ErrorCodes           []string
	Timeout              string
	Retries              int
	ImplementationStatus string
}

func newWorkerData(module string, activity *registry.Activity) WorkerData {
	return WorkerData{
		Module:               module,
		Name:                 activity.DisplayName,
		PackageName:          packageName(activity.TaskType),
		Category:             activity.Category,
		TaskType:             activity.TaskType,
		Description:          activity.Description,
		InputSchema:          activity.InputSchema,
		OutputSchema:         activity.OutputSchema,
		ErrorCodes:           activity.ErrorCodes,
		Timeout:              activity.Timeout,
		Retries:              activity.Retries,
		ImplementationStatus: activity.ImplementationStatus,
	}
}

// packageName turns a task type such as "transmute-vibe" into "transmutevibe".
func packageName(taskType string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "_", "", ".", "").Replace(taskType))
}

// parseSchema extracts properties from a JSON schema object
func parseSchema(schemaObj interface{}) map[string]interface{} {
	if schemaMap, ok := schemaObj.(map[string]interface{}); ok {
		if props, exists := schemaMap["properties"]; exists {
			if properties, ok := props.(map[string]interface{}); ok {
				return properties
			}
		}
	}
	return map[string]interface{}{}
}

// goTypeFromJSONType maps JSON schema types to Go types
func goTypeFromJSONType(jsonType interface{}) string {
	jt, ok := jsonType.(string)
	if !ok {
		return "interface{}"
	}
	switch jt {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		return "[]interface{}"
	default:
		return "interface{}"
	}
}

func fieldName(prop string) string {
	name := upperFirst(prop)
	if strings.HasSuffix(name, "Id") {
		name = strings.TrimSuffix(name, "Id") + "ID"
	}
	return name
}

// generateStructFields renders one field per schema property, sorted by name.
func generateStructFields(properties map[string]interface{}, required []string) string {
	requiredSet := make(map[string]bool, len(required))
	for _, r := range required {
		requiredSet[r] = true
	}

	props := make([]string, 0, len(properties))
	for prop := range properties {
		props = append(props, prop)
	}
	sort.Strings(props)

	var fields []string
	for _, prop := range props {
		propDetails, ok := properties[prop].(map[string]interface{})
		if !ok {
			continue
		}

		tag := prop
		if !requiredSet[prop] {
			tag += ",omitempty"
		}

		comment := ""
		if d, ok := propDetails["description"].(string); ok && d != "" {
			comment = " // " + d
		}

		fields = append(fields, fmt.Sprintf("\t%s %s `json:\"%s\"`%s",
			fieldName(prop), goTypeFromJSONType(propDetails["type"]), tag, comment))
	}
	return strings.Join(fields, "\n")
}

func requiredFields(schema map[string]interface{}) []string {
	raw, _ := schema["required"].([]interface{})
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// upperFirst makes the first character uppercase
func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var funcMap = template.FuncMap{
	"parseSchema":          parseSchema,
	"goTypeFromJSONType":   goTypeFromJSONType,
	"generateStructFields": generateStructFields,
	"requiredFields":       requiredFields,
	"fieldName":            fieldName,
	"upperFirst":           upperFirst,
	"lookup": func(m interface{}, key string) interface{} {
		if mm, ok := m.(map[string]interface{}); ok {
			return mm[key]
		}
		return nil
	},
}

var templates = map[string]string{
	"config.go":       configTemplate,
	"models.go":       modelsTemplate,
	"handler.go":      handlerTemplate,
	"handler_test.go": testTemplate,
	"README.md":       readmeTemplate,
}

// render executes every template for data and gofmts the Go files.
func render(data WorkerData) (map[string][]byte, error) {
	out := make(map[string][]byte, len(templates))
	for filename, tmplStr := range templates {
		tmpl, err := template.New(filename).Funcs(funcMap).Parse(tmplStr)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", filename, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("execute template %s: %w", filename, err)
		}

		content := buf.Bytes()
		if strings.HasSuffix(filename, ".go") {
			formatted, err := format.Source(content)
			if err != nil {
				return nil, fmt.Errorf("format %s: %w", filename, err)
			}
			content = formatted
		}
		out[filename] = content
	}
	return out, nil
}

// generate writes the scaffold for data under baseDir/<category>/<taskType>
// and returns the written paths. Existing files are kept unless force is set.
func generate(baseDir string, data WorkerData, force bool) ([]string, error) {
	files, err := render(data)
	if err != nil {
		return nil, err
	}

	workerDir := filepath.Join(baseDir, strings.ToLower(data.Category), data.TaskType)
	if !force {
		for filename := range files {
			if _, err := os.Stat(filepath.Join(workerDir, filename)); err == nil {
				return nil, fmt.Errorf("%s already exists (use -force to overwrite)", filepath.Join(workerDir, filename))
			}
		}
	}

	if err := os.MkdirAll(workerDir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for filename := range files {
		names = append(names, filename)
	}
	sort.Strings(names)

	written := make([]string, 0, len(names))
	for _, filename := range names {
		path := filepath.Join(workerDir, filename)
		if err := os.WriteFile(path, files[filename], 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
