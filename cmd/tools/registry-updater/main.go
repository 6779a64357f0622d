// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"coach-matching/pkg/registry"

	"github.com/xeipuuv/gojsonschema"
)

const defaultRegistryPath = "configs/activity-registry.json"

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	switch command {
	case "add":
		fs := flag.NewFlagSet("add", flag.ExitOnError)
		path := fs.String("path", defaultRegistryPath, "Path to registry file")
		id := fs.String("id", "", "Activity ID (e.g., match-providers)")
		displayName := fs.String("displayName", "", "Display Name (e.g., Match Providers)")
		description := fs.String("description", "", "Description")
		category := fs.String("category", "", "Category (e.g., matching)")
		taskType := fs.String("taskType", "", "Camunda Task Type (e.g., match-providers)")
		version := fs.String("version", "1.0.0", "Version")
		status := fs.String("status", "planned", "Implementation Status ("+strings.Join(registry.ImplementationStatuses, ", ")+")")
		fs.Parse(args)

		if *id == "" || *displayName == "" || *description == "" || *category == "" || *taskType == "" {
			fs.Usage()
			return fmt.Errorf("id, displayName, description, category, and taskType are required for add")
		}
		err := addActivity(*path, registry.Activity{
			ID:                   *id,
			DisplayName:          *displayName,
			Description:          *description,
			Category:             *category,
			Version:              *version,
			TaskType:             *taskType,
			ImplementationStatus: *status,
			InputSchema:          map[string]interface{}{},
			OutputSchema:         map[string]interface{}{},
			ErrorCodes:           []string{},
			Timeout:              "10s",
			Workflows:            []string{},
			Tags:                 []string{},
		})
		if err != nil {
			return err
		}
		fmt.Printf("Added activity: %s\n", *id)

	case "update":
		fs := flag.NewFlagSet("update", flag.ExitOnError)
		path := fs.String("path", defaultRegistryPath, "Path to registry file")
		id := fs.String("id", "", "Activity ID to update")
		field := fs.String("field", "", "Field to update (status, version, etc.)")
		value := fs.String("value", "", "New value for the field")
		fs.Parse(args)

		if *id == "" || *field == "" || *value == "" {
			fs.Usage()
			return fmt.Errorf("id, field, and value are required for update")
		}
		if err := updateActivity(*path, *id, *field, *value); err != nil {
			return err
		}
		fmt.Printf("Updated activity %s, field %s to %s\n", *id, *field, *value)

	case "validate":
		fs := flag.NewFlagSet("validate", flag.ExitOnError)
		path := fs.String("path", defaultRegistryPath, "Path to registry file")
		fs.Parse(args)

		n, err := validateRegistry(*path)
		if err != nil {
			return fmt.Errorf("registry validation failed: %w", err)
		}
		fmt.Printf("Registry validation passed. Found %d activities.\n", n)

	case "check":
		fs := flag.NewFlagSet("check", flag.ExitOnError)
		path := fs.String("path", defaultRegistryPath, "Path to registry file")
		taskType := fs.String("taskType", "", "Task type whose input schema to check against")
		input := fs.String("input", "", "Path to a JSON file with job variables")
		fs.Parse(args)

		if *taskType == "" || *input == "" {
			fs.Usage()
			return fmt.Errorf("taskType and input are required for check")
		}
		problems, err := checkInput(*path, *taskType, *input)
		if err != nil {
			return err
		}
		if len(problems) > 0 {
			return fmt.Errorf("input does not match schema:\n  %s", strings.Join(problems, "\n  "))
		}
		fmt.Println("Input matches schema.")

	default:
		help()
	}
	return nil
}

func addActivity(path string, activity registry.Activity) error {
	if !validStatus(activity.ImplementationStatus) {
		return fmt.Errorf("invalid status %q", activity.ImplementationStatus)
	}

	reg, err := registry.LoadRegistry(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = &registry.ActivityRegistry{Version: "1.0.0"}
	}

	if _, exists := reg.FindByID(activity.ID); exists {
		return fmt.Errorf("activity with ID %s already exists", activity.ID)
	}
	if _, exists := reg.FindByTaskType(activity.TaskType); exists {
		return fmt.Errorf("task type %s is already registered", activity.TaskType)
	}

	reg.Activities = append(reg.Activities, activity)
	return registry.SaveRegistry(reg, path)
}

func updateActivity(path, id, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	a, found := reg.FindByID(id)
	if !found {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "status":
		if !validStatus(value) {
			return fmt.Errorf("invalid status %q", value)
		}
		a.ImplementationStatus = value
	case "version":
		a.Version = value
	case "displayName":
		a.DisplayName = value
	case "description":
		a.Description = value
	case "category":
		a.Category = value
	case "taskType":
		a.TaskType = value
	case "timeout":
		a.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		a.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	return registry.SaveRegistry(reg, path)
}

func validateRegistry(path string) (int, error) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return 0, fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return 0, err
	}
	return len(reg.Activities), nil
}

// checkInput validates a sample payload and returns the schema violations.
func checkInput(path, taskType, inputPath string) ([]string, error) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	a, found := reg.FindByTaskType(taskType)
	if !found {
		return nil, fmt.Errorf("task type %s not found", taskType)
	}
	schema, err := registry.CompileSchema(a.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("compile input schema: %w", err)
	}
	if schema == nil {
		return nil, nil
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, err
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validate input: %w", err)
	}

	var problems []string
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return problems, nil
}

func validStatus(status string) bool {
	for _, s := range registry.ImplementationStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  add      Add a new activity to the registry
  update   Update an existing activity's field
  validate Validate the registry file and compile its schemas
  check    Check a JSON payload against an activity's input schema
  help     Show this help message

Examples:
  registry-updater add -id match-providers -displayName "Match Providers" -description "Ranks providers for a client" -category matching -taskType match-providers
  registry-updater update -id match-providers -field status -value completed
  registry-updater validate -path configs/activity-registry.json
  registry-updater check -taskType match-providers -input request.json

Use 'registry-updater <command> -h' for more information about a command.
` + "\n")
}
