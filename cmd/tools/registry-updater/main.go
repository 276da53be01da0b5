// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apperrors "presales-mvp/internal/common/errors"
	"presales-mvp/internal/models"
	"presales-mvp/pkg/registry"
)

const defaultCatalogPath = "pkg/registry/scenarios.json"

var registryPath string

func main() {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{listCmd, updateCmd, validateCmd} {
		fs.StringVar(&registryPath, "path", defaultCatalogPath, "Path to scenario catalog")
	}

	// Update command flags
	idUpdate := updateCmd.String("id", "", "Scenario ID to update")
	field := updateCmd.String("field", "", "Field to update (displayName, description, tags, usesRetrieval)")
	value := updateCmd.String("value", "", "New value for the field")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "list":
		listCmd.Parse(os.Args[2:])
		cat, err := registry.LoadRegistry(registryPath)
		if err != nil {
			fmt.Printf("Error loading catalog: %v\n", err)
			os.Exit(1)
		}
		for _, s := range cat.Scenarios {
			fmt.Printf("%-10s %-28s retrieval=%t schema=%s\n", s.ID, s.DisplayName, s.UsesRetrieval, s.OutputSchema)
		}

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: id, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateScenario(registryPath, *idUpdate, *field, *value); err != nil {
			fmt.Printf("Error updating scenario: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated scenario %s, field %s to %s\n", *idUpdate, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		cat, err := registry.LoadRegistry(registryPath)
		if err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		if err := validateCatalog(cat); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry validation passed. Found %d scenarios.\n", len(cat.Scenarios))

	case "help":
		fallthrough
	default:
		help()
	}
}

func updateScenario(path, id, field, value string) error {
	cat, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	found := false
	for i := range cat.Scenarios {
		if cat.Scenarios[i].ID != id {
			continue
		}
		found = true
		switch field {
		case "displayName":
			cat.Scenarios[i].DisplayName = value
		case "description":
			cat.Scenarios[i].Description = value
		case "tags":
			cat.Scenarios[i].Tags = splitList(value)
		case "usesRetrieval":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid usesRetrieval value: %w", err)
			}
			cat.Scenarios[i].UsesRetrieval = b
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		break
	}

	if !found {
		return fmt.Errorf("scenario with ID %s not found", id)
	}

	cat.LastUpdated = time.Now().Format("2006-01-02")
	return saveRegistry(cat, path)
}

// validateCatalog checks that the catalog matches the scenarios the service
// can dispatch, since the HTTP enum is derived from it.
func validateCatalog(cat *registry.Catalog) error {
	if len(cat.Scenarios) == 0 {
		return fmt.Errorf("registry contains no scenarios")
	}

	knownSchemas := map[string]bool{
		models.ProposalDraftSchemaName: true,
		models.PricingPackSchemaName:   true,
	}

	listed := make(map[models.Scenario]bool)
	for _, s := range cat.Scenarios {
		scenario := models.Scenario(s.ID)
		if !scenario.IsValid() {
			return fmt.Errorf("scenario %s has no handler", s.ID)
		}
		listed[scenario] = true

		if s.DisplayName == "" {
			return fmt.Errorf("scenario %s missing required field: DisplayName", s.ID)
		}
		if s.TaskType == "" {
			return fmt.Errorf("scenario %s missing required field: TaskType", s.ID)
		}
		if s.OutputSchema != "" && !knownSchemas[s.OutputSchema] {
			return fmt.Errorf("scenario %s references unknown output schema %s", s.ID, s.OutputSchema)
		}
		for _, code := range s.ErrorCodes {
			if !apperrors.IsKnownCode(apperrors.ErrorCode(code)) {
				return fmt.Errorf("scenario %s lists unknown error code %s", s.ID, code)
			}
		}
	}

	for _, scenario := range models.Scenarios() {
		if !listed[scenario] {
			return fmt.Errorf("scenario %s is handled but missing from the catalog", scenario)
		}
	}
	return nil
}

func splitList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// saveRegistry handles saving the registry to file
func saveRegistry(cat *registry.Catalog, path string) error {
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  list     List the scenarios in the catalog
  update   Update an existing scenario's field
  validate Validate the catalog against the handled scenarios
  help     Show this help message

Examples:
  registry-updater list
  registry-updater update -id pricing -field description -value "Pricing pack with approval triggers"
  registry-updater validate -path pkg/registry/scenarios.json

Use 'registry-updater <command> -h' for more information about a command.
` + "\n")
}
