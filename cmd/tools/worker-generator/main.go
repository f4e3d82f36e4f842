// cmd/tools/worker-generator/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"vibe-transmuter/pkg/registry"
)

func main() {
	activity := flag.String("activity", "", "Activity ID or task type from registry (e.g., vibe.spec.transmute)")
	outputDir := flag.String("output", "./internal/workers/", "Base directory for generated workers")
	registryPath := flag.String("registry", "configs/activity-registry.json", "Path to the activity registry JSON file")
	module := flag.String("module", "vibe-transmuter", "Go module path used in generated imports")
	force := flag.Bool("force", false, "Overwrite existing files")
	flag.Parse()

	if *activity == "" {
		fmt.Println("Usage: worker-generator -activity <id> [-output <dir>] [-registry <path>] [-force]")
		fmt.Println("\nExample:")
		fmt.Println("  go run ./cmd/tools/worker-generator -activity vibe.spec.normalize")
		os.Exit(1)
	}

	reg, err := registry.LoadRegistry(*registryPath)
	if err != nil {
		fmt.Printf("Error loading registry from %s: %v\n", *registryPath, err)
		os.Exit(1)
	}

	found, err := reg.FindActivity(*activity)
	if err != nil {
		found, err = reg.FindByTaskType(*activity)
	}
	if err != nil {
		fmt.Printf("Activity '%s' not found in registry %s\n", *activity, *registryPath)
		os.Exit(1)
	}

	written, err := generate(*outputDir, newWorkerData(*module, found), *force)
	if err != nil {
		fmt.Printf("Error generating worker: %v\n", err)
		os.Exit(1)
	}
	for _, path := range written {
		fmt.Printf("✓ Generated %s\n", path)
	}

	fmt.Printf("\nNext steps:\n")
	fmt.Printf("  1. Implement Execute in handler.go\n")
	fmt.Printf("  2. Register the worker in cmd/worker-manager/main.go\n")
	fmt.Printf("  3. Add a workers.%s section to configs/config.yaml\n", found.TaskType)
}
