package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvironmentProperty is one key/value line of environment.properties.
// Order is preserved in the written file.
type EnvironmentProperty struct {
	Key   string
	Value string
}

// WriteEnvironment writes environment.properties into the results directory
// so the generated report shows the run parameters.
func WriteEnvironment(dir string, props []EnvironmentProperty) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	var b strings.Builder
	for _, p := range props {
		fmt.Fprintf(&b, "%s=%s\n", p.Key, p.Value)
	}

	path := filepath.Join(dir, "environment.properties")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write environment.properties: %w", err)
	}
	return nil
}
