// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"isp-assistant/internal/common/validation"
)

// LoadRegistry reads and validates the activity registry at path.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate checks activity ids, task type uniqueness and that every
// declared schema compiles.
func (r *ActivityRegistry) Validate() error {
	seen := make(map[string]bool, len(r.Activities))
	for _, a := range r.Activities {
		if err := validation.ValidateActivityNaming(a.ID); err != nil {
			return err
		}
		if a.TaskType == "" {
			return fmt.Errorf("activity %s: taskType is required", a.ID)
		}
		if seen[a.TaskType] {
			return fmt.Errorf("activity %s: duplicate taskType %s", a.ID, a.TaskType)
		}
		seen[a.TaskType] = true

		for name, schema := range map[string]map[string]interface{}{"inputSchema": a.InputSchema, "outputSchema": a.OutputSchema} {
			if len(schema) == 0 {
				continue
			}
			if _, err := validation.CompileMap(schema); err != nil {
				return fmt.Errorf("activity %s: %s: %w", a.ID, name, err)
			}
		}
	}
	return nil
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}
