package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap represents a JSONB column holding free-form attributes such as
// meter readings on a line or the rendering payload of a notification.
type JSONMap map[string]any

// Scan implements the sql.Scanner interface for JSONMap
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(JSONMap)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal JSONB value: %v", value)
	}

	result := make(JSONMap)
	err := json.Unmarshal(bytes, &result)
	*m = result
	return err
}

// Value implements the driver.Valuer interface for JSONMap
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(make(JSONMap))
	}
	return json.Marshal(m)
}
