// Package repository provides database abstraction for the dataflow
// simulator's run history.
package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// RunModel is the GORM model backing RunRepository.
type RunModel struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name           string    `gorm:"column:name;type:varchar(128);index"`
	ConfigPath     string    `gorm:"column:config_path;type:varchar(512)"`
	StepsRun       int       `gorm:"column:steps_run"`
	EmissionCount  int       `gorm:"column:emission_count"`
	TotalProcessed int       `gorm:"column:total_processed"`
	TotalOverdue   int       `gorm:"column:total_overdue"`
	TotalExpired   int       `gorm:"column:total_expired"`
	ArtifactURL    string    `gorm:"column:artifact_url;type:varchar(512)"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for RunModel.
func (RunModel) TableName() string {
	return "simulation_runs"
}

// ToRecord converts a RunModel row to a RunRecord.
func (m *RunModel) ToRecord() *RunRecord {
	return &RunRecord{
		ID:             m.ID,
		Name:           m.Name,
		ConfigPath:     m.ConfigPath,
		StepsRun:       m.StepsRun,
		EmissionCount:  m.EmissionCount,
		TotalProcessed: m.TotalProcessed,
		TotalOverdue:   m.TotalOverdue,
		TotalExpired:   m.TotalExpired,
		ArtifactURL:    m.ArtifactURL,
		CreatedAt:      m.CreatedAt,
	}
}

// BatchModel is the GORM model backing BatchRepository: one step's keys
// for one run, stored as a JSON array.
type BatchModel struct {
	ID    int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunID int64     `gorm:"column:run_id;index"`
	Step  int       `gorm:"column:step"`
	Keys  JSONField `gorm:"column:keys;type:json"`
}

// TableName returns the table name for BatchModel.
func (BatchModel) TableName() string {
	return "simulation_batches"
}

// JSONField is a custom type for handling JSON fields in GORM.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}

// MarshalJSON implements json.Marshaler interface.
func (j JSONField) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *JSONField) UnmarshalJSON(data []byte) error {
	if data == nil || string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

// keysToJSON marshals a key batch into a JSONField.
func keysToJSON(keys []string) (JSONField, error) {
	b, err := json.Marshal(keys)
	if err != nil {
		return nil, err
	}
	return JSONField(b), nil
}

// keysFromJSON unmarshals a JSONField back into a key batch.
func keysFromJSON(j JSONField) ([]string, error) {
	var keys []string
	if len(j) == 0 {
		return keys, nil
	}
	if err := json.Unmarshal(j, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}
