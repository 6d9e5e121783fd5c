package engine

import (
	"context"
	"strings"
	"time"
)

// TuningEntry is the first tuning sub-entry attached to a work order. Only
// the first entry contributes searchable fields.
type TuningEntry struct {
	Stage           string `json:"stage"`
	ECUMaker        string `json:"ecu_maker"`
	ECUModel        string `json:"ecu_model"`
	SoftwareVersion string `json:"software_version"`
	HardwareVersion string `json:"hardware_version"`
	WorkDate        string `json:"work_date"`
}

// WorkOrderRecord is the raw record shape the engine indexes. The record
// source and the event consumer both produce it.
type WorkOrderRecord struct {
	ID            int64        `json:"id"`
	CustomerName  string       `json:"customer_name"`
	VehicleModel  string       `json:"vehicle_model"`
	LicenseNumber string       `json:"license_number"`
	EngineCode    string       `json:"engine_code"`
	WorkType      string       `json:"work_type"`
	Description   string       `json:"description"`
	Notes         string       `json:"notes"`
	Tuning        *TuningEntry `json:"tuning,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// RecordSource supplies the raw work orders to index, newest first.
type RecordSource interface {
	ListWorkOrders(ctx context.Context) ([]WorkOrderRecord, error)
}

// SearchableFields is the flat set of optional string attributes extracted
// from a work order. Empty fields contribute neither tokens nor score.
type SearchableFields struct {
	CustomerName    string `json:"customer_name,omitempty"`
	VehicleModel    string `json:"vehicle_model,omitempty"`
	LicenseNumber   string `json:"license_number,omitempty"`
	EngineCode      string `json:"engine_code,omitempty"`
	WorkType        string `json:"work_type,omitempty"`
	Description     string `json:"description,omitempty"`
	Notes           string `json:"notes,omitempty"`
	TuningStage     string `json:"tuning_stage,omitempty"`
	ECUMaker        string `json:"ecu_maker,omitempty"`
	ECUModel        string `json:"ecu_model,omitempty"`
	SoftwareVersion string `json:"software_version,omitempty"`
	HardwareVersion string `json:"hardware_version,omitempty"`
	WorkDate        string `json:"work_date,omitempty"`
}

// fieldNames lists every searchable field in content order. Scoring, field
// filtering, and highlighting all iterate this list so field traversal is
// deterministic.
var fieldNames = []string{
	"customerName",
	"vehicleModel",
	"licenseNumber",
	"engineCode",
	"workType",
	"description",
	"notes",
	"tuningStage",
	"ecuMaker",
	"ecuModel",
	"softwareVersion",
	"hardwareVersion",
	"workDate",
}

// fieldWeights holds the per-field scoring weights. Fields not listed score
// with defaultFieldWeight.
var fieldWeights = map[string]float64{
	"customerName":  5,
	"licenseNumber": 5,
	"vehicleModel":  4,
	"ecuMaker":      3,
	"ecuModel":      3,
	"workType":      2,
	"description":   1,
	"notes":         1,
}

const defaultFieldWeight = 1

// Value returns the named field's value, or "" for unknown names.
func (f SearchableFields) Value(name string) string {
	switch name {
	case "customerName":
		return f.CustomerName
	case "vehicleModel":
		return f.VehicleModel
	case "licenseNumber":
		return f.LicenseNumber
	case "engineCode":
		return f.EngineCode
	case "workType":
		return f.WorkType
	case "description":
		return f.Description
	case "notes":
		return f.Notes
	case "tuningStage":
		return f.TuningStage
	case "ecuMaker":
		return f.ECUMaker
	case "ecuModel":
		return f.ECUModel
	case "softwareVersion":
		return f.SoftwareVersion
	case "hardwareVersion":
		return f.HardwareVersion
	case "workDate":
		return f.WorkDate
	}
	return ""
}

// IndexedDocument is the unit of indexing: the extracted fields plus the
// tokens derived from them.
type IndexedDocument struct {
	ID        int64            `json:"id"`
	Content   string           `json:"content"`
	Fields    SearchableFields `json:"fields"`
	Keywords  []string         `json:"keywords"`
	NGrams    []string         `json:"ngrams"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// extractFields pulls the searchable attributes out of a work order,
// including the nested first tuning entry.
func extractFields(rec WorkOrderRecord) SearchableFields {
	fields := SearchableFields{
		CustomerName:  rec.CustomerName,
		VehicleModel:  rec.VehicleModel,
		LicenseNumber: rec.LicenseNumber,
		EngineCode:    rec.EngineCode,
		WorkType:      rec.WorkType,
		Description:   rec.Description,
		Notes:         rec.Notes,
	}
	if rec.Tuning != nil {
		fields.TuningStage = rec.Tuning.Stage
		fields.ECUMaker = rec.Tuning.ECUMaker
		fields.ECUModel = rec.Tuning.ECUModel
		fields.SoftwareVersion = rec.Tuning.SoftwareVersion
		fields.HardwareVersion = rec.Tuning.HardwareVersion
		fields.WorkDate = rec.Tuning.WorkDate
	}
	return fields
}

// buildContent joins the non-empty field values into the lower-cased
// search content.
func buildContent(fields SearchableFields) string {
	values := make([]string, 0, len(fieldNames))
	for _, name := range fieldNames {
		if v := fields.Value(name); v != "" {
			values = append(values, v)
		}
	}
	return strings.ToLower(strings.Join(values, " "))
}
