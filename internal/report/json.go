package report

import (
	"encoding/json"

	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/pkg/models"
)

// JSONReport wraps scan results with a flattened findings list
type JSONReport struct {
	*models.ScanResult
	Findings []Finding `json:"findings"`
}

func renderJSON(result *models.ScanResult) ([]byte, error) {
	report := &JSONReport{
		ScanResult: result,
		Findings:   Findings(result),
	}

	return json.MarshalIndent(report, "", "  ")
}
