package main

import (
	"testing"

	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/pkg/models"
)

func TestParseFailOn(t *testing.T) {
	tests := []struct {
		in      string
		want    models.Category
		wantErr bool
	}{
		{"none", models.Clean, false},
		{"suspicious", models.Suspicious, false},
		{"MALICIOUS", models.Malicious, false},
		{"always", models.Clean, true},
	}

	for _, tt := range tests {
		got, err := parseFailOn(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseFailOn(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseFailOn(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExitStatus(t *testing.T) {
	clean := models.NewScanResult("/media/usb")
	clean.Finalize(models.StatusCompleted)

	suspicious := models.NewScanResult("/media/usb")
	suspicious.AddSuspicious("/media/usb/a.pdf.exe", "double extension", models.SourceName)
	suspicious.Finalize(models.StatusCompleted)

	malicious := models.NewScanResult("/media/usb")
	malicious.AddMalicious("/media/usb/x.locky", "ransomware suffix", models.SourceName)
	malicious.Finalize(models.StatusCompleted)

	failed := models.NewScanResult("/missing")
	failed.Finalize(models.StatusFailed)

	tests := []struct {
		name      string
		result    *models.ScanResult
		threshold models.Category
		wantCode  int
	}{
		{"clean", clean, models.Malicious, 0},
		{"suspicious below threshold", suspicious, models.Malicious, 0},
		{"suspicious at threshold", suspicious, models.Suspicious, 1},
		{"malicious", malicious, models.Malicious, 1},
		{"malicious with suspicious threshold", malicious, models.Suspicious, 1},
		{"fail-on none", malicious, models.Clean, 0},
		{"failed scan", failed, models.Clean, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := exitStatus(tt.result, tt.threshold)
			code := 0
			if err != nil {
				ee, ok := err.(*exitError)
				if !ok {
					t.Fatalf("exitStatus() returned %T, want *exitError", err)
				}
				code = ee.code
			}
			if code != tt.wantCode {
				t.Errorf("exitStatus() code = %d, want %d", code, tt.wantCode)
			}
		})
	}
}
