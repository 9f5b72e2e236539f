package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/hybridvdb/internal/anchor"
	"github.com/hyperjump/hybridvdb/internal/metrics"
	"github.com/hyperjump/hybridvdb/internal/models"
	"github.com/hyperjump/hybridvdb/internal/tiered"
)

func sampleResponse() *models.SearchResponse {
	return &models.SearchResponse{
		RequestID:     "req-1",
		Query:         "test query",
		IDs:           []string{"doc_1", "doc_2"},
		Scores:        []float64{0.91, 0.55},
		Source:        metrics.SourceCloud,
		LatencyMs:     3.5,
		AnchorID:      1,
		AnchorType:    anchor.TypeWeak,
		PredictionHit: true,
		Contents:      map[string]string{"doc_1": strings.Repeat("x", 300)},
		Metrics:       metrics.Snapshot{TotalQueries: 4, LocalHitRate: 0.5},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	response := sampleResponse()
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, response, OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	var decoded models.SearchResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Query != response.Query || len(decoded.IDs) != 2 || decoded.IDs[0] != "doc_1" {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.AnchorType != anchor.TypeWeak || !decoded.PredictionHit {
		t.Errorf("anchor fields lost: %+v", decoded)
	}
}

func TestWriteSearchResults_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Found 2 results",
		"source: cloud",
		"prediction hit",
		"Rank: 1 | Score: 0.9100 | ID: doc_1",
		"Rank: 2 | Score: 0.5500 | ID: doc_2",
		strings.Repeat("x", 200) + "...",
		"Local hit rate: 50.0%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, strings.Repeat("x", 201)) {
		t.Error("content not truncated")
	}
}

func TestWriteSearchResults_Empty(t *testing.T) {
	var buf bytes.Buffer
	resp := &models.SearchResponse{Source: metrics.SourceLocal, AnchorType: anchor.TypeWeak}
	if err := WriteSearchResults(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Found 0 results") {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriteStatus(t *testing.T) {
	st := &models.Status{
		Partitions:     tiered.Stats{HotSize: 3, HotCapacity: 1000, IndexType: "memory"},
		Anchors:        2,
		Clusters:       1,
		RemoteProvider: "mock",
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, st, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"memory", "3 / 1000", "Anchors:        2", "Remote:         mock"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := WriteStatus(&buf, st, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.Status
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Partitions.HotSize != 3 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteMaintenanceAndIngest(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMaintenance(&buf, &models.MaintenanceResult{AnchorsRemoved: 1, Anchors: 4}, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Removed 1 anchors") {
		t.Errorf("got %q", buf.String())
	}

	buf.Reset()
	if err := WriteIngest(&buf, &models.IngestResponse{Path: "/docs", Files: 2, Chunks: 7}, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Ingested 2 files (7 chunks) from /docs") {
		t.Errorf("got %q", buf.String())
	}
}
