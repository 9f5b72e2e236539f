// Package cli formats API responses for the hybridvdb command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/hybridvdb/internal/models"
	"github.com/hyperjump/hybridvdb/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// contentPreview is how many bytes of stored content a text result shows.
const contentPreview = 200

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("invalid output format %q (supported: text, json)", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes a search response to w in the given format.
func WriteSearchResults(w io.Writer, resp *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\nFound %d results in %.2fms (source: %s)\n", len(resp.IDs), resp.LatencyMs, resp.Source)
	fmt.Fprintf(w, "Anchor %d [%s]", resp.AnchorID, resp.AnchorType)
	if resp.PredictionHit {
		fmt.Fprint(w, " prediction hit")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
	for i, id := range resp.IDs {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		score := 0.0
		if i < len(resp.Scores) {
			score = resp.Scores[i]
		}
		fmt.Fprintf(w, "Rank: %d | Score: %.4f | ID: %s\n", i+1, score, id)
		if content := resp.Contents[id]; content != "" {
			fmt.Fprintf(w, "\n%s\n", utils.Truncate(content, contentPreview))
		}
		fmt.Fprintln(w)
	}
	m := resp.Metrics
	fmt.Fprintf(w, "Queries: %d | Local hit rate: %.1f%% | Prediction accuracy: %.1f%% | Avg latency: %.2fms\n",
		m.TotalQueries, m.LocalHitRate*100, m.PredictionAccuracy*100, m.AvgLatencyMs)
	return nil
}

// WriteStatus writes a status report to w in the given format.
func WriteStatus(w io.Writer, st *models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	p := st.Partitions
	fmt.Fprintf(w, "Index type:     %s\n", p.IndexType)
	fmt.Fprintf(w, "Hot:            %d / %d\n", p.HotSize, p.HotCapacity)
	fmt.Fprintf(w, "Permanent:      %d / %d\n", p.PermanentSize, p.PermanentCapacity)
	fmt.Fprintf(w, "Dynamic:        %d / %d\n", p.DynamicSize, p.DynamicCapacity)
	fmt.Fprintf(w, "Anchors:        %d\n", st.Anchors)
	fmt.Fprintf(w, "Clusters:       %d\n", st.Clusters)
	fmt.Fprintf(w, "Documents:      %d\n", st.Documents)
	fmt.Fprintf(w, "Disk usage:     %d bytes\n", st.DiskUsageBytes)
	fmt.Fprintf(w, "Remote:         %s\n", st.RemoteProvider)
	fmt.Fprintf(w, "Dimensions:     %d\n", st.EmbeddingDimensions)
	fmt.Fprintf(w, "Queries:        %d (local %d, cloud %d)\n", st.Metrics.TotalQueries, st.Metrics.LocalHits, st.Metrics.CloudHits)
	return nil
}

// WriteMaintenance writes a maintenance result to w in the given format.
func WriteMaintenance(w io.Writer, res *models.MaintenanceResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "Removed %d anchors and %d clusters; %d anchors and %d clusters remain\n",
		res.AnchorsRemoved, res.ClustersRemoved, res.Anchors, res.Clusters)
	return nil
}

// WriteIngest writes an ingest result to w in the given format.
func WriteIngest(w io.Writer, res *models.IngestResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "Ingested %d files (%d chunks) from %s\n", res.Files, res.Chunks, res.Path)
	return nil
}
