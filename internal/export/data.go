package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/metrics"
	"github.com/san-kum/loopsim/internal/sim"
)

type Document struct {
	ID      string         `json:"id,omitempty"`
	Config  *config.Config `json:"config"`
	Metrics metrics.Report `json:"metrics"`
	Steps   int            `json:"steps"`
	Result  *sim.Result    `json:"result"`
}

func NewDocument(id string, cfg *config.Config, report metrics.Report, res *sim.Result) Document {
	return Document{ID: id, Config: cfg, Metrics: report, Steps: res.Len(), Result: res}
}

func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// WriteCSV writes one row per sample with a header.
func WriteCSV(w io.Writer, res *sim.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "reference", "output", "error", "control"}); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for i := range res.Time {
		if err := cw.Write([]string{f(res.Time[i]), f(res.Reference[i]), f(res.Output[i]), f(res.Error[i]), f(res.Control[i])}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
