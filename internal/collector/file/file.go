package file

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/identity-leak/internal/files"
	"github.com/scan-io-git/identity-leak/pkg/signal"
)

const Name = "file"

// Collector replays raw records from a JSON file. The file holds either an array of raw
// records or a previous report, whose signals are read back.
type Collector struct {
	path   string
	logger hclog.Logger
}

func New(path string, logger hclog.Logger) *Collector {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Collector{path: path, logger: logger}
}

func (c *Collector) Name() string { return Name }

func (c *Collector) Collect(ctx context.Context, _ string) ([]signal.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var payload json.RawMessage
	if err := files.ReadJSON(c.path, &payload); err != nil {
		return nil, err
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(payload, &elems); err == nil {
		records := decodeRecords(elems)
		c.logger.Debug("loaded raw records", "path", c.path, "records", len(records))
		return records, nil
	}

	var report struct {
		Signals []json.RawMessage `json:"signals"`
	}
	if err := json.Unmarshal(payload, &report); err != nil || report.Signals == nil {
		return nil, fmt.Errorf("%s holds neither a record array nor a report", c.path)
	}
	records := expandSources(decodeRecords(report.Signals))
	c.logger.Debug("loaded report signals", "path", c.path, "signals", len(report.Signals), "records", len(records))
	return records, nil
}

// decodeRecords decodes each element on its own. Elements that are not JSON objects become
// nil records, which the normalizer counts as skipped.
func decodeRecords(elems []json.RawMessage) []signal.Raw {
	records := make([]signal.Raw, len(elems))
	for i, elem := range elems {
		var rec signal.Raw
		if err := json.Unmarshal(elem, &rec); err == nil {
			records[i] = rec
		}
	}
	return records
}

// expandSources turns every signal with several sources into one record per source, so the
// provenance survives another normalization pass.
func expandSources(signals []signal.Raw) []signal.Raw {
	out := make([]signal.Raw, 0, len(signals))
	for _, s := range signals {
		if s == nil {
			out = append(out, nil)
			continue
		}
		sources, _ := s["sources"].([]any)
		if len(sources) == 0 {
			out = append(out, s)
			continue
		}
		for _, src := range sources {
			rec := make(signal.Raw, len(s))
			for k, v := range s {
				if k != "sources" {
					rec[k] = v
				}
			}
			rec["source"] = src
			out = append(out, rec)
		}
	}
	return out
}
