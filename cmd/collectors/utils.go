package collectors

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/scan-io-git/identity-leak/internal/pipeline"
)

type entryView struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
}

func printJSON(w io.Writer, entries []pipeline.Entry) error {
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{Name: e.Name, Enabled: e.Enabled, Reason: e.Reason})
	}
	data, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return fmt.Errorf("error serializing JSON result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
