package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func sprintfReportKey(specName string) string {
	return fmt.Sprintf(reportKeyPattern, specName)
}

// writeJSONBytes writes an already-encoded JSON document verbatim,
// since every artifact this server serves is already a JSON blob on
// disk and re-decoding it just to re-encode it would be wasted work.
func writeJSONBytes(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func writeJSONKeys(w http.ResponseWriter, keys []string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"reports": keys})
}
