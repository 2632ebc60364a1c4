package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
)

const (
	apiUserAgent   = "DataAnalystAgent/1.0"
	apiRawChars    = 3000
	apiDatasetName = "api_data"
	maxAPIBody     = 32 << 20
)

// APIData is the result of FetchAPIData. A JSON array of objects is loaded
// as a dataset; anything else is returned in Data, truncated.
type APIData struct {
	URL        string  `json:"url"`
	StatusCode int     `json:"status_code"`
	Data       string  `json:"data,omitempty"`
	Loaded     *Loaded `json:"-"`
}

// FetchAPIData GETs a JSON endpoint. headersJSON, when set, must be a JSON
// object of extra request headers.
func (l *Loader) FetchAPIData(ctx context.Context, store *dataset.Store, url, headersJSON, name string) (*APIData, error) {
	headers := map[string]string{"User-Agent": apiUserAgent}
	if strings.TrimSpace(headersJSON) != "" {
		var extra map[string]string
		if err := json.Unmarshal([]byte(headersJSON), &extra); err != nil {
			return nil, errinfo.Invalid("headers must be a JSON object of strings: %v", err)
		}
		for k, v := range extra {
			headers[k] = v
		}
	}
	resp, err := l.get(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIBody))
	if err != nil {
		return nil, errinfo.External(err, "read response")
	}
	if !json.Valid(body) {
		return nil, errinfo.External(fmt.Errorf("response is not valid JSON"), "API request failed")
	}
	out := &APIData{URL: url, StatusCode: resp.StatusCode}

	header, records, ok := objectRows(body)
	if !ok {
		var compact bytes.Buffer
		if err := json.Compact(&compact, body); err != nil {
			return nil, errinfo.External(err, "API request failed")
		}
		out.Data = truncateRunes(compact.String(), apiRawChars)
		return out, nil
	}
	t, err := dataset.FromStrings(header, records)
	if err != nil {
		return nil, errinfo.Invalid("%v", err)
	}
	if name == "" {
		name = apiDatasetName
	}
	out.Loaded = register(store, name, t)
	return out, nil
}

// objectRows flattens a non-empty JSON array of objects into a header (keys
// in order of first appearance) and string records.
func objectRows(body []byte) ([]string, [][]string, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil || len(items) == 0 {
		return nil, nil, false
	}
	var header []string
	pos := map[string]int{}
	rows := make([]map[string]string, 0, len(items))
	for _, raw := range items {
		keys, vals, ok := orderedObject(raw)
		if !ok {
			return nil, nil, false
		}
		row := make(map[string]string, len(keys))
		for i, k := range keys {
			if _, seen := pos[k]; !seen {
				pos[k] = len(header)
				header = append(header, k)
			}
			row[k] = vals[i]
		}
		rows = append(rows, row)
	}
	records := make([][]string, len(rows))
	for r, row := range rows {
		rec := make([]string, len(header))
		for k, v := range row {
			rec[pos[k]] = v
		}
		records[r] = rec
	}
	return header, records, true
}

func orderedObject(raw json.RawMessage) (keys, vals []string, ok bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, nil, false
	}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, nil, false
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, nil, false
		}
		keys = append(keys, kt.(string))
		vals = append(vals, scalarString(v))
	}
	return keys, vals, true
}

// scalarString renders a JSON value as a cell: strings unquoted, null empty,
// nested values as compact JSON.
func scalarString(v json.RawMessage) string {
	s := strings.TrimSpace(string(v))
	switch {
	case s == "null":
		return ""
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(v, &str); err == nil {
			return str
		}
	case strings.HasPrefix(s, "{"), strings.HasPrefix(s, "["):
		var b bytes.Buffer
		if err := json.Compact(&b, v); err == nil {
			return b.String()
		}
	}
	return s
}
