package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kennkash/delegated-groups/delegated"
)

// Source is one application's CSV export.
type Source struct {
	App  delegated.App
	Path string
}

// Expected columns. The upstream export also emits app and
// lower_group_name; app is cross-checked against the source, the
// precomputed lower column is ignored and re-derived.
var requiredColumns = []string{"user_name", "group_name", "source_type"}

func readRecords(path string) ([]delegated.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(stripUTF8BOM(bufio.NewReader(f)))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: missing header", path)
		}
		return nil, err
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, req := range requiredColumns {
		if _, ok := idx[req]; !ok {
			return nil, fmt.Errorf("%s: missing required column %q", path, req)
		}
	}

	var records []delegated.Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		field := func(name string) string {
			if i, ok := idx[name]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		records = append(records, delegated.Record{
			App:          field("app"),
			Username:     field("user_name"),
			Email:        field("email_address"),
			GroupName:    field("group_name"),
			SourceType:   field("source_type"),
			ViaGroupName: field("via_group_name"),
			DelegationID: field("delegation_id"),
		})
	}
	return records, nil
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}
