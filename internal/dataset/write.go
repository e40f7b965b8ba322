// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/pdiddy/scatterscope/pkg/types"
)

// EncodeTable writes table as an indented id -> record object in
// identifier order. keys gives the property order for a record; when nil,
// or when it returns nil, properties are written sorted by name.
func EncodeTable(w io.Writer, table *types.Table, keys func(id string, rec types.Record) []string) error {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range table.IDs {
		if i > 0 {
			buf.WriteByte(',')
		}
		rec := table.Rows[id]
		var order []string
		if keys != nil {
			order = keys(id, rec)
		}
		if order == nil {
			order = sortedKeys(rec)
		}
		if err := writeKey(&buf, id); err != nil {
			return err
		}
		if err := writeRecord(&buf, rec, order); err != nil {
			return fmt.Errorf("record %s: %w", id, err)
		}
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err := out.WriteTo(w)
	return err
}

func writeRecord(buf *bytes.Buffer, rec types.Record, order []string) error {
	buf.WriteByte('{')
	n := 0
	for _, k := range order {
		v, ok := rec[k]
		if !ok {
			continue
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		if err := writeKey(buf, k); err != nil {
			return err
		}
		data, err := v.MarshalJSON()
		if err != nil {
			return fmt.Errorf("property %s: %w", k, err)
		}
		buf.Write(data)
	}
	buf.WriteByte('}')
	return nil
}

func writeKey(buf *bytes.Buffer, k string) error {
	data, err := json.Marshal(k)
	if err != nil {
		return err
	}
	buf.Write(data)
	buf.WriteByte(':')
	return nil
}

func sortedKeys(rec types.Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// WriteJSON writes v as indented JSON to dir/name.
func WriteJSON(dir, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// WriteLastUpdated records t as the fetch time of the dataset in dir.
func WriteLastUpdated(dir string, t time.Time) error {
	return WriteJSON(dir, LastUpdatedFile, map[string]string{
		"timestamp": t.UTC().Format(time.RFC3339Nano),
	})
}

// ReadLastUpdated returns the fetch time recorded in dir.
func ReadLastUpdated(dir string) (time.Time, error) {
	f, err := os.Open(filepath.Join(dir, LastUpdatedFile))
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()
	return decodeTimestamp(f)
}

// WriteDir writes the record and category tables, and the fetch time when
// known, to dir. keys is passed to EncodeTable.
func WriteDir(dir string, ds *Dataset, keys func(id string, rec types.Record) []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	var buf bytes.Buffer
	if err := EncodeTable(&buf, ds.Table, keys); err != nil {
		return fmt.Errorf("encoding %s: %w", TickerInfoFile, err)
	}
	if err := os.WriteFile(filepath.Join(dir, TickerInfoFile), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", TickerInfoFile, err)
	}

	cats := ds.Categories
	if cats == nil {
		cats = types.CategoryTable{}
	}
	if err := WriteJSON(dir, SectorInfoFile, cats); err != nil {
		return err
	}
	if len(ds.Financials) > 0 {
		if err := WriteJSON(dir, FinancialsFile, ds.Financials); err != nil {
			return err
		}
	}
	if !ds.UpdatedAt.IsZero() {
		return WriteLastUpdated(dir, ds.UpdatedAt)
	}
	return nil
}
