// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lookup finds entities by symbol, name, sector, or industry so a
// user can add one to the tracked list without knowing its exact ticker.
package lookup

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/pdiddy/scatterscope/pkg/types"
)

// Entry is one searchable entity.
type Entry struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

// nameProperties are tried in order for an entity's display name.
var nameProperties = []string{"longName", "shortName", "displayName"}

// EntriesFromTable builds entries for every record in table order.
func EntriesFromTable(table *types.Table, cats types.CategoryTable) []Entry {
	entries := make([]Entry, 0, table.Len())
	for _, id := range table.IDs {
		e := Entry{Symbol: id, Sector: cats[id].Sector, Industry: cats[id].Industry}
		rec := table.Rows[id]
		for _, p := range nameProperties {
			if v := rec.Get(p); v.Kind == types.ValueString && v.Str != "" {
				e.Name = v.Str
				break
			}
		}
		entries = append(entries, e)
	}
	return entries
}

// Index is an in-memory full-text index of entries.
type Index struct {
	index bleve.Index
}

// NewIndex indexes entries in memory.
func NewIndex(entries []Entry) (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}

	batch := idx.NewBatch()
	for _, e := range entries {
		if err := batch.Index(e.Symbol, e); err != nil {
			idx.Close()
			return nil, fmt.Errorf("indexing %s: %w", e.Symbol, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return nil, fmt.Errorf("executing batch: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	entryMapping := bleve.NewDocumentMapping()

	for _, field := range []string{"symbol", "name", "sector", "industry"} {
		fm := bleve.NewTextFieldMapping()
		fm.Store = true
		fm.Index = true
		entryMapping.AddFieldMappingsAt(field, fm)
	}

	indexMapping.DefaultMapping = entryMapping
	return indexMapping
}

// Close releases the index.
func (i *Index) Close() error {
	return i.index.Close()
}

// Count returns the number of indexed entries.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}

// Search returns up to limit entries matching q, best first. An exact
// symbol match ranks above a symbol prefix, which ranks above name and
// category matches.
func (i *Index) Search(q string, limit int) ([]Entry, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Entry{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	lower := strings.ToLower(q)

	exact := bleve.NewTermQuery(lower)
	exact.SetField("symbol")
	exact.SetBoost(10.0)

	prefix := bleve.NewPrefixQuery(lower)
	prefix.SetField("symbol")
	prefix.SetBoost(5.0)

	name := bleve.NewMatchQuery(q)
	name.SetField("name")
	name.SetBoost(3.0)

	namePrefix := bleve.NewPrefixQuery(lower)
	namePrefix.SetField("name")
	namePrefix.SetBoost(1.5)

	sector := bleve.NewMatchQuery(q)
	sector.SetField("sector")

	industry := bleve.NewMatchQuery(q)
	industry.SetField("industry")

	queries := []query.Query{exact, prefix, name, namePrefix, sector, industry}
	if !strings.ContainsAny(lower, "*?") {
		wildcard := bleve.NewWildcardQuery("*" + lower + "*")
		wildcard.SetField("symbol")
		wildcard.SetBoost(2.0)
		queries = append(queries, wildcard)
	}

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(queries...))
	req.Fields = []string{"symbol", "name", "sector", "industry"}
	req.Size = limit

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", q, err)
	}

	out := make([]Entry, 0, len(res.Hits))
	for _, hit := range res.Hits {
		out = append(out, Entry{
			Symbol:   fieldString(hit.Fields, "symbol"),
			Name:     fieldString(hit.Fields, "name"),
			Sector:   fieldString(hit.Fields, "sector"),
			Industry: fieldString(hit.Fields, "industry"),
		})
	}
	return out, nil
}

func fieldString(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}
