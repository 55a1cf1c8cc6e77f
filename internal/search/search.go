// Package search finds tasks by their text with a full-text index.
//
// The index lives in memory and is built from a snapshot of the collection,
// so it never becomes a second source of truth.
package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"simpletodo/internal/service"
)

// taskDocument is the indexed form of a task.
type taskDocument struct {
	Text   string `json:"text"`
	IsDone bool   `json:"isDone"`
}

// Options narrows a search.
type Options struct {
	// Status is "", "open" or "done".
	Status string

	// Limit caps the number of hits. Zero means no cap.
	Limit int
}

// Index is a full-text index over a task snapshot.
type Index struct {
	index bleve.Index
	tasks map[string]service.Task
}

func buildMapping() mapping.IndexMapping {
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name

	doneField := bleve.NewBooleanFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("text", textField)
	doc.AddFieldMappingsAt("isDone", doneField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = standard.Name
	return m
}

// Build indexes tasks.
func Build(tasks []service.Task) (*Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	batch := idx.NewBatch()
	byID := make(map[string]service.Task, len(tasks))
	for _, t := range tasks {
		key := t.ID.String()
		byID[key] = t
		if err := batch.Index(key, taskDocument{Text: t.Text, IsDone: t.IsDone}); err != nil {
			idx.Close()
			return nil, fmt.Errorf("index task %s: %w", key, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return nil, fmt.Errorf("index batch: %w", err)
	}
	return &Index{index: idx, tasks: byID}, nil
}

// Find returns tasks matching text, best match first. Each term may match
// exactly, by prefix or with one typo.
func (ix *Index) Find(text string, opts Options) ([]service.Task, error) {
	terms := strings.Fields(strings.ToLower(text))
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: search query required", service.ErrInvalidArgument)
	}

	var must []query.Query
	for _, term := range terms {
		exact := bleve.NewMatchQuery(term)
		exact.SetField("text")
		exact.SetBoost(2)

		fuzzy := bleve.NewFuzzyQuery(term)
		fuzzy.SetField("text")
		fuzzy.SetFuzziness(1)

		prefix := bleve.NewPrefixQuery(term)
		prefix.SetField("text")

		must = append(must, bleve.NewDisjunctionQuery(exact, fuzzy, prefix))
	}

	switch opts.Status {
	case "":
	case "open", "done":
		status := bleve.NewBoolFieldQuery(opts.Status == "done")
		status.SetField("isDone")
		must = append(must, status)
	default:
		return nil, fmt.Errorf("%w: unknown status %q", service.ErrInvalidArgument, opts.Status)
	}

	size := opts.Limit
	if size <= 0 {
		size = len(ix.tasks)
	}
	if size == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(must...), size, 0, false)
	res, err := ix.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := make([]service.Task, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if t, ok := ix.tasks[hit.ID]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// Close releases the index.
func (ix *Index) Close() error {
	return ix.index.Close()
}

// Find builds a throwaway index over tasks and runs one query.
func Find(tasks []service.Task, text string, opts Options) ([]service.Task, error) {
	ix, err := Build(tasks)
	if err != nil {
		return nil, err
	}
	defer ix.Close()
	return ix.Find(text, opts)
}
