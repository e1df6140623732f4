package actions

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/relloyd/tableload/file"
	"github.com/relloyd/tableload/logger"
	"github.com/relloyd/tableload/stream"
)

type QueryConfig struct {
	Log         logger.Logger
	JobTitle    string `errorTxt:"job title" mandatory:"yes"`
	Queries     QueryLookup
	Connections ConnectionResolver
	Fetcher     DatasetFetcher
	Output      string // csv, json or yaml
	OutputDir   string // write CSV files here instead of stdout
	MaxFileRows int
	PrintHeader bool
	DryRun      bool
	Stdout      io.Writer
}

// RunQuery fetches the dataset of a job without loading it anywhere.
func RunQuery(ctx context.Context, cfg *QueryConfig) error {
	w := stdoutIfNil(cfg.Stdout)
	def, ok := cfg.Queries.Lookup(cfg.JobTitle)
	if !ok {
		return &NoDataReturnedError{Job: cfg.JobTitle, Reason: "job not found in the query registry"}
	}
	if cfg.DryRun {
		_, err := fmt.Fprintln(w, strings.TrimSpace(def.QueryText))
		return err
	}
	h, err := cfg.Connections.Resolve(ctx, def.ConnectionName)
	if err != nil {
		return err
	}
	defer func() {
		if err := h.Close(); err != nil {
			cfg.Log.Warn("Error closing connection ", def.ConnectionName, ": ", err)
		}
	}()
	ds, err := cfg.Fetcher.Fetch(ctx, h, def.QueryText, def.Kind)
	if err != nil {
		return err
	}
	switch cfg.Output {
	case OutputFormatCsv, OutputFormatText:
		if cfg.OutputDir == "" {
			return file.WriteDatasetCSV(w, ds, cfg.PrintHeader)
		}
		out, err := file.NewCSVFileOutput(cfg.Log, cfg.OutputDir, def.Title, "csv", cfg.MaxFileRows, false)
		if err != nil {
			return err
		}
		if err := out.WriteDataset(ds); err != nil {
			return err
		}
		for _, f := range out.ListOfOutputFiles {
			fmt.Fprintln(w, f)
		}
		return nil
	default:
		return writeYamlOrJson(w, datasetRecords(ds), cfg.Output)
	}
}

// datasetRecords converts rows to maps keyed by column name.
func datasetRecords(ds *stream.Dataset) []map[string]interface{} {
	names := ds.ColumnNames()
	recs := make([]map[string]interface{}, ds.NumRows())
	for i := range recs {
		row := ds.Row(i)
		m := make(map[string]interface{}, len(names))
		for j, n := range names {
			m[n] = row[j]
		}
		recs[i] = m
	}
	return recs
}
