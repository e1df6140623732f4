package file

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/tableload/helper"
	"github.com/relloyd/tableload/logger"
	"github.com/relloyd/tableload/stream"
)

// CSVFileOutput writes records to CSV files in a directory, starting a new file every maxFileRows rows.
type CSVFileOutput struct {
	log               logger.Logger
	directory         string
	prefix            string
	extension         string
	headerRecord      []string
	currentSuffixID   int
	file              *os.File
	gzWriter          *gzip.Writer
	bufWriter         *bufio.Writer
	csvWriter         *csv.Writer
	useGzip           bool
	maxFileRows       int
	currentRowCount   int
	TotalRowCount     int
	ListOfOutputFiles []string
}

var gzipExtRegexp = regexp.MustCompile(`^(.*?)(\.*)(?i)(gzip|gz){0,}$`)

// NewCSVFileOutput creates the output directory if required.
// Set maxFileRows to 0 to write a single file. Setting useGzip makes the extension end with ".gz".
func NewCSVFileOutput(log logger.Logger, outputDirectory string, fileNamePrefix string, fileNameExtension string, maxFileRows int, useGzip bool) (*CSVFileOutput, error) {
	if outputDirectory == "" {
		return nil, errors.New("missing output directory for CSV files")
	}
	if err := os.MkdirAll(outputDirectory, 0755); err != nil {
		return nil, errors.Wrapf(err, "unable to create output directory %v", outputDirectory)
	}
	f := &CSVFileOutput{
		log:         log,
		directory:   outputDirectory,
		prefix:      fileNamePrefix,
		extension:   strings.TrimLeft(fileNameExtension, "."),
		maxFileRows: maxFileRows,
		useGzip:     useGzip,
	}
	if useGzip {
		f.extension = strings.TrimLeft(gzipExtRegexp.ReplaceAllString(f.extension, "$1.gz"), ".")
	}
	log.Debug("CSVFileOutput file prefix=", f.prefix, "; extension=", f.extension, "; maxFileRows=", f.maxFileRows, "; useGzip=", f.useGzip)
	return f, nil
}

// SetHeader will store the supplied record for output at the top of each created CSV file.
func (f *CSVFileOutput) SetHeader(record []string) {
	f.headerRecord = record
}

// Write writes record, rotating to a new file first if required.
func (f *CSVFileOutput) Write(record []string) error {
	if f.csvWriter == nil || (f.maxFileRows > 0 && f.currentRowCount >= f.maxFileRows) {
		if err := f.rotate(); err != nil {
			return err
		}
	}
	if err := f.csvWriter.Write(record); err != nil {
		return errors.Wrapf(err, "unable to write to CSV file %v", f.file.Name())
	}
	f.currentRowCount++
	f.TotalRowCount++
	return nil
}

// Close flushes and closes the current file.
func (f *CSVFileOutput) Close() error {
	if f.csvWriter == nil {
		return nil
	}
	f.csvWriter.Flush()
	if err := f.csvWriter.Error(); err != nil {
		return err
	}
	if f.useGzip {
		if err := f.bufWriter.Flush(); err != nil {
			return err
		}
		if err := f.gzWriter.Close(); err != nil {
			return err
		}
	}
	err := f.file.Close()
	f.csvWriter = nil
	return err
}

func (f *CSVFileOutput) rotate() error {
	if err := f.Close(); err != nil {
		return err
	}
	f.currentSuffixID++
	name := filepath.Join(f.directory, fmt.Sprintf("%v_%06d.%v", f.prefix, f.currentSuffixID, f.extension))
	f.log.Info("Creating new CSV file '", name, "'")
	file, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "unable to create CSV file %v", name)
	}
	f.file = file
	var w io.Writer = file
	if f.useGzip {
		f.gzWriter = gzip.NewWriter(file)
		f.bufWriter = bufio.NewWriter(f.gzWriter)
		w = f.bufWriter
	}
	f.csvWriter = csv.NewWriter(w)
	f.currentRowCount = 0
	f.ListOfOutputFiles = append(f.ListOfOutputFiles, name)
	if f.headerRecord != nil {
		if err := f.csvWriter.Write(f.headerRecord); err != nil {
			return errors.Wrap(err, "unable to write CSV header")
		}
	}
	return nil
}

// WriteDataset writes the column names then every row of ds.
// An empty dataset still produces one file holding the header.
func (f *CSVFileOutput) WriteDataset(ds *stream.Dataset) error {
	f.SetHeader(ds.ColumnNames())
	if ds.IsEmpty() {
		if err := f.rotate(); err != nil {
			return err
		}
	}
	for i := 0; i < ds.NumRows(); i++ {
		if err := f.Write(RowToStrings(ds.Row(i))); err != nil {
			return err
		}
	}
	return f.Close()
}

// WriteDatasetCSV writes ds to w as a single CSV document.
func WriteDatasetCSV(w io.Writer, ds *stream.Dataset, printHeader bool) error {
	cw := csv.NewWriter(w)
	if printHeader {
		if err := cw.Write(ds.ColumnNames()); err != nil {
			return err
		}
	}
	for i := 0; i < ds.NumRows(); i++ {
		if err := cw.Write(RowToStrings(ds.Row(i))); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RowToStrings renders each value; NULL becomes an empty string.
func RowToStrings(row []interface{}) []string {
	s := make([]string, len(row))
	for i, v := range row {
		str, err := helper.GetStringFromInterface(v, false)
		if err != nil { // types without a canonical format e.g. uuid...
			str = fmt.Sprint(v)
		}
		s[i] = str
	}
	return s
}
