package file

import (
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/onsi/gomega"
	"github.com/relloyd/tableload/logger"
	"github.com/relloyd/tableload/stream"
)

func testDataset(t *testing.T) *stream.Dataset {
	ds, err := stream.NewDataset(
		[]stream.Column{{Name: "col1"}, {Name: "col2"}},
		[][]interface{}{
			{"Line1", int64(1)},
			{"Line2", nil},
			{"Line3", 2.5},
			{"Line4", true},
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ds
}

func readCSV(t *testing.T, name string, gz bool) [][]string {
	f, err := os.Open(name)
	if err != nil {
		t.Fatalf("unable to open %v: %v", name, err)
	}
	defer f.Close()
	var r *csv.Reader
	if gz {
		z, err := gzip.NewReader(f)
		if err != nil {
			t.Fatalf("unable to read gzip %v: %v", name, err)
		}
		r = csv.NewReader(z)
	} else {
		r = csv.NewReader(f)
	}
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("unable to read CSV %v: %v", name, err)
	}
	return records
}

func TestCSVFileOutputRotates(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	dir := t.TempDir()
	out, err := NewCSVFileOutput(logger.NewLogger("csv test", "error", false), dir, "test", "csv", 3, false)
	g.Expect(err).To(gomega.BeNil())

	g.Expect(out.WriteDataset(testDataset(t))).To(gomega.Succeed())
	g.Expect(out.ListOfOutputFiles).To(gomega.HaveLen(2))
	g.Expect(out.ListOfOutputFiles[0]).To(gomega.HaveSuffix("test_000001.csv"))
	g.Expect(out.TotalRowCount).To(gomega.Equal(4))

	g.Expect(readCSV(t, out.ListOfOutputFiles[0], false)).To(gomega.Equal([][]string{
		{"col1", "col2"}, {"Line1", "1"}, {"Line2", ""}, {"Line3", "2.5"},
	}))
	g.Expect(readCSV(t, out.ListOfOutputFiles[1], false)).To(gomega.Equal([][]string{
		{"col1", "col2"}, {"Line4", "true"},
	}))
}

func TestCSVFileOutputGzip(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	dir := t.TempDir()
	out, err := NewCSVFileOutput(logger.NewLogger("csv test", "error", false), dir, "test", ".gzip", 0, true)
	g.Expect(err).To(gomega.BeNil())

	g.Expect(out.WriteDataset(testDataset(t))).To(gomega.Succeed())
	g.Expect(out.ListOfOutputFiles).To(gomega.HaveLen(1))
	g.Expect(out.ListOfOutputFiles[0]).To(gomega.HaveSuffix("test_000001.gz"))
	g.Expect(readCSV(t, out.ListOfOutputFiles[0], true)).To(gomega.HaveLen(5))
}

func TestCSVFileOutputEmptyDatasetWritesHeader(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	dir := t.TempDir()
	out, err := NewCSVFileOutput(logger.NewLogger("csv test", "error", false), dir, "empty", "csv", 0, false)
	g.Expect(err).To(gomega.BeNil())

	g.Expect(out.WriteDataset(stream.NewEmptyDataset([]stream.Column{{Name: "a"}}))).To(gomega.Succeed())
	g.Expect(readCSV(t, out.ListOfOutputFiles[0], false)).To(gomega.Equal([][]string{{"a"}}))
}

func TestWriteDatasetCSV(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	buf := &bytes.Buffer{}
	g.Expect(WriteDatasetCSV(buf, testDataset(t), true)).To(gomega.Succeed())
	g.Expect(buf.String()).To(gomega.Equal("col1,col2\nLine1,1\nLine2,\nLine3,2.5\nLine4,true\n"))
}

func TestRowToStrings(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	ts := time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC)
	g.Expect(RowToStrings([]interface{}{ts.In(time.UTC), nil, []byte("x"), struct{ A int }{1}})).
		To(gomega.Equal([]string{"20240131T100000+0000", "", "x", "{1}"}))
}

func TestNewCSVFileOutputNeedsDirectory(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	_, err := NewCSVFileOutput(logger.NewLogger("csv test", "error", false), "", "x", "csv", 0, false)
	g.Expect(err).To(gomega.HaveOccurred())
}
