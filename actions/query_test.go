package actions

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/onsi/gomega"
	"github.com/relloyd/tableload/config"
	"github.com/relloyd/tableload/logger"
	"github.com/relloyd/tableload/rdbms"
	"github.com/relloyd/tableload/rdbms/shared"
	"github.com/relloyd/tableload/stream"
)

func newQueryConfig(t *testing.T, buf *bytes.Buffer) *QueryConfig {
	ds, err := stream.NewDataset(
		[]stream.Column{{Name: "Id"}, {Name: "Nome"}},
		[][]interface{}{{int64(1), "Norte"}, {int64(2), "Sul"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return &QueryConfig{
		Log:      logger.NewLogger("tableload", "error", false),
		JobTitle: "Regioes",
		Queries: fakeQueries{"Regioes": config.QueryDefinition{
			Title: "Regioes", QueryText: " select Id, Nome from dbo.Regiao \n", Kind: shared.QueryKindRelational, ConnectionName: "DW",
		}},
		Connections: &fakeResolver{handles: map[string]*rdbms.ConnectionHandle{
			"DW": {Kind: shared.KindRelational, Db: &nopConnector{}},
		}},
		Fetcher: &fakeFetcher{ds: ds},
		Stdout:  buf,
	}
}

func TestRunQueryCsv(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	buf := &bytes.Buffer{}
	cfg := newQueryConfig(t, buf)
	cfg.PrintHeader = true
	g.Expect(RunQuery(context.Background(), cfg)).To(gomega.Succeed())
	g.Expect(buf.String()).To(gomega.Equal("Id,Nome\n1,Norte\n2,Sul\n"))
}

func TestRunQueryJson(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	buf := &bytes.Buffer{}
	cfg := newQueryConfig(t, buf)
	cfg.Output = OutputFormatJson
	g.Expect(RunQuery(context.Background(), cfg)).To(gomega.Succeed())
	g.Expect(buf.String()).To(gomega.MatchJSON(`[{"Id":1,"Nome":"Norte"},{"Id":2,"Nome":"Sul"}]`))
}

func TestRunQueryYaml(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	buf := &bytes.Buffer{}
	cfg := newQueryConfig(t, buf)
	cfg.Output = OutputFormatYaml
	g.Expect(RunQuery(context.Background(), cfg)).To(gomega.Succeed())
	g.Expect(buf.String()).To(gomega.ContainSubstring("Nome: Norte"))
}

func TestRunQueryToDirectory(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	buf := &bytes.Buffer{}
	cfg := newQueryConfig(t, buf)
	cfg.OutputDir = t.TempDir()
	g.Expect(RunQuery(context.Background(), cfg)).To(gomega.Succeed())
	g.Expect(buf.String()).To(gomega.HaveSuffix("Regioes_000001.csv\n"))
}

func TestRunQueryDryRun(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	buf := &bytes.Buffer{}
	cfg := newQueryConfig(t, buf)
	cfg.DryRun = true
	g.Expect(RunQuery(context.Background(), cfg)).To(gomega.Succeed())
	g.Expect(buf.String()).To(gomega.Equal("select Id, Nome from dbo.Regiao\n"))
	g.Expect(cfg.Fetcher.(*fakeFetcher).calls).To(gomega.Equal(0))
}

func TestRunQueryUnknownJob(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	cfg := newQueryConfig(t, &bytes.Buffer{})
	cfg.JobTitle = "Missing"
	var noData *NoDataReturnedError
	g.Expect(errors.As(RunQuery(context.Background(), cfg), &noData)).To(gomega.BeTrue())
}

func TestRunQueryUnsupportedFormat(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	cfg := newQueryConfig(t, &bytes.Buffer{})
	cfg.Output = "xml"
	g.Expect(RunQuery(context.Background(), cfg)).NotTo(gomega.Succeed())
}
