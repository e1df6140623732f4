package components

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/relloyd/tableload/logger"
	"github.com/relloyd/tableload/rdbms"
	"github.com/relloyd/tableload/rdbms/shared"
	"github.com/relloyd/tableload/stream"
)

type fakeCube struct {
	connString string
	statements []string
	result     *stream.Dataset
	err        error
}

func (c *fakeCube) Query(ctx context.Context, mdx string) (*stream.Dataset, error) {
	c.statements = append(c.statements, mdx)
	return c.result, c.err
}

func newFakeCubeFetcher(c *fakeCube) *DatasetFetcher {
	f := NewDatasetFetcher(logger.NewLogger("tableload", "error", false))
	f.NewCubeClient = func(log logger.Logger, connString string) (CubeQuerier, error) {
		c.connString = connString
		return c, nil
	}
	return f
}

func TestFetchRelational(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	db, mock, err := sqlmock.New()
	g.Expect(err).To(gomega.BeNil())
	mock.ExpectQuery("SELECT Id, Nome FROM dbo.Fato").
		WillReturnRows(sqlmock.NewRows([]string{"Id", "Nome"}).AddRow(int64(1), "a").AddRow(int64(2), "b"))
	h := &rdbms.ConnectionHandle{
		Spec: shared.ConnectionSpec{LogicalName: "SPSVSQL39"},
		Kind: shared.KindRelational,
		Db:   shared.NewHpConnection(db, shared.NewSqlServerDmlGenerator(), "sqlserver"),
	}

	ds, err := NewDatasetFetcher(logger.NewLogger("tableload", "error", false)).
		Fetch(context.Background(), h, "SELECT Id, Nome FROM dbo.Fato", shared.QueryKindRelational)
	g.Expect(err).To(gomega.BeNil())
	g.Expect(ds.ColumnNames()).To(gomega.Equal([]string{"Id", "Nome"}))
	g.Expect(ds.NumRows()).To(gomega.Equal(2))
	g.Expect(mock.ExpectationsWereMet()).To(gomega.Succeed())
}

func TestFetchRelationalEmptyIsNotAnError(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	db, mock, err := sqlmock.New()
	g.Expect(err).To(gomega.BeNil())
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"Id"}))
	h := &rdbms.ConnectionHandle{Kind: shared.KindCloudRelational, Db: shared.NewHpConnection(db, shared.NewSqlServerDmlGenerator(), "azuresql")}

	ds, err := NewDatasetFetcher(logger.NewLogger("tableload", "error", false)).
		Fetch(context.Background(), h, "SELECT Id FROM t", shared.QueryKindRelational)
	g.Expect(err).To(gomega.BeNil())
	g.Expect(ds.IsEmpty()).To(gomega.BeTrue())
	g.Expect(ds.NumColumns()).To(gomega.Equal(1))
}

func TestFetchRelationalFailure(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	db, mock, err := sqlmock.New()
	g.Expect(err).To(gomega.BeNil())
	mock.ExpectQuery("SELECT").WillReturnError(errors.New("Invalid object name 'dbo.Missing'"))
	h := &rdbms.ConnectionHandle{Kind: shared.KindRelational, Db: shared.NewHpConnection(db, shared.NewSqlServerDmlGenerator(), "sqlserver")}

	ds, err := NewDatasetFetcher(logger.NewLogger("tableload", "error", false)).
		Fetch(context.Background(), h, "SELECT * FROM dbo.Missing", shared.QueryKindRelational)
	g.Expect(ds).To(gomega.BeNil())
	var qe *QueryExecutionError
	g.Expect(errors.As(err, &qe)).To(gomega.BeTrue())
	g.Expect(qe.Kind).To(gomega.Equal("relational"))
	g.Expect(err.Error()).To(gomega.ContainSubstring("Invalid object name"))
}

func TestFetchCube(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	result, _ := stream.NewDataset([]stream.Column{{Name: "[Measures].[Sales]"}}, [][]interface{}{{1.5}})
	c := &fakeCube{result: result}
	h := &rdbms.ConnectionHandle{Kind: shared.KindCube, CubeConnString: "Data Source=https://olap/msmdpump.dll;Catalog=Vendas"}

	ds, err := newFakeCubeFetcher(c).Fetch(context.Background(), h, "SELECT [Measures].[Sales] ON 0 FROM [Vendas]", shared.QueryKindCube)
	g.Expect(err).To(gomega.BeNil())
	g.Expect(ds).To(gomega.Equal(result))
	g.Expect(c.connString).To(gomega.Equal(h.CubeConnString))
	g.Expect(c.statements).To(gomega.Equal([]string{"SELECT [Measures].[Sales] ON 0 FROM [Vendas]"}))
}

func TestFetchCubeFailure(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	c := &fakeCube{err: errors.New("Query (1, 8) Parser: syntax error")}
	h := &rdbms.ConnectionHandle{Kind: shared.KindCube}

	_, err := newFakeCubeFetcher(c).Fetch(context.Background(), h, "SELECT FROMM", shared.QueryKindCube)
	var qe *QueryExecutionError
	g.Expect(errors.As(err, &qe)).To(gomega.BeTrue())
	g.Expect(qe.Kind).To(gomega.Equal("cube"))
}

func TestFetchKindMismatch(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	c := &fakeCube{}
	h := &rdbms.ConnectionHandle{Kind: shared.KindCube}

	_, err := newFakeCubeFetcher(c).Fetch(context.Background(), h, "SELECT 1", shared.QueryKindRelational)
	g.Expect(err).To(gomega.HaveOccurred())
	g.Expect(c.statements).To(gomega.BeEmpty())
}
