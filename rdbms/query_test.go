package rdbms

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/onsi/gomega"
	"github.com/relloyd/tableload/logger"
	"github.com/relloyd/tableload/rdbms/shared"
)

func TestSqlQuery(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	log := logger.NewLogger("tableload", "error", false)
	db, mock, err := sqlmock.New()
	g.Expect(err).To(gomega.BeNil())
	conn := shared.NewHpConnection(db, shared.NewSqlServerDmlGenerator(), "sqlserver")

	rows := sqlmock.NewRowsWithColumnDefinition(
		mock.NewColumn("Id").OfType("INT", int64(0)).Nullable(false),
		mock.NewColumn("Name").OfType("NVARCHAR", "").WithLength(50).Nullable(true),
		mock.NewColumn("Amount").OfType("DECIMAL", []byte{}).WithPrecisionAndScale(18, 2),
		mock.NewColumn("Blob").OfType("VARBINARY", []byte{}).WithLength(16),
	).
		AddRow(int64(1), "a", []byte("1.50"), []byte{0x01}).
		AddRow(int64(2), nil, []byte("2.25"), nil)
	mock.ExpectQuery("select \\* from fact").WillReturnRows(rows)

	ds, err := SqlQuery(context.Background(), log, conn, "select * from fact")
	g.Expect(err).To(gomega.BeNil())
	g.Expect(ds.NumRows()).To(gomega.Equal(2))
	g.Expect(ds.ColumnNames()).To(gomega.Equal([]string{"Id", "Name", "Amount", "Blob"}))
	cols := ds.Columns()
	g.Expect(cols[0].Type.DatabaseType).To(gomega.Equal("INT"))
	g.Expect(cols[0].Type.HasNullable).To(gomega.BeTrue())
	g.Expect(cols[0].Type.Nullable).To(gomega.BeFalse())
	g.Expect(cols[0].Type.ScanType).To(gomega.Equal(reflect.TypeOf(int64(0))))
	g.Expect(cols[1].Type.Length).To(gomega.Equal(int64(50)))
	g.Expect(cols[2].Type.Precision).To(gomega.Equal(int64(18)))
	g.Expect(cols[2].Type.Scale).To(gomega.Equal(int64(2)))
	g.Expect(ds.Row(0)).To(gomega.Equal([]interface{}{int64(1), "a", "1.50", []byte{0x01}}))
	g.Expect(ds.Row(1)).To(gomega.Equal([]interface{}{int64(2), nil, "2.25", nil}))
	g.Expect(mock.ExpectationsWereMet()).To(gomega.Succeed())
}

func TestSqlQueryEmpty(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	log := logger.NewLogger("tableload", "error", false)
	db, mock, err := sqlmock.New()
	g.Expect(err).To(gomega.BeNil())
	conn := shared.NewHpConnection(db, shared.NewSqlServerDmlGenerator(), "sqlserver")
	mock.ExpectQuery("select").WillReturnRows(sqlmock.NewRows([]string{"a", "b"}))

	ds, err := SqlQuery(context.Background(), log, conn, "select a, b from t")
	g.Expect(err).To(gomega.BeNil())
	g.Expect(ds.IsEmpty()).To(gomega.BeTrue())
	g.Expect(ds.NumColumns()).To(gomega.Equal(2))
}

func TestSqlQueryError(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	log := logger.NewLogger("tableload", "error", false)
	db, mock, err := sqlmock.New()
	g.Expect(err).To(gomega.BeNil())
	conn := shared.NewHpConnection(db, shared.NewSqlServerDmlGenerator(), "sqlserver")
	mock.ExpectQuery("select").WillReturnError(fmt.Errorf("Invalid object name 'nope'"))

	ds, err := SqlQuery(context.Background(), log, conn, "select * from nope")
	g.Expect(ds).To(gomega.BeNil())
	g.Expect(err).To(gomega.HaveOccurred())
	g.Expect(err.Error()).To(gomega.ContainSubstring("Invalid object name"))
}
