package tabledefinition

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/onsi/gomega"
	"github.com/relloyd/tableload/logger"
	"github.com/relloyd/tableload/stream"
)

func quoteBrackets(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func TestConvertColumnsToSqlServer(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	log := logger.NewLogger("tableload", "error", false)
	cols := []stream.Column{
		{Name: "Id", Type: stream.FieldType{DatabaseType: "INT", HasNullable: true, Nullable: false}},
		{Name: "Name", Type: stream.FieldType{DatabaseType: "NVARCHAR", HasLength: true, Length: 100, HasNullable: true, Nullable: true}},
		{Name: "Amount", Type: stream.FieldType{DatabaseType: "DECIMAL", HasPrecisionScale: true, Precision: 18, Scale: 2}},
		{Name: "[Measures].[Value]", Type: stream.FieldType{ScanType: reflect.TypeOf(float64(0))}},
		{Name: "When", Type: stream.FieldType{ScanType: reflect.TypeOf(time.Time{})}},
		{Name: "Shape", Type: stream.FieldType{DatabaseType: "GEOGRAPHY"}},
	}
	tc, err := ConvertColumnsToSqlServer(log, NewSqlServerDataTypeMapper(), "dbo", "Fact", cols)
	g.Expect(err).To(gomega.BeNil())
	g.Expect(tc.Columns).To(gomega.Equal([]TableColumn{
		{ColName: "Id", DataType: "int", Nullable: false},
		{ColName: "Name", DataType: "nvarchar(100)", Nullable: true},
		{ColName: "Amount", DataType: "decimal(18,2)", Nullable: true},
		{ColName: "[Measures].[Value]", DataType: "float(53)", Nullable: true},
		{ColName: "When", DataType: "datetime2", Nullable: true},
		{ColName: "Shape", DataType: "nvarchar(max)", Nullable: true},
	}))

	_, err = ConvertColumnsToSqlServer(log, NewSqlServerDataTypeMapper(), "dbo", "Fact", nil)
	g.Expect(err).To(gomega.HaveOccurred())
	_, err = ConvertColumnsToSqlServer(log, NewSqlServerDataTypeMapper(), "dbo", "", cols)
	g.Expect(err).To(gomega.HaveOccurred())
}

func TestBuildCreateTableIfMissing(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	tc := TableColumns{
		Owner:     "dbo",
		TableName: "Fact'V2",
		Columns: []TableColumn{
			{ColName: "Id", DataType: "int", Nullable: false},
			{ColName: "[Measures].[Value]", DataType: "float(53)", Nullable: true},
		},
	}
	ddl, err := BuildCreateTableIfMissing(tc, quoteBrackets)
	g.Expect(err).To(gomega.BeNil())
	g.Expect(ddl).To(gomega.Equal(
		"IF OBJECT_ID(N'[dbo].[Fact''V2]', N'U') IS NULL CREATE TABLE [dbo].[Fact'V2] " +
			"( [Id] int NOT NULL, [[Measures]].[Value]]] float(53) NULL )"))

	_, err = BuildCreateTableIfMissing(TableColumns{TableName: "x"}, quoteBrackets)
	g.Expect(err).To(gomega.HaveOccurred())
}

func TestBuildDropTableIfExists(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	g.Expect(BuildDropTableIfExists("dbo", "FatoFechamento_v2", quoteBrackets)).To(gomega.Equal("DROP TABLE IF EXISTS [dbo].[FatoFechamento_v2]"))
	g.Expect(BuildDropTableIfExists("", "T", quoteBrackets)).To(gomega.Equal("DROP TABLE IF EXISTS [T]"))
}

func TestMapScanType(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	g.Expect(mapScanType(nil)).To(gomega.Equal("nvarchar(max)"))
	g.Expect(mapScanType(reflect.TypeOf(int64(0)))).To(gomega.Equal("bigint"))
	g.Expect(mapScanType(reflect.TypeOf(true))).To(gomega.Equal("bit"))
	g.Expect(mapScanType(reflect.TypeOf([]byte{}))).To(gomega.Equal("varbinary(max)"))
	g.Expect(mapScanType(reflect.TypeOf(""))).To(gomega.Equal("nvarchar(max)"))
	var tp *time.Time
	g.Expect(mapScanType(reflect.TypeOf(tp))).To(gomega.Equal("datetime2"))
}

func TestConvertColumnsWidensFixedWidthWithoutLength(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	log := logger.NewLogger("tableload", "error", false)
	cols := []stream.Column{
		{Name: "Code", Type: stream.FieldType{DatabaseType: "CHAR"}},
		{Name: "Label", Type: stream.FieldType{DatabaseType: "NCHAR", HasLength: true, Length: -1}},
		{Name: "Hash", Type: stream.FieldType{DatabaseType: "BINARY"}},
		{Name: "Wide", Type: stream.FieldType{DatabaseType: "WCHAR"}},
		{Name: "Flag", Type: stream.FieldType{DatabaseType: "CHAR", HasLength: true, Length: 1}},
		{Name: "Iso", Type: stream.FieldType{DatabaseType: "NCHAR", HasLength: true, Length: 3}},
		{Name: "Key", Type: stream.FieldType{DatabaseType: "BINARY", HasLength: true, Length: 16}},
	}
	tc, err := ConvertColumnsToSqlServer(log, NewSqlServerDataTypeMapper(), "dbo", "Fact", cols)
	g.Expect(err).To(gomega.BeNil())
	g.Expect(tc.Columns).To(gomega.Equal([]TableColumn{
		{ColName: "Code", DataType: "varchar(max)", Nullable: true},
		{ColName: "Label", DataType: "nvarchar(max)", Nullable: true},
		{ColName: "Hash", DataType: "varbinary(max)", Nullable: true},
		{ColName: "Wide", DataType: "nvarchar(max)", Nullable: true},
		{ColName: "Flag", DataType: "char(1)", Nullable: true},
		{ColName: "Iso", DataType: "nchar(3)", Nullable: true},
		{ColName: "Key", DataType: "binary(16)", Nullable: true},
	}))

	nz, err := ConvertColumnsToSqlServer(log, NewNetezzaToSqlServerDataTypeMapper(), "dbo", "Fact", []stream.Column{
		{Name: "Padded", Type: stream.FieldType{DatabaseType: "BPCHAR", HasLength: true, Length: 9000}},
	})
	g.Expect(err).To(gomega.BeNil())
	g.Expect(nz.Columns[0].DataType).To(gomega.Equal("varchar(max)"))
}
