package actions

import (
	"bytes"
	"testing"

	"github.com/onsi/gomega"
	"github.com/relloyd/tableload/config"
	"github.com/relloyd/tableload/rdbms/shared"
)

func testJobRegistry() *config.QueryRegistry {
	return config.NewQueryRegistry(
		config.QueryDefinition{
			Title: "FatoFechamento", Kind: shared.QueryKindCube, ConnectionName: "CUBO",
			Target:     config.TargetDefinition{Connection: "DW", Table: "FatoFechamento_v2"},
			Schedule:   "0 6 * * *",
			Recipients: []string{"bi@example.com"},
		},
		config.QueryDefinition{
			Title: "Regioes", Kind: shared.QueryKindRelational, ConnectionName: "DW",
		},
	)
}

func TestRunJobsList(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	buf := &bytes.Buffer{}
	g.Expect(RunJobsList(testJobRegistry(), OutputFormatText, buf)).To(gomega.Succeed())
	g.Expect(buf.String()).To(gomega.Equal(
		`FatoFechamento: cube query on CUBO -> DW:FatoFechamento_v2 (schedule "0 6 * * *") notify bi@example.com` + "\n" +
			"Regioes: relational query on DW -> :\n"))

	buf.Reset()
	g.Expect(RunJobsList(testJobRegistry(), OutputFormatJson, buf)).To(gomega.Succeed())
	g.Expect(buf.String()).To(gomega.MatchJSON(`{
		"FatoFechamento": {"connection":"CUBO","kind":"cube","targetConnection":"DW","targetTable":"FatoFechamento_v2","schedule":"0 6 * * *","recipients":["bi@example.com"]},
		"Regioes": {"connection":"DW","kind":"relational"}
	}`))
}
