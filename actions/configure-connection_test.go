package actions

import (
	"bytes"
	"testing"

	"github.com/onsi/gomega"
	"github.com/relloyd/tableload/config"
	"github.com/relloyd/tableload/rdbms/shared"
)

func TestRunConnectionAddListRemove(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	buf := &bytes.Buffer{}
	f := config.NewFile(config.NewPlainFile(t.TempDir(), "connections.yaml"))
	cfg := &ConnectionConfig{
		ConfigFile: f,
		Spec: shared.ConnectionSpec{
			LogicalName: "SPSVSQL39", Kind: "relational", Server: "SPSVSQL39", Database: "DW",
			Username: "etl", Password: "secret",
		},
		Stdout: buf,
	}
	g.Expect(RunConnectionAdd(cfg)).To(gomega.Succeed())
	g.Expect(buf.String()).To(gomega.ContainSubstring(`Connection "SPSVSQL39" added`))

	// A second add needs force.
	g.Expect(RunConnectionAdd(cfg)).NotTo(gomega.Succeed())
	cfg.Force = true
	cfg.Spec.Database = "DW2"
	g.Expect(RunConnectionAdd(cfg)).To(gomega.Succeed())

	buf.Reset()
	cfg.Output = OutputFormatYaml
	g.Expect(RunConnectionList(cfg)).To(gomega.Succeed())
	g.Expect(buf.String()).To(gomega.ContainSubstring("database: DW2"))
	g.Expect(buf.String()).To(gomega.ContainSubstring("password: xxxxx"))
	g.Expect(buf.String()).NotTo(gomega.ContainSubstring("secret"))

	buf.Reset()
	cfg.Output = OutputFormatText
	g.Expect(RunConnectionList(cfg)).To(gomega.Succeed())
	g.Expect(buf.String()).To(gomega.HavePrefix("SPSVSQL39:\n  kind = relational"))
	g.Expect(buf.String()).NotTo(gomega.ContainSubstring("secret"))

	g.Expect(RunConnectionRemove(cfg)).To(gomega.Succeed())
	g.Expect(RunConnectionRemove(cfg)).NotTo(gomega.Succeed())
}

func TestRunConnectionAddValidates(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	f := config.NewFile(config.NewPlainFile(t.TempDir(), "connections.yaml"))
	err := RunConnectionAdd(&ConnectionConfig{ConfigFile: f, Spec: shared.ConnectionSpec{LogicalName: "OLAP", Kind: "cube"}, Stdout: &bytes.Buffer{}})
	g.Expect(err).To(gomega.HaveOccurred())
	keys, err := f.GetAllKeys()
	g.Expect(err).To(gomega.BeNil())
	g.Expect(keys).To(gomega.BeEmpty())
}
