package cmd

import (
	"context"
	"errors"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/onsi/gomega"
	"github.com/relloyd/tableload/actions"
	"github.com/relloyd/tableload/config"
	"github.com/relloyd/tableload/constants"
)

func TestRunJobReportsRegistryFailure(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	defer func(l string) { logLevel = l }(logLevel)
	logLevel = "info"
	home := t.TempDir()
	o := runOptions{jobTitle: "FatoFechamento", notifyMode: "log", recipients: "ops@example.com"}
	load := func() (*config.ConnectionRegistry, *config.QueryRegistry, error) {
		return nil, nil, errors.New(`job "FatoFechamento" uses unknown connection "CUBO"`)
	}

	res := runJob(context.Background(), home, load, o)
	g.Expect(res.State).To(gomega.Equal(actions.JobFailed))
	g.Expect(res.History).To(gomega.Equal([]actions.JobState{actions.JobNotifying, actions.JobFailed}))

	logs, err := filepath.Glob(filepath.Join(home, constants.LogDirName, "FatoFechamento-*.log"))
	g.Expect(err).To(gomega.BeNil())
	g.Expect(logs).To(gomega.HaveLen(1))
	b, err := ioutil.ReadFile(logs[0])
	g.Expect(err).To(gomega.BeNil())
	g.Expect(string(b)).To(gomega.ContainSubstring("Notification for ops@example.com: Execution report for job"))
	g.Expect(string(b)).To(gomega.ContainSubstring("uses unknown connection"))
}

func TestRunJobRejectsUnknownNotifyMode(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	defer func(l string) { logLevel = l }(logLevel)
	logLevel = "info"
	o := runOptions{jobTitle: "FatoFechamento", notifyMode: "pager"}
	res := runJob(context.Background(), t.TempDir(), func() (*config.ConnectionRegistry, *config.QueryRegistry, error) {
		t.Fatal("registries must not load without a notifier")
		return nil, nil, nil
	}, o)
	g.Expect(res.Failed()).To(gomega.BeTrue())
	g.Expect(res.Err.Error()).To(gomega.ContainSubstring("unsupported notify mode"))
}
