package actions

import (
	"fmt"
	"io"
	"strings"

	"github.com/relloyd/tableload/config"
)

// JobLister is satisfied by config.QueryRegistry.
type JobLister interface {
	QueryLookup
	Titles() []string
}

type jobSummary struct {
	Connection       string   `json:"connection"`
	Kind             string   `json:"kind"`
	TargetConnection string   `json:"targetConnection,omitempty"`
	TargetTable      string   `json:"targetTable,omitempty"`
	Schedule         string   `json:"schedule,omitempty"`
	Recipients       []string `json:"recipients,omitempty"`
}

func summariseJob(d config.QueryDefinition) jobSummary {
	return jobSummary{
		Connection:       d.ConnectionName,
		Kind:             d.Kind.String(),
		TargetConnection: d.Target.Connection,
		TargetTable:      d.Target.Table,
		Schedule:         d.Schedule,
		Recipients:       d.Recipients,
	}
}

// RunJobsList prints the jobs in the registry, sorted by title.
func RunJobsList(jobs JobLister, format string, w io.Writer) error {
	w = stdoutIfNil(w)
	all := make(map[string]jobSummary)
	for _, t := range jobs.Titles() {
		d, _ := jobs.Lookup(t)
		s := summariseJob(d)
		if format == OutputFormatText {
			fmt.Fprintf(w, "%v: %v query on %v -> %v:%v", t, s.Kind, s.Connection, s.TargetConnection, s.TargetTable)
			if s.Schedule != "" {
				fmt.Fprintf(w, " (schedule %q)", s.Schedule)
			}
			if len(s.Recipients) > 0 {
				fmt.Fprintf(w, " notify %v", strings.Join(s.Recipients, ","))
			}
			fmt.Fprintln(w)
			continue
		}
		all[t] = s
	}
	if format == OutputFormatText {
		return nil
	}
	return writeYamlOrJson(w, all, format)
}
