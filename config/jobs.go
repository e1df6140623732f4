package config

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/tableload/rdbms"
	"github.com/relloyd/tableload/rdbms/shared"
)

// JobDefinition is one entry of the jobs file, keyed by job title.
type JobDefinition struct {
	Connection string           `json:"connection" yaml:"connection" mapstructure:"connection"`
	Kind       string           `json:"kind,omitempty" yaml:"kind,omitempty" mapstructure:"kind"`
	Sql        string           `json:"sql,omitempty" yaml:"sql,omitempty" mapstructure:"sql"`
	SqlFile    string           `json:"sqlFile,omitempty" yaml:"sqlFile,omitempty" mapstructure:"sqlFile"`
	Target     TargetDefinition `json:"target" yaml:"target" mapstructure:"target"`
	Schedule   string           `json:"schedule,omitempty" yaml:"schedule,omitempty" mapstructure:"schedule"`
	Recipients []string         `json:"recipients,omitempty" yaml:"recipients,omitempty" mapstructure:"recipients"`
}

// TargetDefinition names the destination table of a job.
// Table may be qualified by schema, e.g. dbo.FatoFechamento_v2.
type TargetDefinition struct {
	Connection string `json:"connection" yaml:"connection" mapstructure:"connection"`
	Table      string `json:"table" yaml:"table" mapstructure:"table"`
}

// QueryDefinition is a resolved job: the query text is loaded and the connections are known to exist.
type QueryDefinition struct {
	Title          string
	QueryText      string
	Kind           shared.QueryKind
	ConnectionName string
	Target         TargetDefinition
	Schedule       string
	Recipients     []string
}

// NewQueryDefinition resolves j. A relative sqlFile is read from baseDir.
// The source connection, and the target connection if one is given, must exist in connections.
func NewQueryDefinition(title string, j JobDefinition, baseDir string, connections rdbms.ConnectionLookup) (QueryDefinition, error) {
	q := QueryDefinition{
		Title:          title,
		ConnectionName: j.Connection,
		Target:         j.Target,
		Schedule:       strings.TrimSpace(j.Schedule),
		Recipients:     j.Recipients,
	}
	if j.Connection == "" {
		return q, fmt.Errorf("job %q: missing connection", title)
	}
	spec, ok := connections.Lookup(j.Connection)
	if !ok {
		return q, fmt.Errorf("job %q: connection %q is not configured", title, j.Connection)
	}
	if j.Target.Connection != "" {
		if _, ok := connections.Lookup(j.Target.Connection); !ok {
			return q, fmt.Errorf("job %q: target connection %q is not configured", title, j.Target.Connection)
		}
	}
	// Resolve the query kind; default to the dialect of the connection.
	if j.Kind != "" {
		k, err := shared.ParseQueryKind(j.Kind)
		if err != nil {
			return q, errors.Wrapf(err, "job %q", title)
		}
		q.Kind = k
	} else {
		k, err := spec.GetKind()
		if err != nil {
			return q, errors.Wrapf(err, "job %q", title)
		}
		q.Kind = k.QueryKind()
	}
	// Resolve the query text.
	switch {
	case j.Sql != "" && j.SqlFile != "":
		return q, fmt.Errorf("job %q: supply sql or sqlFile, not both", title)
	case j.Sql != "":
		q.QueryText = j.Sql
	case j.SqlFile != "":
		fn := j.SqlFile
		if !filepath.IsAbs(fn) {
			fn = filepath.Join(baseDir, fn)
		}
		b, err := ioutil.ReadFile(fn)
		if err != nil {
			return q, errors.Wrapf(err, "job %q: unable to read query file", title)
		}
		q.QueryText = string(b)
	}
	if strings.TrimSpace(q.QueryText) == "" {
		return q, fmt.Errorf("job %q: missing query text", title)
	}
	return q, nil
}

// QueryRegistry maps job titles to query definitions.
// It is read-only once loaded.
type QueryRegistry struct {
	jobs map[string]QueryDefinition
}

func NewQueryRegistry(defs ...QueryDefinition) *QueryRegistry {
	r := &QueryRegistry{jobs: make(map[string]QueryDefinition, len(defs))}
	for _, d := range defs {
		r.jobs[d.Title] = d
	}
	return r
}

// LoadQueryRegistry reads every job in f. Construction fails if any job refers to a
// connection that is missing from connections.
func LoadQueryRegistry(f *File, connections rdbms.ConnectionLookup) (*QueryRegistry, error) {
	titles, err := f.GetAllKeys()
	if err != nil {
		return nil, err
	}
	baseDir := filepath.Dir(f.Path())
	defs := make([]QueryDefinition, 0, len(titles))
	for _, title := range titles {
		j := JobDefinition{}
		if err := f.Get(title, &j); err != nil {
			return nil, err
		}
		d, err := NewQueryDefinition(title, j, baseDir, connections)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return NewQueryRegistry(defs...), nil
}

func (r *QueryRegistry) Lookup(title string) (QueryDefinition, bool) {
	d, ok := r.jobs[title]
	return d, ok
}

// Titles returns the sorted job titles.
func (r *QueryRegistry) Titles() []string {
	t := make([]string, 0, len(r.jobs))
	for k := range r.jobs {
		t = append(t, k)
	}
	sort.Strings(t)
	return t
}
