package rdbms

import (
	"fmt"
	"strings"
)

// SchemaTable is a destination table name of the form [<schema>.]<table>.
// Either part may be quoted with [brackets] or "double quotes", in which case it may contain periods.
type SchemaTable struct {
	SchemaTable string `errorTxt:"[<schema>.]<table>" mandatory:"yes"`
}

func NewSchemaTable(schema string, table string) SchemaTable {
	if schema == "" {
		return SchemaTable{table}
	}
	return SchemaTable{schema + "." + table}
}

// splitParts splits the name on periods that are not inside quotes and removes the quotes.
func (st *SchemaTable) splitParts() ([]string, error) {
	var parts []string
	var sb strings.Builder
	var closing rune // the quote that ends the current quoted identifier, or 0
	runes := []rune(strings.TrimSpace(st.SchemaTable))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case closing != 0 && r == closing:
			if i+1 < len(runes) && runes[i+1] == closing { // escaped quote e.g. ]] or ""
				sb.WriteRune(r)
				i++
			} else {
				closing = 0
			}
		case closing != 0:
			sb.WriteRune(r)
		case r == '[':
			closing = ']'
		case r == '"':
			closing = '"'
		case r == '.':
			parts = append(parts, sb.String())
			sb.Reset()
		default:
			sb.WriteRune(r)
		}
	}
	if closing != 0 {
		return nil, fmt.Errorf("unterminated quoted identifier in %q", st.SchemaTable)
	}
	parts = append(parts, sb.String())
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("invalid table name %q", st.SchemaTable)
		}
	}
	if len(parts) > 2 {
		return nil, fmt.Errorf("table name %q has too many parts, expected [<schema>.]<table>", st.SchemaTable)
	}
	return parts, nil
}

// Validate returns an error if the name can't be split into schema and table.
func (st *SchemaTable) Validate() error {
	_, err := st.splitParts()
	return err
}

// GetTable returns the unquoted table name.
func (st *SchemaTable) GetTable() string {
	parts, err := st.splitParts()
	if err != nil {
		return ""
	}
	return parts[len(parts)-1]
}

// GetSchema returns the unquoted schema name or empty string if there isn't one.
func (st *SchemaTable) GetSchema() string {
	parts, err := st.splitParts()
	if err != nil || len(parts) < 2 {
		return ""
	}
	return parts[0]
}

func (st *SchemaTable) String() string {
	return st.SchemaTable
}
