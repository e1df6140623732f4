package cube

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/relloyd/tableload/helper"
)

// ConnectionDetails are the parts of an ADOMD style cube connection string that XMLA over HTTP needs, e.g.
//
//	Provider=MSOLAP;Data Source=https://olap.example.com/olap/msmdpump.dll;Initial Catalog=Sales;User ID=etl;Password=x
type ConnectionDetails struct {
	Endpoint string
	Catalog  string
	Username string
	Password string
}

func (d ConnectionDetails) String() string {
	return fmt.Sprintf("%v (catalog %q)", d.Endpoint, d.Catalog)
}

// ParseConnectionString extracts ConnectionDetails from connString.
// The data source must be an http(s) msmdpump endpoint.
func ParseConnectionString(connString string) (ConnectionDetails, error) {
	m := helper.KeyValuePairsToMap(connString, ";")
	d := ConnectionDetails{
		Endpoint: firstOf(m, "data source", "datasource", "location"),
		Catalog:  firstOf(m, "initial catalog", "catalog", "database"),
		Username: firstOf(m, "user id", "uid", "username"),
		Password: firstOf(m, "password", "pwd"),
	}
	if d.Endpoint == "" {
		return d, fmt.Errorf("cube connection string has no Data Source")
	}
	u, err := url.Parse(d.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return d, fmt.Errorf("cube Data Source %q must be an http(s) XMLA endpoint e.g. https://host/olap/msmdpump.dll", d.Endpoint)
	}
	return d, nil
}

func firstOf(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != "" {
			return strings.Trim(v, `"'`)
		}
	}
	return ""
}
