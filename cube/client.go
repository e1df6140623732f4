package cube

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/relloyd/tableload/constants"
	"github.com/relloyd/tableload/logger"
	"github.com/relloyd/tableload/stream"
	"golang.org/x/net/html/charset"
)

// Client runs MDX statements against an XMLA endpoint, e.g. SSAS msmdpump.dll, and returns tabular results.
type Client struct {
	Log     logger.Logger
	Details ConnectionDetails
	HTTP    *http.Client
}

// NewClient parses connString and returns a Client that uses the default statement timeout.
func NewClient(log logger.Logger, connString string) (*Client, error) {
	d, err := ParseConnectionString(connString)
	if err != nil {
		return nil, err
	}
	return &Client{
		Log:     log,
		Details: d,
		HTTP:    &http.Client{Timeout: constants.StatementTimeoutSeconds * time.Second},
	}, nil
}

// Query opens a session, executes the MDX statement, reads the whole rowset and ends the session.
// Columns are named by their sql:field caption, in schema order.
func (c *Client) Query(ctx context.Context, mdx string) (*stream.Dataset, error) {
	sessionID, err := c.beginSession(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "unable to begin XMLA session")
	}
	defer c.endSession(ctx, sessionID)
	c.Log.Debug("executing MDX in XMLA session ", sessionID)
	env, err := c.post(ctx, buildExecuteEnvelope(fmt.Sprintf(headerSession, escape(sessionID)), mdx, c.Details.Catalog))
	if err != nil {
		return nil, err
	}
	return toDataset(&env.Body.ExecuteResponse.Return.Root)
}

func (c *Client) beginSession(ctx context.Context) (string, error) {
	env, err := c.post(ctx, buildExecuteEnvelope(headerBeginSession, "", c.Details.Catalog))
	if err != nil {
		return "", err
	}
	if env.Header.Session == nil || env.Header.Session.SessionId == "" {
		return "", errors.New("XMLA server did not return a session id")
	}
	return env.Header.Session.SessionId, nil
}

// endSession is best effort: the server expires abandoned sessions.
func (c *Client) endSession(ctx context.Context, sessionID string) {
	if _, err := c.post(ctx, buildExecuteEnvelope(fmt.Sprintf(headerEndSession, escape(sessionID)), "", "")); err != nil {
		c.Log.Warn("unable to end XMLA session ", sessionID, ": ", err)
	}
}

func (c *Client) post(ctx context.Context, body []byte) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Details.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "error building XMLA request")
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `"`+nsXmla+`:Execute"`)
	if c.Details.Username != "" {
		req.SetBasicAuth(c.Details.Username, c.Details.Password)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "error calling XMLA endpoint %v", c.Details.Endpoint)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	env := &envelope{}
	dec := xml.NewDecoder(resp.Body)
	dec.CharsetReader = charset.NewReaderLabel
	decodeErr := dec.Decode(env)
	if decodeErr == nil && env.Body.Fault != nil { // faults arrive with status 500.
		return nil, env.Body.Fault
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("XMLA endpoint returned HTTP %v %s", resp.Status, b)
	}
	if decodeErr != nil {
		return nil, errors.Wrap(decodeErr, "unable to decode XMLA response")
	}
	return env, nil
}

// toDataset converts a tabular rowset into a Dataset. Cells missing from a row are NULL.
func toDataset(r *rowset) (*stream.Dataset, error) {
	if len(r.Messages) > 0 {
		return nil, fmt.Errorf("XMLA error: %v", r.Messages[0].Description)
	}
	elements := r.rowElements()
	columns := make([]stream.Column, len(elements))
	position := make(map[string]int, len(elements))
	for idx, e := range elements { // for each column descriptor...
		name := e.Field
		if name == "" {
			name = e.Name
		}
		columns[idx] = stream.Column{Name: name, Type: stream.FieldType{ScanType: xsdScanType(e.Type)}}
		position[e.Name] = idx
	}
	rows := make([][]interface{}, 0, len(r.Rows))
	for rowNum, xr := range r.Rows { // for each row...
		row := make([]interface{}, len(columns))
		for _, cell := range xr.Cells {
			idx, ok := position[cell.XMLName.Local]
			if !ok {
				return nil, fmt.Errorf("row %v has element %q which is not in the rowset schema", rowNum, cell.XMLName.Local)
			}
			if cell.Nil == "true" {
				continue
			}
			v, err := convertValue(columns[idx].Type.ScanType, cell.Value)
			if err != nil {
				return nil, errors.Wrapf(err, "row %v column %q", rowNum, columns[idx].Name)
			}
			row[idx] = v
		}
		rows = append(rows, row)
	}
	return stream.NewDataset(columns, rows)
}
