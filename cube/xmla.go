package cube

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

const (
	nsXmla = "urn:schemas-microsoft-com:xml-analysis"

	headerBeginSession = `<BeginSession xmlns="` + nsXmla + `"/>`
	headerSession      = `<Session xmlns="` + nsXmla + `" SessionId="%v"/>`
	headerEndSession   = `<EndSession xmlns="` + nsXmla + `" SessionId="%v"/>`

	envelopeTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<Envelope xmlns="http://schemas.xmlsoap.org/soap/envelope/">
<Header>%v</Header>
<Body>
<Execute xmlns="` + nsXmla + `">
<Command><Statement>%v</Statement></Command>
<Properties><PropertyList>%v<Format>Tabular</Format><Content>SchemaData</Content></PropertyList></Properties>
</Execute>
</Body>
</Envelope>`
)

func escape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// buildExecuteEnvelope returns the SOAP request for statement with the given session header.
func buildExecuteEnvelope(header string, statement string, catalog string) []byte {
	props := ""
	if catalog != "" {
		props = "<Catalog>" + escape(catalog) + "</Catalog>"
	}
	return []byte(fmt.Sprintf(envelopeTemplate, header, escape(statement), props))
}

// Response structure. encoding/xml matches local names in any namespace.

type envelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Header  struct {
		Session *struct {
			SessionId string `xml:"SessionId,attr"`
		} `xml:"Session"`
	} `xml:"Header"`
	Body struct {
		Fault           *soapFault `xml:"Fault"`
		ExecuteResponse struct {
			Return struct {
				Root rowset `xml:"root"`
			} `xml:"return"`
		} `xml:"ExecuteResponse"`
	} `xml:"Body"`
}

type soapFault struct {
	Code        string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
	Errors      []struct {
		ErrorCode   string `xml:"ErrorCode,attr"`
		Description string `xml:"Description,attr"`
	} `xml:"detail>Error"`
}

func (f *soapFault) Error() string {
	var msgs []string
	for _, e := range f.Errors {
		msgs = append(msgs, fmt.Sprintf("%v (%v)", e.Description, e.ErrorCode))
	}
	if len(msgs) == 0 {
		return fmt.Sprintf("XMLA fault %v: %v", f.Code, f.FaultString)
	}
	return fmt.Sprintf("XMLA fault %v: %v", f.Code, strings.Join(msgs, "; "))
}

type rowset struct {
	Schema struct {
		ComplexTypes []struct {
			Name     string          `xml:"name,attr"`
			Elements []schemaElement `xml:"sequence>element"`
		} `xml:"complexType"`
	} `xml:"schema"`
	Rows     []xmlRow `xml:"row"`
	Messages []struct {
		Description string `xml:"Description,attr"`
	} `xml:"Messages>Error"`
}

type schemaElement struct {
	Name  string `xml:"name,attr"`  // encoded element name e.g. _x005B_Measures_x005D_._x005B_Sales_x005D_
	Field string `xml:"field,attr"` // sql:field caption e.g. [Measures].[Sales]
	Type  string `xml:"type,attr"`
}

type xmlRow struct {
	Cells []struct {
		XMLName xml.Name
		Nil     string `xml:"nil,attr"`
		Value   string `xml:",chardata"`
	} `xml:",any"`
}

// rowElements returns the column descriptors of the row complex type.
func (r *rowset) rowElements() []schemaElement {
	for _, ct := range r.Schema.ComplexTypes {
		if ct.Name == "row" {
			return ct.Elements
		}
	}
	return nil
}

// xsdScanType maps an xsd type to the Go type its values are converted to.
func xsdScanType(xsdType string) reflect.Type {
	_, t := splitPrefix(xsdType)
	switch t {
	case "double", "float", "decimal":
		return reflect.TypeOf(float64(0))
	case "int", "long", "short", "byte", "integer", "unsignedInt", "unsignedShort", "unsignedByte":
		return reflect.TypeOf(int64(0))
	case "boolean":
		return reflect.TypeOf(true)
	case "dateTime", "date":
		return reflect.TypeOf(time.Time{})
	}
	return reflect.TypeOf("")
}

func splitPrefix(s string) (string, string) {
	i := strings.Index(s, ":")
	if i < 0 {
		return "", s
	}
	return s[:i], s[i+1:]
}

var cubeTimeFormats = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// convertValue converts the text of a cell into a value of type t.
func convertValue(t reflect.Type, s string) (interface{}, error) {
	switch t.Kind() {
	case reflect.Float64:
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	case reflect.Int64:
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	case reflect.Bool:
		return strconv.ParseBool(strings.TrimSpace(s))
	case reflect.Struct: // time.Time
		for _, f := range cubeTimeFormats {
			if v, err := time.Parse(f, strings.TrimSpace(s)); err == nil {
				return v, nil
			}
		}
		return nil, fmt.Errorf("unable to parse %q as a date/time", s)
	}
	return s, nil
}
