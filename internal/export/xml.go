package export

import (
	"context"
	"encoding/xml"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/nexconsult/cep-processor/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	xmlRoot   = "enderecos"
	xmlRecord = "endereco"
)

// XMLSink writes the results of a run as <enderecos><endereco>...</endereco></enderecos>
type XMLSink struct {
	path   string
	logger *logrus.Logger
}

// NewXMLSink creates an XML sink writing to path
func NewXMLSink(path string, logger *logrus.Logger) *XMLSink {
	return &XMLSink{path: path, logger: logger}
}

// Name identifies the sink in logs and metrics
func (s *XMLSink) Name() string { return "xml" }

// Path returns the output file
func (s *XMLSink) Path() string { return s.path }

// Write overwrites the output file with every result of run
func (s *XMLSink) Write(_ context.Context, run *models.Run) error {
	err := writeFile(s.path, func(f *os.File) error {
		return EncodeXML(f, run.Results)
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"path":    s.path,
		"records": len(run.Results),
	}).Info("XML saved")
	return nil
}

// EncodeXML writes results with one child element per field. Empty values
// render as an empty element.
func EncodeXML(w io.Writer, results []*models.LookupResult) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	root := xml.StartElement{Name: xml.Name{Local: xmlRoot}}
	if err := enc.EncodeToken(root); err != nil {
		return err
	}

	for _, result := range results {
		record := xml.StartElement{Name: xml.Name{Local: xmlRecord}}
		if err := enc.EncodeToken(record); err != nil {
			return err
		}
		for _, field := range result.Fields {
			el := xml.StartElement{Name: xml.Name{Local: elementName(field.Key)}}
			if err := enc.EncodeElement(models.FormatValue(field.Value), el); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(record.End()); err != nil {
			return err
		}
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}

	_, err := io.WriteString(w, "\n")
	return err
}

// elementName turns a field key into a valid XML element name
func elementName(key string) string {
	if key == "" {
		return "_"
	}

	var b strings.Builder
	for i, r := range key {
		switch {
		case unicode.IsLetter(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsDigit(r) || r == '-' || r == '.':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	name := b.String()
	if strings.HasPrefix(strings.ToLower(name), "xml") {
		name = "_" + name
	}
	return name
}
