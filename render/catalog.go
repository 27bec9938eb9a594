package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/notify"
)

// Catalog is an in-memory TemplateSource loaded from a YAML document. It is
// meant for development and bootstrap: authoring a template set in a file
// before an administrative surface exists.
//
// Expected document shape:
//
//	templates:
//	  - event_type: payment.succeeded
//	    channel: email
//	    subject: "Payment received"
//	    body: "Hello {{ name }}, we received {{ amount }}."
type Catalog struct {
	templates map[string]notify.Template
}

type catalogDoc struct {
	Templates []notify.Template `yaml:"templates"`
}

// LoadCatalog parses a YAML template set from r.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}

	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}

	c := &Catalog{templates: make(map[string]notify.Template, len(doc.Templates))}
	for _, t := range doc.Templates {
		if t.EventType == "" || !t.Channel.Valid() {
			return nil, fmt.Errorf("%w: template needs event_type and a valid channel", ErrInvalidCatalog)
		}
		c.templates[catalogKey(t.EventType, t.Channel)] = t
	}
	return c, nil
}

// LoadCatalogFile loads a YAML template set from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// Template implements TemplateSource.
func (c *Catalog) Template(ctx context.Context, eventType notify.EventType, channel notify.Channel) (*notify.Template, error) {
	t, ok := c.templates[catalogKey(eventType, channel)]
	if !ok {
		return nil, notify.ErrNotFound
	}
	return &t, nil
}

// Len returns the number of templates in the catalog.
func (c *Catalog) Len() int {
	return len(c.templates)
}

func catalogKey(eventType notify.EventType, channel notify.Channel) string {
	return string(eventType) + "|" + string(channel)
}
