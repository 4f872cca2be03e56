package shape

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"golang.org/x/text/unicode/norm"
)

// Load reads, normalizes and validates the shape file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shape file: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes a shape file from data. Unknown keys are errors. path is
// only used in messages.
func Parse(path string, data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", displayPath(path), err)
	}
	f.Path = path
	f.Normalize()
	if err := Validate(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

func displayPath(path string) string {
	if path == "" {
		return "<input>"
	}
	return path
}

// Normalize puts every name and type reference of f into NFC form and
// names anonymous companions.
func (f *File) Normalize() {
	f.Package = nfc(f.Package)
	for i := range f.Classes {
		f.Classes[i].normalize()
	}
	for i := range f.Functions {
		f.Functions[i].normalize()
	}
	for i := range f.Properties {
		f.Properties[i].normalize()
	}
}

func (c *Class) normalize() {
	c.Name = nfc(c.Name)
	normalizeTypeParams(c.TypeParameters)
	nfcAll(c.Supertypes)
	nfcAll(c.Annotations)
	if c.Constructor != nil {
		c.Constructor.normalize()
	}
	for i := range c.Constructors {
		c.Constructors[i].normalize()
	}
	for i := range c.Functions {
		c.Functions[i].normalize()
	}
	for i := range c.Properties {
		c.Properties[i].normalize()
	}
	for i := range c.Entries {
		c.Entries[i].Name = nfc(c.Entries[i].Name)
		nfcAll(c.Entries[i].Annotations)
	}
	for i := range c.Nested {
		c.Nested[i].normalize()
	}
	if c.Companion != nil {
		c.Companion.normalize()
		if c.Companion.Name == "" {
			c.Companion.Name = CompanionName
		}
	}
}

func (c *Constructor) normalize() {
	normalizeParams(c.Parameters)
	nfcAll(c.Annotations)
}

func (fn *Function) normalize() {
	fn.Name = nfc(fn.Name)
	fn.Receiver = nfc(fn.Receiver)
	fn.Returns = nfc(fn.Returns)
	nfcAll(fn.Context)
	nfcAll(fn.Annotations)
	normalizeTypeParams(fn.TypeParameters)
	normalizeParams(fn.Parameters)
}

func (p *Property) normalize() {
	p.Name = nfc(p.Name)
	p.Type = nfc(p.Type)
	p.Receiver = nfc(p.Receiver)
	nfcAll(p.Annotations)
	normalizeTypeParams(p.TypeParameters)
}

func normalizeTypeParams(tps []TypeParameter) {
	for i := range tps {
		tps[i].Name = nfc(tps[i].Name)
		nfcAll(tps[i].Bounds)
	}
}

func normalizeParams(ps []Parameter) {
	for i := range ps {
		ps[i].Name = nfc(ps[i].Name)
		ps[i].Type = nfc(ps[i].Type)
	}
}

func nfc(s string) string { return norm.NFC.String(s) }

func nfcAll(ss []string) {
	for i := range ss {
		ss[i] = nfc(ss[i])
	}
}
