// Package container provides the part store of a vsdx package: an ordered set
// of named zip entries whose XML parts are parsed on demand into etree
// documents and written back on save.
package container

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/klauspost/compress/zip"
)

// Package is an in-memory view of a zip-packaged document.
type Package struct {
	parts []*part
	index map[string]*part
}

type part struct {
	name     string
	method   uint16
	modified time.Time
	raw      []byte
	doc      *etree.Document
}

// New returns an empty package.
func New() *Package {
	return &Package{index: make(map[string]*part)}
}

// Open reads every entry of the package at path.
func Open(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Op: "open", Part: path, Err: err}
	}
	return OpenReader(bytes.NewReader(data), int64(len(data)))
}

// OpenReader reads every entry of the package from r.
func OpenReader(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}

	p := New()
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			return nil, &Error{Op: "read", Part: f.Name, Err: err}
		}
		p.add(&part{
			name:     normalize(f.Name),
			method:   f.Method,
			modified: f.Modified,
			raw:      data,
		})
	}
	return p, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (p *Package) add(pt *part) {
	if existing, ok := p.index[pt.name]; ok {
		*existing = *pt
		return
	}
	p.parts = append(p.parts, pt)
	p.index[pt.name] = pt
}

// normalize strips the leading slash used by content types and absolute
// relationship targets, so "/visio/document.xml" and "visio/document.xml"
// address the same part.
func normalize(name string) string {
	return strings.TrimPrefix(name, "/")
}

// Names returns the part names in package order.
func (p *Package) Names() []string {
	names := make([]string, len(p.parts))
	for i, pt := range p.parts {
		names[i] = pt.name
	}
	return names
}

// Has reports whether the package contains the named part.
func (p *Package) Has(name string) bool {
	_, ok := p.index[normalize(name)]
	return ok
}

// Part returns the parsed XML tree of the named part. The tree is parsed once
// and the same document is returned on every call; mutations to it are
// written back by Save.
func (p *Package) Part(name string) (*etree.Document, error) {
	pt, ok := p.index[normalize(name)]
	if !ok {
		return nil, &Error{Op: "get", Part: name, Err: ErrPartNotFound}
	}
	if pt.doc != nil {
		return pt.doc, nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(pt.raw); err != nil {
		return nil, &Error{Op: "parse", Part: name, Err: err}
	}
	pt.doc = doc
	pt.raw = nil
	return doc, nil
}

// Raw returns the bytes of the named part as they would be written.
func (p *Package) Raw(name string) ([]byte, error) {
	pt, ok := p.index[normalize(name)]
	if !ok {
		return nil, &Error{Op: "get", Part: name, Err: ErrPartNotFound}
	}
	return pt.bytes()
}

// PutPart stores doc under name, replacing any existing part.
func (p *Package) PutPart(name string, doc *etree.Document) {
	p.add(&part{name: normalize(name), method: zip.Deflate, modified: time.Now(), doc: doc})
}

// PutRaw stores data under name, replacing any existing part.
func (p *Package) PutRaw(name string, data []byte) {
	p.add(&part{name: normalize(name), method: zip.Deflate, modified: time.Now(), raw: data})
}

// Remove deletes the named part.
func (p *Package) Remove(name string) error {
	name = normalize(name)
	if _, ok := p.index[name]; !ok {
		return &Error{Op: "remove", Part: name, Err: ErrPartNotFound}
	}
	delete(p.index, name)
	for i, pt := range p.parts {
		if pt.name == name {
			p.parts = append(p.parts[:i], p.parts[i+1:]...)
			break
		}
	}
	return nil
}

// CloneSubtree returns a deep copy of el detached from its parent.
func CloneSubtree(el *etree.Element) *etree.Element {
	return el.Copy()
}

// NewXMLDocument returns a document with the standalone XML declaration used
// by Office packages and root as its root element.
func NewXMLDocument(root *etree.Element) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	doc.SetRoot(root)
	return doc
}

func (pt *part) bytes() ([]byte, error) {
	if pt.doc == nil {
		return pt.raw, nil
	}
	return pt.doc.WriteToBytes()
}

// Write repackages every part into w in package order.
func (p *Package) Write(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, pt := range p.parts {
		data, err := pt.bytes()
		if err != nil {
			return &Error{Op: "serialize", Part: pt.name, Err: err}
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     pt.name,
			Method:   pt.method,
			Modified: pt.modified,
		})
		if err != nil {
			return &Error{Op: "write", Part: pt.name, Err: err}
		}
		if _, err := fw.Write(data); err != nil {
			return &Error{Op: "write", Part: pt.name, Err: err}
		}
	}
	if err := zw.Close(); err != nil {
		return &Error{Op: "write", Err: err}
	}
	return nil
}

// Save writes the package to path, overwriting any existing file. The package
// is assembled in memory first so a failed save leaves path untouched.
func (p *Package) Save(path string) error {
	var buf bytes.Buffer
	if err := p.Write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return &Error{Op: "save", Part: path, Err: fmt.Errorf("writing package: %w", err)}
	}
	return nil
}
