package vsdx

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/beevik/etree"
	"github.com/charmbracelet/log"
	"github.com/ukaji3/vsdx-go/pkg/vsdx/container"
)

// Document is an opened .vsdx package together with its page and master
// object model. It is not safe for concurrent mutation.
type Document struct {
	pkg    *container.Package
	opts   Options
	logger *log.Logger
	name   string

	pagesPart string
	pagesXML  *etree.Document
	pagesRels *container.Relationships

	mastersPart string
	mastersXML  *etree.Document
	mastersRels *container.Relationships

	pages   []*Page
	masters []*Page
	meta    *appMetadata
}

// Open reads a .vsdx file with default options.
func Open(path string) (*Document, error) {
	return OpenWithOptions(path, DefaultOptions())
}

// OpenWithOptions reads a .vsdx file.
func OpenWithOptions(path string, opts Options) (*Document, error) {
	pkg, err := container.Open(path)
	if err != nil {
		return nil, err
	}
	doc, err := newDocument(pkg, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	doc.name = filepath.Base(path)
	return doc, nil
}

// OpenReader reads a .vsdx package from r.
func OpenReader(r io.ReaderAt, size int64, opts Options) (*Document, error) {
	pkg, err := container.OpenReader(r, size)
	if err != nil {
		return nil, err
	}
	return newDocument(pkg, opts)
}

// FromPackage builds the object model over an already loaded package.
func FromPackage(pkg *container.Package, opts Options) (*Document, error) {
	return newDocument(pkg, opts)
}

func newDocument(pkg *container.Package, opts Options) (*Document, error) {
	d := &Document{
		pkg:    pkg,
		opts:   opts,
		logger: opts.logger(),
	}
	if err := d.load(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Document) load() error {
	rootRels, err := d.pkg.Relationships("")
	if err != nil {
		return err
	}
	docPart := defaultDocumentPart
	if rels := rootRels.ByType(RelDocument); len(rels) > 0 {
		docPart = rootRels.PartName(rels[0])
	}
	if !d.pkg.Has(docPart) {
		return fmt.Errorf("document part %s: %w", docPart, ErrNotFound)
	}
	docRels, err := d.pkg.Relationships(docPart)
	if err != nil {
		return err
	}

	d.mastersPart = defaultMastersPart
	if rels := docRels.ByType(RelMasters); len(rels) > 0 {
		d.mastersPart = docRels.PartName(rels[0])
	}
	if err := d.loadMasters(); err != nil {
		return err
	}

	d.pagesPart = defaultPagesPart
	if rels := docRels.ByType(RelPages); len(rels) > 0 {
		d.pagesPart = docRels.PartName(rels[0])
	}
	if err := d.loadPages(); err != nil {
		return err
	}

	meta, created, err := loadAppMetadata(d.pkg)
	if err != nil {
		return err
	}
	d.meta = meta

	if created || d.opts.SkipIntegrityCheck {
		d.meta.setPageNames(d.PageNames())
	}
	if d.opts.SkipIntegrityCheck {
		return nil
	}
	for _, p := range d.pages {
		if err := p.validateMasterRefs(); err != nil {
			return err
		}
	}
	return d.verifyMetadata()
}

func (d *Document) loadMasters() error {
	if !d.pkg.Has(d.mastersPart) {
		return nil
	}
	var err error
	if d.mastersXML, err = d.pkg.Part(d.mastersPart); err != nil {
		return err
	}
	if d.mastersRels, err = d.pkg.Relationships(d.mastersPart); err != nil {
		return err
	}
	for _, entry := range d.mastersXML.Root().SelectElements("Master") {
		p, err := d.loadEntry(entry, d.mastersRels, true)
		if err != nil {
			return err
		}
		d.masters = append(d.masters, p)
	}
	d.logger.Debug("loaded masters", "count", len(d.masters))
	return nil
}

func (d *Document) loadPages() error {
	var err error
	if !d.pkg.Has(d.pagesPart) {
		root := etree.NewElement("Pages")
		root.CreateAttr("xmlns", NSVisio)
		root.CreateAttr("xmlns:r", NSRelationships)
		d.pkg.PutPart(d.pagesPart, container.NewXMLDocument(root))
	}
	if d.pagesXML, err = d.pkg.Part(d.pagesPart); err != nil {
		return err
	}
	if d.pagesRels, err = d.pkg.Relationships(d.pagesPart); err != nil {
		return err
	}
	for _, entry := range d.pagesXML.Root().SelectElements("Page") {
		p, err := d.loadEntry(entry, d.pagesRels, false)
		if err != nil {
			return err
		}
		d.pages = append(d.pages, p)
	}
	d.logger.Debug("loaded pages", "count", len(d.pages))
	return nil
}

// loadEntry resolves the Rel child of a Page or Master entry to its part and
// builds the page model over it.
func (d *Document) loadEntry(entry *etree.Element, rels *container.Relationships, isMaster bool) (*Page, error) {
	relEl := entry.SelectElement("Rel")
	if relEl == nil {
		return nil, newIntegrityError(rels.Name(), "%s %q has no Rel", entry.Tag, entry.SelectAttrValue("NameU", ""))
	}
	relID := relEl.SelectAttrValue("r:id", "")
	rel, ok := rels.Get(relID)
	if !ok {
		return nil, newIntegrityError(rels.Name(), "%s %q references missing relationship %s",
			entry.Tag, entry.SelectAttrValue("NameU", ""), relID)
	}
	partName := rels.PartName(rel)
	part, err := d.pkg.Part(partName)
	if err != nil {
		return nil, err
	}
	return newPage(d, entry, partName, part, isMaster)
}

// Name returns the base name of the file the document was opened from.
func (d *Document) Name() string {
	return d.name
}

// Package exposes the underlying package.
func (d *Document) Package() *container.Package {
	return d.pkg
}

// Logger returns the logger the document reports to.
func (d *Document) Logger() *log.Logger {
	return d.logger
}

// Pages returns the drawing pages in document order.
func (d *Document) Pages() []*Page {
	return slices.Clone(d.pages)
}

// Masters returns the master pages.
func (d *Document) Masters() []*Page {
	return slices.Clone(d.masters)
}

// PageNames returns the page names in document order.
func (d *Document) PageNames() []string {
	names := make([]string, len(d.pages))
	for i, p := range d.pages {
		names[i] = p.Name()
	}
	return names
}

// Page returns the page at index i.
func (d *Document) Page(i int) (*Page, error) {
	if i < 0 || i >= len(d.pages) {
		return nil, fmt.Errorf("page index %d: %w", i, ErrNotFound)
	}
	return d.pages[i], nil
}

// PageByName returns the first page with the given name.
func (d *Document) PageByName(name string) (*Page, error) {
	for _, p := range d.pages {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("page %q: %w", name, ErrNotFound)
}

// MasterByName returns the master with the given name or universal name.
func (d *Document) MasterByName(name string) (*Page, error) {
	for _, m := range d.masters {
		if m.Name() == name || m.entry.SelectAttrValue("NameU", "") == name {
			return m, nil
		}
	}
	return nil, fmt.Errorf("master %q: %w", name, ErrNotFound)
}

func (d *Document) masterByRef(ref string) *Page {
	for _, m := range d.masters {
		if m.entry.SelectAttrValue("ID", "") == ref {
			return m
		}
	}
	return nil
}

// MetadataPageNames returns the page names recorded in the document's
// extended properties.
func (d *Document) MetadataPageNames() []string {
	return d.meta.pageNames()
}

// syncMetadata rewrites the page titles from the page list and verifies the
// result.
func (d *Document) syncMetadata() error {
	d.meta.setPageNames(d.PageNames())
	return d.verifyMetadata()
}

func (d *Document) verifyMetadata() error {
	got := d.meta.pageNames()
	want := d.PageNames()
	if !slices.Equal(got, want) {
		return newIntegrityError(d.meta.partName, "page titles %q do not match pages %q", got, want)
	}
	return nil
}

// Write serializes the document as a .vsdx package.
func (d *Document) Write(w io.Writer) error {
	return d.pkg.Write(w)
}

// Save writes the document to path. Saving to the path it was opened from is
// allowed.
func (d *Document) Save(path string) error {
	if err := d.pkg.Save(path); err != nil {
		return err
	}
	d.logger.Debug("saved document", "path", path, "pages", len(d.pages))
	return nil
}
