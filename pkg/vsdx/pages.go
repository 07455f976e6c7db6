package vsdx

import (
	"fmt"
	"path"
	"slices"
	"strconv"

	"github.com/beevik/etree"
	"github.com/ukaji3/vsdx-go/pkg/vsdx/container"
)

type positionKind int

const (
	positionLast positionKind = iota
	positionFirst
	positionBefore
	positionAfter
	positionIndex
)

// Position selects where a new or moved page goes. The zero value is Last.
type Position struct {
	kind   positionKind
	anchor *Page
	index  int
}

// First places a page at the start of the document.
func First() Position { return Position{kind: positionFirst} }

// Last places a page at the end of the document.
func Last() Position { return Position{kind: positionLast} }

// Before places a page immediately before p.
func Before(p *Page) Position { return Position{kind: positionBefore, anchor: p} }

// After places a page immediately after p.
func After(p *Page) Position { return Position{kind: positionAfter, anchor: p} }

// At places a page at index i, clamped to the valid range.
func At(i int) Position { return Position{kind: positionIndex, index: i} }

// resolve returns the insertion index into pages.
func (pos Position) resolve(pages []*Page) (int, error) {
	switch pos.kind {
	case positionFirst:
		return 0, nil
	case positionBefore, positionAfter:
		i := slices.Index(pages, pos.anchor)
		if i < 0 {
			return 0, fmt.Errorf("anchor page: %w", ErrNotFound)
		}
		if pos.kind == positionAfter {
			i++
		}
		return i, nil
	case positionIndex:
		return max(0, min(pos.index, len(pages))), nil
	default:
		return len(pages), nil
	}
}

// uniquePageName returns name, or name with the first free "-N" suffix when
// a page already has it. An empty name becomes "Page-N".
func (d *Document) uniquePageName(name string) string {
	taken := make(map[string]bool, len(d.pages))
	for _, p := range d.pages {
		taken[p.Name()] = true
	}
	if name == "" {
		for n := len(d.pages) + 1; ; n++ {
			candidate := "Page-" + strconv.Itoa(n)
			if !taken[candidate] {
				return candidate
			}
		}
	}
	if !taken[name] {
		return name
	}
	for n := 1; ; n++ {
		candidate := name + "-" + strconv.Itoa(n)
		if !taken[candidate] {
			return candidate
		}
	}
}

// nextPagePartName returns the first unused pageN.xml next to the pages part.
func (d *Document) nextPagePartName() string {
	dir := path.Dir(d.pagesPart)
	for n := 1; ; n++ {
		name := path.Join(dir, "page"+strconv.Itoa(n)+".xml")
		if !d.pkg.Has(name) {
			return name
		}
	}
}

func (d *Document) nextPageID() int {
	next := 0
	for _, p := range d.pages {
		if id := p.ID(); id >= next {
			next = id + 1
		}
	}
	return next
}

// newPageEntry builds a Page entry for pages.xml. When from is non-nil its
// page sheet is copied; otherwise the sheet of the last page is used as a
// template so new pages share the document's page size.
func (d *Document) newPageEntry(from *Page, name, relID string) *etree.Element {
	if from == nil && len(d.pages) > 0 {
		from = d.pages[len(d.pages)-1]
	}
	var entry *etree.Element
	if from != nil {
		entry = container.CloneSubtree(from.entry)
		for _, rel := range entry.SelectElements("Rel") {
			entry.RemoveChild(rel)
		}
		entry.RemoveAttr("BackPage")
		entry.RemoveAttr("Background")
	} else {
		entry = etree.NewElement("Page")
		sheet := entry.CreateElement("PageSheet")
		sheet.CreateAttr("LineStyle", "0")
		sheet.CreateAttr("FillStyle", "0")
		sheet.CreateAttr("TextStyle", "0")
	}
	entry.CreateAttr("ID", strconv.Itoa(d.nextPageID()))
	entry.CreateAttr("NameU", name)
	entry.CreateAttr("Name", name)
	entry.CreateElement("Rel").CreateAttr("r:id", relID)
	return entry
}

func newPageContents() *etree.Document {
	root := etree.NewElement("PageContents")
	root.CreateAttr("xmlns", NSVisio)
	root.CreateAttr("xmlns:r", NSRelationships)
	root.CreateAttr("xml:space", "preserve")
	return container.NewXMLDocument(root)
}

// AddPage creates an empty page named name at pos. An empty name becomes
// "Page-N"; a name already in use gets a "-N" suffix.
func (d *Document) AddPage(name string, pos Position) (*Page, error) {
	idx, err := pos.resolve(d.pages)
	if err != nil {
		return nil, err
	}
	name = d.uniquePageName(name)
	partName := d.nextPagePartName()
	part := newPageContents()
	d.pkg.PutPart(partName, part)
	if err := d.pkg.AddOverride(partName, ContentTypePage); err != nil {
		return nil, err
	}

	relID := d.pagesRels.Add(RelPage, partName)
	entry := d.newPageEntry(nil, name, relID)
	d.pagesXML.Root().AddChild(entry)

	p, err := newPage(d, entry, partName, part, false)
	if err != nil {
		return nil, err
	}
	if err := d.insertPage(p, idx); err != nil {
		return nil, err
	}
	d.logger.Debug("added page", "name", name, "index", idx, "part", partName)
	return p, nil
}

// CopyPage duplicates src, contents and relationships included, and places the
// copy at pos. An empty name derives the copy's name from src.
func (d *Document) CopyPage(src *Page, name string, pos Position) (*Page, error) {
	if src == nil || src.doc != d || src.Index() < 0 {
		return nil, fmt.Errorf("copy page: source %w", ErrNotFound)
	}
	idx, err := pos.resolve(d.pages)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = src.Name()
	}
	name = d.uniquePageName(name)

	partName := d.nextPagePartName()
	part := src.clonePart()
	d.pkg.PutPart(partName, part)
	if err := d.pkg.AddOverride(partName, ContentTypePage); err != nil {
		return nil, err
	}
	srcRels := container.RelsPathFor(src.partName)
	if d.pkg.Has(srcRels) {
		relsDoc, err := d.pkg.Part(srcRels)
		if err != nil {
			return nil, err
		}
		d.pkg.PutPart(container.RelsPathFor(partName), relsDoc.Copy())
	}

	relID := d.pagesRels.Add(RelPage, partName)
	entry := d.newPageEntry(src, name, relID)
	d.pagesXML.Root().AddChild(entry)

	p, err := newPage(d, entry, partName, part, false)
	if err != nil {
		return nil, err
	}
	if err := d.insertPage(p, idx); err != nil {
		return nil, err
	}
	d.logger.Debug("copied page", "from", src.Name(), "name", name, "index", idx)
	return p, nil
}

// insertPage puts p into the page list at idx and brings pages.xml order and
// document metadata in line.
func (d *Document) insertPage(p *Page, idx int) error {
	d.pages = slices.Insert(d.pages, idx, p)
	d.reorderEntries()
	return d.syncMetadata()
}

// reorderEntries rewrites the order of Page entries in pages.xml to match the
// page list.
func (d *Document) reorderEntries() {
	root := d.pagesXML.Root()
	for _, p := range d.pages {
		root.RemoveChild(p.entry)
		root.AddChild(p.entry)
	}
}

// RemovePage deletes the page at index i together with its part.
func (d *Document) RemovePage(i int) error {
	p, err := d.Page(i)
	if err != nil {
		return err
	}
	return d.removePage(p)
}

// RemovePageByName deletes the first page named name.
func (d *Document) RemovePageByName(name string) error {
	p, err := d.PageByName(name)
	if err != nil {
		return err
	}
	return d.removePage(p)
}

func (d *Document) removePage(p *Page) error {
	idx := p.Index()
	if idx < 0 {
		return fmt.Errorf("remove page %q: %w", p.Name(), ErrNotFound)
	}
	d.pagesXML.Root().RemoveChild(p.entry)
	if relEl := p.entry.SelectElement("Rel"); relEl != nil {
		d.pagesRels.Remove(relEl.SelectAttrValue("r:id", ""))
	}
	if err := d.pkg.Remove(p.partName); err != nil {
		return err
	}
	if rels := container.RelsPathFor(p.partName); d.pkg.Has(rels) {
		if err := d.pkg.Remove(rels); err != nil {
			return err
		}
	}
	if err := d.pkg.RemoveOverride(p.partName); err != nil {
		return err
	}
	d.pages = slices.Delete(d.pages, idx, idx+1)
	d.logger.Debug("removed page", "name", p.Name(), "index", idx)
	return d.syncMetadata()
}

// MovePage moves p to pos. Positions relative to p itself leave it in place.
func (d *Document) MovePage(p *Page, pos Position) error {
	idx := p.Index()
	if idx < 0 {
		return fmt.Errorf("move page %q: %w", p.Name(), ErrNotFound)
	}
	if pos.anchor == p {
		return nil
	}
	rest := slices.Delete(slices.Clone(d.pages), idx, idx+1)
	to, err := pos.resolve(rest)
	if err != nil {
		return err
	}
	d.pages = slices.Insert(rest, to, p)
	d.reorderEntries()
	d.logger.Debug("moved page", "name", p.Name(), "from", idx, "to", to)
	return d.syncMetadata()
}
