package vsdx

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/beevik/etree"
)

// Page is a drawing page or a master page. Both own a tree of shapes; master
// pages are the inheritance source of shape instances.
type Page struct {
	doc      *Document
	entry    *etree.Element
	partName string
	part     *etree.Document
	isMaster bool

	ids   *idAllocator
	index map[int]*Shape

	mu      sync.Mutex
	connIdx *connectorIndex
}

func newPage(doc *Document, entry *etree.Element, partName string, part *etree.Document, isMaster bool) (*Page, error) {
	p := &Page{
		doc:      doc,
		entry:    entry,
		partName: partName,
		part:     part,
		isMaster: isMaster,
	}
	p.ids = newIDAllocator(p)
	if err := p.buildIndex(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Page) buildIndex() error {
	p.index = make(map[int]*Shape)
	return p.indexSubtree(p.root())
}

// indexSubtree registers every shape element below root in the id index.
func (p *Page) indexSubtree(root *etree.Element) error {
	var firstErr error
	walkShapeElements(root, func(el *etree.Element) {
		if firstErr != nil {
			return
		}
		id, err := shapeElementID(el)
		if err != nil {
			firstErr = newIntegrityError(p.partName, "shape with invalid ID %q", el.SelectAttrValue("ID", ""))
			return
		}
		if _, dup := p.index[id]; dup {
			firstErr = newIntegrityError(p.partName, "duplicate shape ID %d", id)
			return
		}
		p.index[id] = &Shape{page: p, elem: el, id: id}
	})
	return firstErr
}

func (p *Page) root() *etree.Element {
	if p.part == nil {
		return nil
	}
	return p.part.Root()
}

func (p *Page) shapesElement(create bool) *etree.Element {
	root := p.root()
	if root == nil {
		return nil
	}
	el := root.SelectElement("Shapes")
	if el == nil && create {
		el = etree.NewElement("Shapes")
		root.InsertChildAt(0, el)
	}
	return el
}

func (p *Page) shapeFor(el *etree.Element) *Shape {
	id, err := shapeElementID(el)
	if err != nil {
		return nil
	}
	return p.index[id]
}

// Document returns the owning document.
func (p *Page) Document() *Document {
	return p.doc
}

// IsMaster reports whether p is a master page.
func (p *Page) IsMaster() bool {
	return p.isMaster
}

// PartName returns the package part holding the page contents.
func (p *Page) PartName() string {
	return p.partName
}

// ID returns the page (or master) ID attribute.
func (p *Page) ID() int {
	id, _ := strconv.Atoi(p.entry.SelectAttrValue("ID", ""))
	return id
}

// Name returns the page's display name, falling back to its universal name.
func (p *Page) Name() string {
	if name := p.entry.SelectAttrValue("Name", ""); name != "" {
		return name
	}
	return p.entry.SelectAttrValue("NameU", "")
}

// SetName renames the page. Document page metadata follows.
func (p *Page) SetName(name string) error {
	p.entry.CreateAttr("Name", name)
	p.entry.CreateAttr("NameU", name)
	if p.isMaster {
		return nil
	}
	return p.doc.syncMetadata()
}

// Index returns the position of a drawing page in the document, or -1.
func (p *Page) Index() int {
	for i, q := range p.doc.pages {
		if q == p {
			return i
		}
	}
	return -1
}

// MaxID returns the largest shape id seen or allocated on the page.
func (p *Page) MaxID() int {
	return p.ids.maxID()
}

// Shapes returns the top-level shapes in document order.
func (p *Page) Shapes() []*Shape {
	shapes := p.shapesElement(false)
	if shapes == nil {
		return nil
	}
	var out []*Shape
	for _, el := range shapes.SelectElements("Shape") {
		if s := p.shapeFor(el); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// AllShapes returns every shape on the page, depth-first in document order.
func (p *Page) AllShapes() []*Shape {
	var out []*Shape
	walkShapeElements(p.root(), func(el *etree.Element) {
		if s := p.shapeFor(el); s != nil {
			out = append(out, s)
		}
	})
	return out
}

// FindShapeByID returns the shape with the given id at any depth, or nil.
func (p *Page) FindShapeByID(id int) *Shape {
	return p.index[id]
}

// FindShapeByText returns the first shape whose trimmed text equals text.
func (p *Page) FindShapeByText(text string) *Shape {
	want := strings.TrimSpace(text)
	for _, s := range p.AllShapes() {
		if strings.TrimSpace(s.Text()) == want {
			return s
		}
	}
	return nil
}

// FindShapesByText returns all shapes whose trimmed text equals text.
func (p *Page) FindShapesByText(text string) []*Shape {
	want := strings.TrimSpace(text)
	var out []*Shape
	for _, s := range p.AllShapes() {
		if strings.TrimSpace(s.Text()) == want {
			out = append(out, s)
		}
	}
	return out
}

// FindShapesContainingText returns all shapes whose text contains sub.
func (p *Page) FindShapesContainingText(sub string) []*Shape {
	var out []*Shape
	for _, s := range p.AllShapes() {
		if strings.Contains(s.Text(), sub) {
			out = append(out, s)
		}
	}
	return out
}

// FindShapesWithSameMaster returns the shapes on this page that inherit from
// the same master shape as s, s itself included when it is on this page.
func (p *Page) FindShapesWithSameMaster(s *Shape) []*Shape {
	if s == nil {
		return nil
	}
	ms := s.MasterShape()
	if ms == nil {
		return nil
	}
	var out []*Shape
	for _, candidate := range p.AllShapes() {
		if candidate.MasterShape() == ms {
			out = append(out, candidate)
		}
	}
	return out
}

// FindReplace replaces every occurrence of old with new in shape text and
// returns the number of shapes changed.
func (p *Page) FindReplace(old, new string) int {
	if old == "" {
		return 0
	}
	changed := 0
	for _, s := range p.AllShapes() {
		text := s.Text()
		if !strings.Contains(text, old) {
			continue
		}
		s.SetText(strings.ReplaceAll(text, old, new))
		changed++
	}
	return changed
}

// ShapeSpec describes a shape created by NewShape.
type ShapeSpec struct {
	Text   string
	X      float64
	Y      float64
	Width  float64
	Height float64
	// Master, when set, makes the new shape an instance of the first shape
	// of that master page.
	Master *Page
}

// NewShape appends a new top-level shape with a fresh id.
func (p *Page) NewShape(spec ShapeSpec) (*Shape, error) {
	if spec.Master != nil {
		if !spec.Master.isMaster || spec.Master.doc != p.doc {
			return nil, fmt.Errorf("master for new shape on page %q: %w", p.Name(), ErrNotFound)
		}
		if err := p.ensureMasterRel(spec.Master); err != nil {
			return nil, err
		}
	}

	id := p.ids.nextID()
	el := etree.NewElement("Shape")
	el.CreateAttr("ID", strconv.Itoa(id))
	el.CreateAttr("Type", "Shape")
	if spec.Master != nil {
		el.CreateAttr("Master", strconv.Itoa(spec.Master.ID()))
	}
	p.shapesElement(true).AddChild(el)

	s := &Shape{page: p, elem: el, id: id}
	p.index[id] = s
	s.SetCell(CellPinX, spec.X)
	s.SetCell(CellPinY, spec.Y)
	if spec.Width > 0 {
		s.SetCell(CellWidth, spec.Width)
		s.SetCell(CellLocPinX, spec.Width/2)
	}
	if spec.Height > 0 {
		s.SetCell(CellHeight, spec.Height)
		s.SetCell(CellLocPinY, spec.Height/2)
	}
	if spec.Text != "" {
		s.SetText(spec.Text)
	}
	return s, nil
}

// ensureMasterRel adds a relationship from the page part to the master part
// when none exists yet.
func (p *Page) ensureMasterRel(master *Page) error {
	if p.isMaster {
		return nil
	}
	rels, err := p.doc.pkg.Relationships(p.partName)
	if err != nil {
		return err
	}
	if _, ok := rels.Find(RelMaster, master.partName); !ok {
		rels.Add(RelMaster, master.partName)
	}
	return nil
}

// ensureMasterRels calls ensureMasterRel for every master referenced inside
// the subtree rooted at el.
func (p *Page) ensureMasterRels(el *etree.Element) error {
	var firstErr error
	walkShapeElements(el, func(shape *etree.Element) {
		if firstErr != nil {
			return
		}
		ref := shape.SelectAttrValue("Master", "")
		if ref == "" {
			return
		}
		master := p.doc.masterByRef(ref)
		if master == nil {
			firstErr = newIntegrityError(p.partName, "shape %s references missing master %s",
				shape.SelectAttrValue("ID", ""), ref)
			return
		}
		firstErr = p.ensureMasterRel(master)
	})
	return firstErr
}

// clonePart returns a deep copy of the page contents.
func (p *Page) clonePart() *etree.Document {
	return p.part.Copy()
}

// validateMasterRefs checks that every master and master-shape reference on
// the page resolves.
func (p *Page) validateMasterRefs() error {
	for _, s := range p.AllShapes() {
		ref := s.elem.SelectAttrValue("Master", "")
		if ref != "" && p.doc.masterByRef(ref) == nil {
			return newIntegrityError(p.partName, "shape %d references missing master %s", s.id, ref)
		}
		if ms := s.elem.SelectAttrValue("MasterShape", ""); ms != "" && s.MasterShape() == nil {
			return newIntegrityError(p.partName, "shape %d references missing master shape %s", s.id, ms)
		}
	}
	return nil
}
