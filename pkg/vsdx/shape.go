package vsdx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/ukaji3/vsdx-go/pkg/vsdx/container"
	"github.com/ukaji3/vsdx-go/pkg/vsdx/expression"
)

// Kind classifies a shape.
type Kind string

const (
	KindShape     Kind = "shape"
	KindGroup     Kind = "group"
	KindConnector Kind = "connector"
)

// Shape is a handle on one shape element of a page. Handles stay valid for as
// long as the shape is on its page.
type Shape struct {
	page *Page
	elem *etree.Element
	id   int
}

// ID returns the shape id, unique within its page.
func (s *Shape) ID() int {
	return s.id
}

// Page returns the page that owns the shape.
func (s *Shape) Page() *Page {
	return s.page
}

// Element exposes the underlying XML element.
func (s *Shape) Element() *etree.Element {
	return s.elem
}

// Type returns the Type attribute ("Shape", "Group", "Guide", "Foreign").
func (s *Shape) Type() string {
	return s.elem.SelectAttrValue("Type", "Shape")
}

// Name returns the shape's name, falling back to its universal name.
func (s *Shape) Name() string {
	if name := s.elem.SelectAttrValue("Name", ""); name != "" {
		return name
	}
	return s.elem.SelectAttrValue("NameU", "")
}

// Kind classifies the shape as a group, a connector or a plain shape.
func (s *Shape) Kind() Kind {
	switch {
	case s.Type() == "Group":
		return KindGroup
	case s.IsConnector():
		return KindConnector
	default:
		return KindShape
	}
}

// IsConnector reports whether the shape is the connector side of a
// connection row or is a one-dimensional shape with begin and end points.
func (s *Shape) IsConnector() bool {
	if s.page.connectors().connectors[s.id] {
		return true
	}
	_, hasBegin := s.CellValue(CellBeginX)
	_, hasEnd := s.CellValue(CellEndX)
	return hasBegin && hasEnd
}

// Parent returns the enclosing group shape, or nil for a top-level shape.
func (s *Shape) Parent() *Shape {
	shapes := s.elem.Parent()
	if shapes == nil {
		return nil
	}
	owner := shapes.Parent()
	if owner == nil || owner.Tag != "Shape" {
		return nil
	}
	return s.page.shapeFor(owner)
}

// Children returns the direct sub-shapes in document order.
func (s *Shape) Children() []*Shape {
	shapes := s.elem.SelectElement("Shapes")
	if shapes == nil {
		return nil
	}
	var out []*Shape
	for _, el := range shapes.SelectElements("Shape") {
		if c := s.page.shapeFor(el); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Descendants returns every shape nested below s, depth-first.
func (s *Shape) Descendants() []*Shape {
	var out []*Shape
	for _, c := range s.Children() {
		out = append(out, c)
		out = append(out, c.Descendants()...)
	}
	return out
}

// Master returns the master page the shape is an instance of, taken from the
// shape's own Master attribute or that of its nearest ancestor.
func (s *Shape) Master() *Page {
	if s.page.isMaster {
		return nil
	}
	for el := s.elem; el != nil && el.Tag == "Shape"; {
		if ref := el.SelectAttrValue("Master", ""); ref != "" {
			return s.page.doc.masterByRef(ref)
		}
		shapes := el.Parent()
		if shapes == nil {
			break
		}
		el = shapes.Parent()
	}
	return nil
}

// MasterShape returns the master shape this shape inherits from, or nil. It
// is resolved on every call so that edits to the master stay visible.
func (s *Shape) MasterShape() *Shape {
	master := s.Master()
	if master == nil {
		return nil
	}
	if ref := s.elem.SelectAttrValue("MasterShape", ""); ref != "" {
		id, err := strconv.Atoi(ref)
		if err != nil {
			return nil
		}
		return master.FindShapeByID(id)
	}
	if s.elem.SelectAttrValue("Master", "") != "" {
		if top := master.Shapes(); len(top) > 0 {
			return top[0]
		}
	}
	return nil
}

func (s *Shape) cellElement(name string) *etree.Element {
	for _, el := range s.elem.ChildElements() {
		if el.Tag == "Cell" && el.SelectAttrValue("N", "") == name {
			return el
		}
	}
	return nil
}

// HasCell reports whether the shape itself, not its master, defines name.
func (s *Shape) HasCell(name string) bool {
	return s.cellElement(name) != nil
}

// CellValue returns the value of a cell, falling back to the master shape when
// the shape does not override it.
func (s *Shape) CellValue(name string) (string, bool) {
	if el := s.cellElement(name); el != nil {
		return el.SelectAttrValue("V", ""), true
	}
	if ms := s.MasterShape(); ms != nil {
		return ms.CellValue(name)
	}
	return "", false
}

// CellFloat returns a cell as a number. Missing or non-numeric cells yield
// false.
func (s *Shape) CellFloat(name string) (float64, bool) {
	v, ok := s.CellValue(name)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (s *Shape) cellFloat(name string) float64 {
	f, _ := s.CellFloat(name)
	return f
}

// Cells returns the resolved value of every cell defined on the shape or its
// master shape.
func (s *Shape) Cells() map[string]string {
	out := make(map[string]string)
	if ms := s.MasterShape(); ms != nil {
		for name, v := range ms.Cells() {
			out[name] = v
		}
	}
	for _, el := range s.elem.ChildElements() {
		if el.Tag == "Cell" {
			out[el.SelectAttrValue("N", "")] = el.SelectAttrValue("V", "")
		}
	}
	return out
}

// SetCell writes a local override of the named cell. A formula on the cell is
// dropped so the written value sticks.
func (s *Shape) SetCell(name string, value any) {
	el := s.cellElement(name)
	if el == nil {
		el = etree.NewElement("Cell")
		el.CreateAttr("N", name)
		s.elem.InsertChildAt(s.cellInsertIndex(), el)
	}
	el.CreateAttr("V", formatCellValue(value))
	el.RemoveAttr("F")
}

// cellInsertIndex returns the child index after the last Cell element.
func (s *Shape) cellInsertIndex() int {
	idx := 0
	for _, el := range s.elem.ChildElements() {
		if el.Tag == "Cell" {
			idx = el.Index() + 1
		}
	}
	return idx
}

// RemoveCell drops the local override so the master's value shows through
// again.
func (s *Shape) RemoveCell(name string) bool {
	el := s.cellElement(name)
	if el == nil {
		return false
	}
	s.elem.RemoveChild(el)
	return true
}

func formatCellValue(v any) string {
	switch vv := v.(type) {
	case bool:
		if vv {
			return "1"
		}
		return "0"
	default:
		return expression.Format(v)
	}
}

// X returns PinX.
func (s *Shape) X() float64 { return s.cellFloat(CellPinX) }

// Y returns PinY.
func (s *Shape) Y() float64 { return s.cellFloat(CellPinY) }

// Width returns the Width cell.
func (s *Shape) Width() float64 { return s.cellFloat(CellWidth) }

// Height returns the Height cell.
func (s *Shape) Height() float64 { return s.cellFloat(CellHeight) }

// Angle returns the rotation in radians.
func (s *Shape) Angle() float64 { return s.cellFloat(CellAngle) }

// LineWeight returns the LineWeight cell.
func (s *Shape) LineWeight() float64 { return s.cellFloat(CellLineWeight) }

// LineColor returns the LineColor cell.
func (s *Shape) LineColor() string {
	v, _ := s.CellValue(CellLineColor)
	return v
}

// Setters write local cell overrides.

func (s *Shape) SetX(v float64)          { s.SetCell(CellPinX, v) }
func (s *Shape) SetY(v float64)          { s.SetCell(CellPinY, v) }
func (s *Shape) SetWidth(v float64)      { s.SetCell(CellWidth, v) }
func (s *Shape) SetHeight(v float64)     { s.SetCell(CellHeight, v) }
func (s *Shape) SetAngle(v float64)      { s.SetCell(CellAngle, v) }
func (s *Shape) SetLineWeight(v float64) { s.SetCell(CellLineWeight, v) }
func (s *Shape) SetLineColor(v string)   { s.SetCell(CellLineColor, v) }

// Move shifts the pin position by dx, dy.
func (s *Shape) Move(dx, dy float64) {
	s.SetX(s.X() + dx)
	s.SetY(s.Y() + dy)
}

// AbsolutePosition returns the pin position in page coordinates. A sub-shape's
// pin is local to its group, whose origin sits at the group's PinX-LocPinX,
// PinY-LocPinY.
func (s *Shape) AbsolutePosition() (x, y float64) {
	x, y = s.X(), s.Y()
	for p := s.Parent(); p != nil; p = p.Parent() {
		x += p.X() - p.cellFloat(CellLocPinX)
		y += p.Y() - p.cellFloat(CellLocPinY)
	}
	return x, y
}

func (s *Shape) textElement() *etree.Element {
	return s.elem.SelectElement("Text")
}

// Text returns the shape text, inheriting the master's text when the shape
// has none of its own.
func (s *Shape) Text() string {
	if el := s.textElement(); el != nil {
		var b strings.Builder
		collectText(el, &b)
		return b.String()
	}
	if ms := s.MasterShape(); ms != nil {
		return ms.Text()
	}
	return ""
}

// HasText reports whether the shape has its own Text element.
func (s *Shape) HasText() bool {
	return s.textElement() != nil
}

func collectText(el *etree.Element, b *strings.Builder) {
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			b.WriteString(t.Data)
		case *etree.Element:
			collectText(t, b)
		}
	}
}

// SetText replaces the shape's own text. Leading character, paragraph and
// tab format markers are kept.
func (s *Shape) SetText(text string) {
	el := s.textElement()
	if el == nil {
		el = etree.NewElement("Text")
		if shapes := s.elem.SelectElement("Shapes"); shapes != nil {
			s.elem.InsertChildAt(shapes.Index(), el)
		} else {
			s.elem.AddChild(el)
		}
	}

	var markers []*etree.Element
leading:
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.Element:
			if isFormatMarker(t) {
				markers = append(markers, t)
				continue
			}
			break leading
		case *etree.CharData:
			if strings.TrimSpace(t.Data) != "" {
				break leading
			}
		}
	}
	for len(el.Child) > 0 {
		el.RemoveChildAt(len(el.Child) - 1)
	}
	for _, m := range markers {
		el.AddChild(m)
	}
	el.CreateText(text)
}

func isFormatMarker(el *etree.Element) bool {
	switch el.Tag {
	case "cp", "pp", "tp":
		return len(el.Child) == 0
	}
	return false
}

// DataProperties returns the shape data (Property section) rows as label to
// value, inheriting rows from the master shape.
func (s *Shape) DataProperties() map[string]string {
	out := make(map[string]string)
	if ms := s.MasterShape(); ms != nil {
		for k, v := range ms.DataProperties() {
			out[k] = v
		}
	}
	for _, section := range s.elem.SelectElements("Section") {
		if section.SelectAttrValue("N", "") != "Property" {
			continue
		}
		for _, row := range section.SelectElements("Row") {
			key := row.SelectAttrValue("N", "")
			value := ""
			for _, cell := range row.SelectElements("Cell") {
				switch cell.SelectAttrValue("N", "") {
				case "Label":
					if label := cell.SelectAttrValue("V", ""); label != "" {
						key = label
					}
				case "Value":
					value = cell.SelectAttrValue("V", "")
				}
			}
			if key != "" {
				out[key] = value
			}
		}
	}
	return out
}

// Connects returns the connection rows in which the shape appears.
func (s *Shape) Connects() []Connect {
	return s.page.ConnectsOf(s.id)
}

// ConnectedShapes returns the shapes on the other side of the shape's
// connection rows.
func (s *Shape) ConnectedShapes() []*Shape {
	return s.page.ConnectedShapesOf(s.id)
}

func (s *Shape) subtreeIDs() map[int]bool {
	ids := map[int]bool{s.id: true}
	for _, d := range s.Descendants() {
		ids[d.id] = true
	}
	return ids
}

// Remove detaches the shape and its sub-shapes from the page and drops every
// connection row that references one of them.
func (s *Shape) Remove() error {
	parent := s.elem.Parent()
	if parent == nil || s.page.index[s.id] != s {
		return fmt.Errorf("remove shape %d: %w", s.id, ErrNotFound)
	}
	ids := s.subtreeIDs()
	// Pin the high-water mark while the removed ids are still on the page.
	s.page.ids.maxID()
	parent.RemoveChild(s.elem)
	for id := range ids {
		delete(s.page.index, id)
	}
	s.page.dropConnects(ids)
	s.page.invalidateConnectors()
	return nil
}

// Copy duplicates the shape and its sub-shapes onto target, or onto the
// shape's own page when target is nil. Every copied shape gets a fresh id;
// master references are kept, and connection rows between two shapes of the
// copied subtree are duplicated for the copy.
func (s *Shape) Copy(target *Page) (*Shape, error) {
	if target == nil {
		target = s.page
	}
	if target.doc != s.page.doc || (!target.isMaster && target.Index() < 0) {
		return nil, fmt.Errorf("copy shape %d: target page %q: %w", s.id, target.Name(), ErrNotFound)
	}
	clone, mapping, err := s.cloneInto(target)
	if err != nil {
		return nil, err
	}
	target.shapesElement(true).AddChild(clone)
	if err := target.indexSubtree(clone); err != nil {
		return nil, err
	}
	target.cloneConnects(s.page, mapping)
	return target.index[mapping[s.id]], nil
}

// CopyInPlace duplicates the shape and inserts the copy into the same parent,
// immediately before the original.
func (s *Shape) CopyInPlace() (*Shape, error) {
	parent := s.elem.Parent()
	if parent == nil {
		return nil, fmt.Errorf("copy shape %d: %w", s.id, ErrNotFound)
	}
	clone, mapping, err := s.cloneInto(s.page)
	if err != nil {
		return nil, err
	}
	parent.InsertChildAt(s.elem.Index(), clone)
	if err := s.page.indexSubtree(clone); err != nil {
		return nil, err
	}
	s.page.cloneConnects(s.page, mapping)
	return s.page.index[mapping[s.id]], nil
}

// cloneInto deep-copies the shape element with fresh ids from target's
// allocator. The clone is not yet attached.
func (s *Shape) cloneInto(target *Page) (*etree.Element, map[int]int, error) {
	clone := container.CloneSubtree(s.elem)
	if clone.SelectAttrValue("Master", "") == "" {
		if master := s.Master(); master != nil {
			clone.CreateAttr("Master", strconv.Itoa(master.ID()))
		}
	}
	if err := target.ensureMasterRels(clone); err != nil {
		return nil, nil, err
	}
	mapping := target.ids.reserveFrom(clone)
	return clone, mapping, nil
}
