package container

import (
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// NSRelationships is the namespace of package relationship parts.
const NSRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"

// Relationship is a single entry of a .rels part.
type Relationship struct {
	ID         string
	Type       string
	Target     string
	TargetMode string
}

// Relationships is the live relationship part of a source part. Changes are
// made to the underlying XML tree directly.
type Relationships struct {
	pkg    *Package
	source string
	name   string
	doc    *etree.Document
}

// RelsPathFor returns the name of the relationship part belonging to source,
// e.g. "visio/pages/pages.xml" -> "visio/pages/_rels/pages.xml.rels". An empty
// source addresses the package-level "_rels/.rels".
func RelsPathFor(source string) string {
	source = normalize(source)
	dir, file := path.Split(source)
	return dir + "_rels/" + file + ".rels"
}

// ResolveTarget resolves a relationship target relative to the directory of
// its source part, returning a package part name.
func ResolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return normalize(target)
	}
	return normalize(path.Join(path.Dir(normalize(source)), target))
}

// relativeTarget is the inverse of ResolveTarget for targets added by this
// package.
func relativeTarget(source, partName string) string {
	dir := path.Dir(normalize(source))
	partName = normalize(partName)
	if dir == "." {
		return partName
	}
	from := strings.Split(dir, "/")
	to := strings.Split(partName, "/")
	common := 0
	for common < len(from) && common < len(to)-1 && from[common] == to[common] {
		common++
	}
	var parts []string
	for range from[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[common:]...)
	return strings.Join(parts, "/")
}

// Relationships returns the relationship part of source. A missing part yields
// an empty set that is stored in the package on the first Add.
func (p *Package) Relationships(source string) (*Relationships, error) {
	name := RelsPathFor(source)
	rels := &Relationships{pkg: p, source: normalize(source), name: name}
	if !p.Has(name) {
		return rels, nil
	}
	doc, err := p.Part(name)
	if err != nil {
		return nil, err
	}
	rels.doc = doc
	return rels, nil
}

// Name returns the part name of the relationship part.
func (r *Relationships) Name() string {
	return r.name
}

func (r *Relationships) elements() []*etree.Element {
	if r.doc == nil || r.doc.Root() == nil {
		return nil
	}
	return r.doc.Root().SelectElements("Relationship")
}

func toRelationship(el *etree.Element) Relationship {
	return Relationship{
		ID:         el.SelectAttrValue("Id", ""),
		Type:       el.SelectAttrValue("Type", ""),
		Target:     el.SelectAttrValue("Target", ""),
		TargetMode: el.SelectAttrValue("TargetMode", ""),
	}
}

// All returns every relationship in document order.
func (r *Relationships) All() []Relationship {
	var out []Relationship
	for _, el := range r.elements() {
		out = append(out, toRelationship(el))
	}
	return out
}

// Get returns the relationship with the given id.
func (r *Relationships) Get(id string) (Relationship, bool) {
	for _, el := range r.elements() {
		if el.SelectAttrValue("Id", "") == id {
			return toRelationship(el), true
		}
	}
	return Relationship{}, false
}

// ByType returns all relationships of the given type.
func (r *Relationships) ByType(relType string) []Relationship {
	var out []Relationship
	for _, el := range r.elements() {
		if el.SelectAttrValue("Type", "") == relType {
			out = append(out, toRelationship(el))
		}
	}
	return out
}

// PartName resolves the target of rel to a package part name.
func (r *Relationships) PartName(rel Relationship) string {
	return ResolveTarget(r.source, rel.Target)
}

// Find returns the relationship of the given type pointing at partName.
func (r *Relationships) Find(relType, partName string) (Relationship, bool) {
	partName = normalize(partName)
	for _, rel := range r.ByType(relType) {
		if r.PartName(rel) == partName {
			return rel, true
		}
	}
	return Relationship{}, false
}

// Add appends a relationship of relType pointing at partName and returns its
// newly allocated id.
func (r *Relationships) Add(relType, partName string) string {
	if r.doc == nil {
		root := etree.NewElement("Relationships")
		root.CreateAttr("xmlns", NSRelationships)
		r.doc = NewXMLDocument(root)
		r.pkg.PutPart(r.name, r.doc)
	}
	id := r.nextID()
	el := r.doc.Root().CreateElement("Relationship")
	el.CreateAttr("Id", id)
	el.CreateAttr("Type", relType)
	el.CreateAttr("Target", relativeTarget(r.source, partName))
	return id
}

func (r *Relationships) nextID() string {
	maxID := 0
	for _, el := range r.elements() {
		id := el.SelectAttrValue("Id", "")
		if n, err := strconv.Atoi(strings.TrimPrefix(id, "rId")); err == nil && n > maxID {
			maxID = n
		}
	}
	return "rId" + strconv.Itoa(maxID+1)
}

// Remove deletes the relationship with the given id.
func (r *Relationships) Remove(id string) bool {
	for _, el := range r.elements() {
		if el.SelectAttrValue("Id", "") == id {
			r.doc.Root().RemoveChild(el)
			return true
		}
	}
	return false
}
