package vsdx

import (
	"strconv"
	"sync"

	"github.com/beevik/etree"
)

// idAllocator hands out shape ids for one page. The current maximum is found
// by scanning the page once; afterwards every id handed out is strictly
// greater than any id ever present on the page, including ids of shapes that
// have since been removed.
type idAllocator struct {
	mu      sync.Mutex
	page    *Page
	max     int
	scanned bool
}

func newIDAllocator(p *Page) *idAllocator {
	return &idAllocator{page: p}
}

func (a *idAllocator) ensureScanned() {
	if a.scanned {
		return
	}
	a.scanned = true
	walkShapeElements(a.page.root(), func(el *etree.Element) {
		if id, err := shapeElementID(el); err == nil && id > a.max {
			a.max = id
		}
	})
}

// maxID returns the largest id allocated or seen on the page.
func (a *idAllocator) maxID() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ensureScanned()
	return a.max
}

// nextID returns a fresh id.
func (a *idAllocator) nextID() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ensureScanned()
	a.max++
	return a.max
}

// reserveFrom assigns a fresh id to every shape element of the detached
// subtree rooted at root, in pre-order, and returns the old-to-new mapping.
func (a *idAllocator) reserveFrom(root *etree.Element) map[int]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ensureScanned()

	mapping := make(map[int]int)
	walkShapeElements(root, func(el *etree.Element) {
		a.max++
		if old, err := shapeElementID(el); err == nil {
			mapping[old] = a.max
		}
		el.CreateAttr("ID", strconv.Itoa(a.max))
	})
	return mapping
}

// walkShapeElements calls fn for root (when it is a Shape) and every nested
// Shape element below it, in document order.
func walkShapeElements(root *etree.Element, fn func(*etree.Element)) {
	if root == nil {
		return
	}
	if root.Tag == "Shape" {
		fn(root)
	}
	for _, child := range root.ChildElements() {
		switch child.Tag {
		case "Shapes", "Shape":
			walkShapeElements(child, fn)
		}
	}
}

func shapeElementID(el *etree.Element) (int, error) {
	return strconv.Atoi(el.SelectAttrValue("ID", ""))
}
