package vsdx

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
)

// Connect is one row of a page's connection table: the FromCell of the
// connector shape FromID is glued to the ToCell of shape ToID.
type Connect struct {
	FromID   int    `json:"from_id"`
	FromCell string `json:"from_cell"`
	ToID     int    `json:"to_id"`
	ToCell   string `json:"to_cell"`
}

// Other returns the id on the opposite side of the row from id.
func (c Connect) Other(id int) int {
	if c.FromID == id {
		return c.ToID
	}
	return c.FromID
}

// connectorIndex is derived from a page's Connects element. It is rebuilt on
// demand after any change to shapes or connection rows.
type connectorIndex struct {
	rows       []Connect
	byShape    map[int][]Connect
	connectors map[int]bool
}

func buildConnectorIndex(connects *etree.Element) *connectorIndex {
	idx := &connectorIndex{
		byShape:    make(map[int][]Connect),
		connectors: make(map[int]bool),
	}
	if connects == nil {
		return idx
	}
	for _, el := range connects.SelectElements("Connect") {
		c, ok := parseConnect(el)
		if !ok {
			continue
		}
		idx.rows = append(idx.rows, c)
		idx.byShape[c.FromID] = append(idx.byShape[c.FromID], c)
		if c.ToID != c.FromID {
			idx.byShape[c.ToID] = append(idx.byShape[c.ToID], c)
		}
		idx.connectors[c.FromID] = true
	}
	return idx
}

func parseConnect(el *etree.Element) (Connect, bool) {
	from, err := strconv.Atoi(el.SelectAttrValue("FromSheet", ""))
	if err != nil {
		return Connect{}, false
	}
	to, err := strconv.Atoi(el.SelectAttrValue("ToSheet", ""))
	if err != nil {
		return Connect{}, false
	}
	return Connect{
		FromID:   from,
		FromCell: el.SelectAttrValue("FromCell", ""),
		ToID:     to,
		ToCell:   el.SelectAttrValue("ToCell", ""),
	}, true
}

func (p *Page) connectsElement(create bool) *etree.Element {
	root := p.root()
	if root == nil {
		return nil
	}
	el := root.SelectElement("Connects")
	if el == nil && create {
		el = root.CreateElement("Connects")
	}
	return el
}

func (p *Page) connectors() *connectorIndex {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connIdx == nil {
		p.connIdx = buildConnectorIndex(p.connectsElement(false))
	}
	return p.connIdx
}

func (p *Page) invalidateConnectors() {
	p.mu.Lock()
	p.connIdx = nil
	p.mu.Unlock()
}

// Connects returns every connection row on the page.
func (p *Page) Connects() []Connect {
	return append([]Connect(nil), p.connectors().rows...)
}

// ConnectsOf returns the rows in which the shape id appears on either side.
func (p *Page) ConnectsOf(id int) []Connect {
	return append([]Connect(nil), p.connectors().byShape[id]...)
}

// ConnectedShapesOf returns the shapes on the opposite side of every row that
// involves id, without duplicates and in row order. Rows naming a shape that no
// longer exists are skipped.
func (p *Page) ConnectedShapesOf(id int) []*Shape {
	seen := make(map[int]bool)
	var out []*Shape
	for _, c := range p.connectors().byShape[id] {
		other := c.Other(id)
		if seen[other] {
			continue
		}
		seen[other] = true
		if s := p.FindShapeByID(other); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// ConnectorsBetween returns the connector shapes that link a and b. A
// connector qualifies when both a and b are among its peers, or when it is
// one of the two and the other is its peer.
func (p *Page) ConnectorsBetween(a, b int) []*Shape {
	idx := p.connectors()
	peers := func(id int) map[int]bool {
		out := make(map[int]bool)
		for _, c := range idx.byShape[id] {
			out[c.Other(id)] = true
		}
		return out
	}

	var out []*Shape
	seen := make(map[int]bool)
	for _, c := range idx.rows {
		conn := c.FromID
		if seen[conn] {
			continue
		}
		seen[conn] = true
		ps := peers(conn)
		match := (ps[a] && ps[b]) || (conn == a && ps[b]) || (conn == b && ps[a])
		if !match {
			continue
		}
		if s := p.FindShapeByID(conn); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// ConnectorsBetweenText is ConnectorsBetween with both shapes located by
// exact text. It returns nil when either text matches no shape.
func (p *Page) ConnectorsBetweenText(a, b string) []*Shape {
	sa, sb := p.FindShapeByText(a), p.FindShapeByText(b)
	if sa == nil || sb == nil {
		return nil
	}
	return p.ConnectorsBetween(sa.ID(), sb.ID())
}

// AddConnect appends a row gluing fromCell of connector to toCell of target.
// Both shapes must be on this page.
func (p *Page) AddConnect(connector *Shape, fromCell string, target *Shape, toCell string) error {
	if connector == nil || target == nil || connector.page != p || target.page != p {
		return fmt.Errorf("connect shapes on page %q: %w", p.Name(), ErrNotFound)
	}
	p.appendConnect(Connect{FromID: connector.ID(), FromCell: fromCell, ToID: target.ID(), ToCell: toCell})
	p.invalidateConnectors()
	return nil
}

func (p *Page) appendConnect(c Connect) {
	el := p.connectsElement(true).CreateElement("Connect")
	el.CreateAttr("FromSheet", strconv.Itoa(c.FromID))
	if c.FromCell != "" {
		el.CreateAttr("FromCell", c.FromCell)
	}
	el.CreateAttr("ToSheet", strconv.Itoa(c.ToID))
	if c.ToCell != "" {
		el.CreateAttr("ToCell", c.ToCell)
	}
}

// dropConnects removes every row that references one of ids.
func (p *Page) dropConnects(ids map[int]bool) int {
	connects := p.connectsElement(false)
	if connects == nil {
		return 0
	}
	removed := 0
	for _, el := range connects.SelectElements("Connect") {
		c, ok := parseConnect(el)
		if !ok {
			continue
		}
		if ids[c.FromID] || ids[c.ToID] {
			connects.RemoveChild(el)
			removed++
		}
	}
	if removed > 0 {
		p.invalidateConnectors()
	}
	return removed
}

// cloneConnects copies onto p every row of src whose two ends were both
// remapped, rewriting the ids through mapping.
func (p *Page) cloneConnects(src *Page, mapping map[int]int) {
	added := false
	for _, c := range src.connectors().rows {
		from, okFrom := mapping[c.FromID]
		to, okTo := mapping[c.ToID]
		if !okFrom || !okTo {
			continue
		}
		p.appendConnect(Connect{FromID: from, FromCell: c.FromCell, ToID: to, ToCell: c.ToCell})
		added = true
	}
	if added {
		p.invalidateConnectors()
	}
}
