// Package fixture builds small but complete .vsdx packages for tests.
package fixture

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ukaji3/vsdx-go/pkg/vsdx/container"
)

const (
	nsVisio = "http://schemas.microsoft.com/office/visio/2012/main"
	nsR     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsRels  = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsCT    = "http://schemas.openxmlformats.org/package/2006/content-types"

	relBase  = "http://schemas.microsoft.com/visio/2010/relationships/"
	relProps = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	ctBase   = "application/vnd.ms-visio."
)

type page struct {
	name     string
	shapes   string
	connects string
}

type master struct {
	id     int
	name   string
	shapes string
}

// Builder accumulates pages and masters and renders them as a package.
type Builder struct {
	pages   []page
	masters []master
	noApp   bool
	// ExtraTitles are appended to TitlesOfParts under a "Masters" heading,
	// the way Visio lists master names after page names.
	ExtraTitles []string
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{}
}

// Page adds a page whose Shapes element holds shapes.
func (b *Builder) Page(name, shapes string) *Builder {
	return b.PageWithConnects(name, shapes, "")
}

// PageWithConnects adds a page with Connect rows.
func (b *Builder) PageWithConnects(name, shapes, connects string) *Builder {
	b.pages = append(b.pages, page{name: name, shapes: shapes, connects: connects})
	return b
}

// Master adds a master page with the given ID.
func (b *Builder) Master(id int, name, shapes string) *Builder {
	b.masters = append(b.masters, master{id: id, name: name, shapes: shapes})
	return b
}

// WithoutAppProperties omits docProps/app.xml from the package.
func (b *Builder) WithoutAppProperties() *Builder {
	b.noApp = true
	return b
}

// Package renders the package in memory.
func (b *Builder) Package() (*container.Package, error) {
	pkg := container.New()
	put := func(name, body string) {
		pkg.PutRaw(name, []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+"\n"+body))
	}

	var ct strings.Builder
	ct.WriteString(`<Types xmlns="` + nsCT + `">`)
	ct.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	ct.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	ct.WriteString(`<Override PartName="/visio/document.xml" ContentType="` + ctBase + `drawing.main+xml"/>`)
	ct.WriteString(`<Override PartName="/visio/pages/pages.xml" ContentType="` + ctBase + `pages+xml"/>`)
	for i := range b.pages {
		fmt.Fprintf(&ct, `<Override PartName="/visio/pages/page%d.xml" ContentType="%spage+xml"/>`, i+1, ctBase)
	}
	if len(b.masters) > 0 {
		ct.WriteString(`<Override PartName="/visio/masters/masters.xml" ContentType="` + ctBase + `masters+xml"/>`)
		for i := range b.masters {
			fmt.Fprintf(&ct, `<Override PartName="/visio/masters/master%d.xml" ContentType="%smaster+xml"/>`, i+1, ctBase)
		}
	}
	if !b.noApp {
		ct.WriteString(`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>`)
	}
	ct.WriteString(`</Types>`)
	put(container.ContentTypesPart, ct.String())

	rootRels := `<Relationships xmlns="` + nsRels + `">` +
		`<Relationship Id="rId1" Type="` + relBase + `document" Target="visio/document.xml"/>`
	if !b.noApp {
		rootRels += `<Relationship Id="rId2" Type="` + relProps + `" Target="docProps/app.xml"/>`
	}
	rootRels += `</Relationships>`
	put("_rels/.rels", rootRels)

	put("visio/document.xml", `<VisioDocument xmlns="`+nsVisio+`" xmlns:r="`+nsR+`" xml:space="preserve"><DocumentSettings/></VisioDocument>`)
	docRels := `<Relationships xmlns="` + nsRels + `">` +
		`<Relationship Id="rId1" Type="` + relBase + `pages" Target="pages/pages.xml"/>`
	if len(b.masters) > 0 {
		docRels += `<Relationship Id="rId2" Type="` + relBase + `masters" Target="masters/masters.xml"/>`
	}
	docRels += `</Relationships>`
	put("visio/_rels/document.xml.rels", docRels)

	b.putPages(put)
	if len(b.masters) > 0 {
		b.putMasters(put)
	}
	if !b.noApp {
		put("docProps/app.xml", b.appXML())
	}
	return pkg, nil
}

func (b *Builder) putPages(put func(name, body string)) {
	var entries, rels strings.Builder
	entries.WriteString(`<Pages xmlns="` + nsVisio + `" xmlns:r="` + nsR + `" xml:space="preserve">`)
	rels.WriteString(`<Relationships xmlns="` + nsRels + `">`)
	for i, p := range b.pages {
		n := i + 1
		fmt.Fprintf(&entries, `<Page ID="%d" NameU="%s" Name="%s" ViewScale="1">`+
			`<PageSheet LineStyle="0" FillStyle="0" TextStyle="0">`+
			`<Cell N="PageWidth" V="8.5"/><Cell N="PageHeight" V="11"/>`+
			`</PageSheet><Rel r:id="rId%d"/></Page>`, i, escape(p.name), escape(p.name), n)
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="%spage" Target="page%d.xml"/>`, n, relBase, n)

		body := `<PageContents xmlns="` + nsVisio + `" xmlns:r="` + nsR + `" xml:space="preserve">`
		if p.shapes != "" {
			body += "<Shapes>" + p.shapes + "</Shapes>"
		}
		if p.connects != "" {
			body += "<Connects>" + p.connects + "</Connects>"
		}
		body += "</PageContents>"
		put(fmt.Sprintf("visio/pages/page%d.xml", n), body)

		if len(b.masters) > 0 {
			var pageRels strings.Builder
			pageRels.WriteString(`<Relationships xmlns="` + nsRels + `">`)
			for j := range b.masters {
				fmt.Fprintf(&pageRels, `<Relationship Id="rId%d" Type="%smaster" Target="../masters/master%d.xml"/>`, j+1, relBase, j+1)
			}
			pageRels.WriteString(`</Relationships>`)
			put(fmt.Sprintf("visio/pages/_rels/page%d.xml.rels", n), pageRels.String())
		}
	}
	entries.WriteString(`</Pages>`)
	rels.WriteString(`</Relationships>`)
	put("visio/pages/pages.xml", entries.String())
	put("visio/pages/_rels/pages.xml.rels", rels.String())
}

func (b *Builder) putMasters(put func(name, body string)) {
	var entries, rels strings.Builder
	entries.WriteString(`<Masters xmlns="` + nsVisio + `" xmlns:r="` + nsR + `" xml:space="preserve">`)
	rels.WriteString(`<Relationships xmlns="` + nsRels + `">`)
	for i, m := range b.masters {
		n := i + 1
		fmt.Fprintf(&entries, `<Master ID="%d" NameU="%s" Name="%s"><PageSheet/><Rel r:id="rId%d"/></Master>`,
			m.id, escape(m.name), escape(m.name), n)
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="%smaster" Target="master%d.xml"/>`, n, relBase, n)
		put(fmt.Sprintf("visio/masters/master%d.xml", n),
			`<MasterContents xmlns="`+nsVisio+`" xmlns:r="`+nsR+`" xml:space="preserve"><Shapes>`+m.shapes+`</Shapes></MasterContents>`)
	}
	entries.WriteString(`</Masters>`)
	rels.WriteString(`</Relationships>`)
	put("visio/masters/masters.xml", entries.String())
	put("visio/masters/_rels/masters.xml.rels", rels.String())
}

func (b *Builder) appXML() string {
	var s strings.Builder
	s.WriteString(`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties" ` +
		`xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes">`)
	s.WriteString(`<Application>Microsoft Visio</Application>`)
	pairs := 2
	if len(b.ExtraTitles) > 0 {
		pairs = 4
	}
	fmt.Fprintf(&s, `<HeadingPairs><vt:vector size="%d" baseType="variant">`, pairs)
	fmt.Fprintf(&s, `<vt:variant><vt:lpstr>Pages</vt:lpstr></vt:variant><vt:variant><vt:i4>%d</vt:i4></vt:variant>`, len(b.pages))
	if len(b.ExtraTitles) > 0 {
		fmt.Fprintf(&s, `<vt:variant><vt:lpstr>Masters</vt:lpstr></vt:variant><vt:variant><vt:i4>%d</vt:i4></vt:variant>`, len(b.ExtraTitles))
	}
	s.WriteString(`</vt:vector></HeadingPairs>`)
	titles := len(b.pages) + len(b.ExtraTitles)
	fmt.Fprintf(&s, `<TitlesOfParts><vt:vector size="%d" baseType="lpstr">`, titles)
	for _, p := range b.pages {
		s.WriteString(`<vt:lpstr>` + escape(p.name) + `</vt:lpstr>`)
	}
	for _, t := range b.ExtraTitles {
		s.WriteString(`<vt:lpstr>` + escape(t) + `</vt:lpstr>`)
	}
	s.WriteString(`</vt:vector></TitlesOfParts></Properties>`)
	return s.String()
}

// Write saves the package as name inside dir and returns its path.
func (b *Builder) Write(dir, name string) (string, error) {
	pkg, err := b.Package()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := pkg.Save(path); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile is Write with the name "fixture.vsdx". It is meant for tests and
// panics on failure, which only happens when dir is unwritable.
func (b *Builder) WriteFile(dir string) string {
	path, err := b.Write(dir, "fixture.vsdx")
	if err != nil {
		panic(err)
	}
	return path
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string {
	return escaper.Replace(s)
}

// Shape renders a top-level shape element with cells given as name, value
// pairs and optional text.
func Shape(id int, text string, cells ...string) string {
	return ShapeAttrs(fmt.Sprintf(`ID="%d" Type="Shape"`, id), text, "", cells...)
}

// ShapeAttrs renders a shape element with raw attributes, text, nested shapes
// (raw XML, may be empty) and cells given as name, value pairs.
func ShapeAttrs(attrs, text, children string, cells ...string) string {
	var s strings.Builder
	s.WriteString("<Shape " + attrs + ">")
	for i := 0; i+1 < len(cells); i += 2 {
		fmt.Fprintf(&s, `<Cell N="%s" V="%s"/>`, cells[i], escape(cells[i+1]))
	}
	if text != "" {
		s.WriteString("<Text>" + escape(text) + "</Text>")
	}
	if children != "" {
		s.WriteString("<Shapes>" + children + "</Shapes>")
	}
	s.WriteString("</Shape>")
	return s.String()
}

// Connect renders a Connect row.
func Connect(from int, fromCell string, to int, toCell string) string {
	return fmt.Sprintf(`<Connect FromSheet="%d" FromCell="%s" ToSheet="%d" ToCell="%s"/>`, from, fromCell, to, toCell)
}

// Connectors returns a single-page diagram with three boxes and two
// connectors: 6 joins "Shape A" (1) to "Shape B" (2) and 7 joins "Shape C" (5)
// to "Shape B".
func Connectors() *Builder {
	shapes := Shape(1, "Shape A", "PinX", "1", "PinY", "1", "Width", "1", "Height", "0.5") +
		Shape(2, "Shape B", "PinX", "3", "PinY", "1", "Width", "1", "Height", "0.5") +
		Shape(5, "Shape C", "PinX", "3", "PinY", "3", "Width", "1", "Height", "0.5") +
		Shape(6, "", "BeginX", "1.5", "BeginY", "1", "EndX", "2.5", "EndY", "1") +
		Shape(7, "", "BeginX", "3", "BeginY", "2.75", "EndX", "3", "EndY", "1.25")
	connects := Connect(6, "BeginX", 1, "PinX") +
		Connect(6, "EndX", 2, "PinX") +
		Connect(7, "BeginX", 5, "PinX") +
		Connect(7, "EndX", 2, "PinX")
	return New().PageWithConnects("Page-1", shapes, connects)
}

// Inheritance returns a diagram whose page holds instances of master 2
// ("Box"): shape 1 inherits everything, shape 2 overrides its text and
// Width, and group 3 holds sub-shape 4 that inherits from master shape 6.
func Inheritance() *Builder {
	masterShapes := ShapeAttrs(`ID="5" Type="Group"`, "Master text", Shape(6, "Inner master", "PinX", "0.5", "LineColor", "#FF0000"),
		"Width", "2", "Height", "1", "PinX", "1", "PinY", "0.5", "LineWeight", "0.01")
	pageShapes := ShapeAttrs(`ID="1" Type="Shape" Master="2"`, "", "", "PinX", "4", "PinY", "4") +
		ShapeAttrs(`ID="2" Type="Shape" Master="2"`, "Own text", "", "PinX", "6", "PinY", "4", "Width", "3") +
		ShapeAttrs(`ID="3" Type="Group" Master="2"`, "", ShapeAttrs(`ID="4" Type="Shape" MasterShape="6"`, "", ""), "PinX", "2", "PinY", "2")
	return New().Master(2, "Box", masterShapes).Page("Page-1", pageShapes)
}
