package vsdx

import (
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/ukaji3/vsdx-go/pkg/vsdx/container"
)

// pagesHeading is the HeadingPairs entry that counts page titles.
const pagesHeading = "Pages"

// appMetadata wraps the extended-properties part, whose HeadingPairs and
// TitlesOfParts vectors list page names alongside other titles.
type appMetadata struct {
	partName string
	doc      *etree.Document
}

type headingPair struct {
	name    string
	count   int
	countEl *etree.Element
}

func (m *appMetadata) root() *etree.Element {
	return m.doc.Root()
}

func (m *appMetadata) headingVector(create bool) *etree.Element {
	pairs := m.root().SelectElement("HeadingPairs")
	if pairs == nil {
		if !create {
			return nil
		}
		pairs = m.root().CreateElement("HeadingPairs")
	}
	vec := pairs.SelectElement("vector")
	if vec == nil && create {
		vec = pairs.CreateElement("vt:vector")
		vec.CreateAttr("size", "0")
		vec.CreateAttr("baseType", "variant")
	}
	return vec
}

func (m *appMetadata) titlesVector(create bool) *etree.Element {
	titles := m.root().SelectElement("TitlesOfParts")
	if titles == nil {
		if !create {
			return nil
		}
		titles = m.root().CreateElement("TitlesOfParts")
	}
	vec := titles.SelectElement("vector")
	if vec == nil && create {
		vec = titles.CreateElement("vt:vector")
		vec.CreateAttr("size", "0")
		vec.CreateAttr("baseType", "lpstr")
	}
	return vec
}

func (m *appMetadata) headingPairs() []headingPair {
	vec := m.headingVector(false)
	if vec == nil {
		return nil
	}
	variants := vec.SelectElements("variant")
	var out []headingPair
	for i := 0; i+1 < len(variants); i += 2 {
		pair := headingPair{}
		if name := variants[i].SelectElement("lpstr"); name != nil {
			pair.name = strings.TrimSpace(name.Text())
		}
		if count := variants[i+1].SelectElement("i4"); count != nil {
			pair.count, _ = strconv.Atoi(strings.TrimSpace(count.Text()))
			pair.countEl = count
		}
		out = append(out, pair)
	}
	return out
}

// validate checks that every heading pair count is an integer.
func (m *appMetadata) validate() error {
	vec := m.headingVector(false)
	if vec == nil {
		return nil
	}
	variants := vec.SelectElements("variant")
	for i := 1; i < len(variants); i += 2 {
		count := variants[i].SelectElement("i4")
		if count == nil {
			continue
		}
		if _, err := strconv.Atoi(strings.TrimSpace(count.Text())); err != nil {
			return newIntegrityError(m.partName, "heading pair count %q is not an integer", count.Text())
		}
	}
	return nil
}

// pagesSlot returns the offset and length of the page titles within
// TitlesOfParts together with the element holding the count. countEl is nil
// when no pair is named "Pages".
func (m *appMetadata) pagesSlot() (offset, count int, countEl *etree.Element) {
	pairs := m.headingPairs()
	idx := slices.IndexFunc(pairs, func(p headingPair) bool { return p.name == pagesHeading })
	if idx < 0 {
		return 0, 0, nil
	}
	for _, p := range pairs[:idx] {
		offset += p.count
	}
	return offset, pairs[idx].count, pairs[idx].countEl
}

func (m *appMetadata) titles() []string {
	vec := m.titlesVector(false)
	if vec == nil {
		return nil
	}
	var out []string
	for _, el := range vec.SelectElements("lpstr") {
		out = append(out, el.Text())
	}
	return out
}

// pageNames returns the page titles recorded in the part.
func (m *appMetadata) pageNames() []string {
	offset, count, _ := m.pagesSlot()
	titles := m.titles()
	if offset > len(titles) {
		return nil
	}
	end := min(offset+count, len(titles))
	return slices.Clone(titles[offset:end])
}

// setPageNames rewrites the Pages count and the page titles, keeping every
// other title in place.
func (m *appMetadata) setPageNames(names []string) {
	offset, count, countEl := m.pagesSlot()
	if countEl == nil {
		countEl = m.addPagesHeading()
		offset, count = 0, 0
	}
	countEl.SetText(strconv.Itoa(len(names)))

	titles := m.titles()
	offset = min(offset, len(titles))
	end := min(offset+count, len(titles))
	rebuilt := slices.Concat(titles[:offset], names, titles[end:])

	vec := m.titlesVector(true)
	for _, el := range vec.SelectElements("lpstr") {
		vec.RemoveChild(el)
	}
	for _, title := range rebuilt {
		vec.CreateElement("vt:lpstr").SetText(title)
	}
	vec.CreateAttr("size", strconv.Itoa(len(rebuilt)))
}

// addPagesHeading inserts a Pages pair at the front of HeadingPairs and
// returns its count element.
func (m *appMetadata) addPagesHeading() *etree.Element {
	vec := m.headingVector(true)

	name := etree.NewElement("vt:variant")
	name.CreateElement("vt:lpstr").SetText(pagesHeading)
	count := etree.NewElement("vt:variant")
	countEl := count.CreateElement("vt:i4")
	countEl.SetText("0")

	vec.InsertChildAt(0, count)
	vec.InsertChildAt(0, name)
	vec.CreateAttr("size", strconv.Itoa(len(vec.SelectElements("variant"))))
	return countEl
}

// loadAppMetadata returns the extended-properties part of the package. A
// package without one gets a new, empty part. created is true whenever the
// part has no "Pages" heading yet. A heading pair with a non-integer count is
// an IntegrityError.
func loadAppMetadata(pkg *container.Package) (m *appMetadata, created bool, err error) {
	rootRels, err := pkg.Relationships("")
	if err != nil {
		return nil, false, err
	}
	partName := ""
	if rels := rootRels.ByType(RelExtendedProps); len(rels) > 0 {
		partName = rootRels.PartName(rels[0])
	}
	if partName != "" && pkg.Has(partName) {
		doc, err := pkg.Part(partName)
		if err != nil {
			return nil, false, err
		}
		m = &appMetadata{partName: partName, doc: doc}
		if err := m.validate(); err != nil {
			return nil, false, err
		}
		_, _, countEl := m.pagesSlot()
		return m, countEl == nil, nil
	}

	if partName == "" {
		partName = defaultAppPart
		rootRels.Add(RelExtendedProps, partName)
	}
	root := etree.NewElement("Properties")
	root.CreateAttr("xmlns", NSExtendedProps)
	root.CreateAttr("xmlns:vt", NSDocPropsTypes)
	root.CreateElement("Application").SetText("Microsoft Visio")
	doc := container.NewXMLDocument(root)
	pkg.PutPart(partName, doc)
	if err := pkg.AddOverride(partName, ContentTypeExtendedProps); err != nil {
		return nil, false, err
	}
	m = &appMetadata{partName: partName, doc: doc}
	m.setPageNames(nil)
	return m, true, nil
}
