package container

import (
	"path"
	"strings"

	"github.com/beevik/etree"
)

// ContentTypesPart is the name of the package content-type catalog.
const ContentTypesPart = "[Content_Types].xml"

// NSContentTypes is the namespace of the content-type catalog.
const NSContentTypes = "http://schemas.openxmlformats.org/package/2006/content-types"

func (p *Package) contentTypes() (*etree.Element, error) {
	if !p.Has(ContentTypesPart) {
		root := etree.NewElement("Types")
		root.CreateAttr("xmlns", NSContentTypes)
		p.PutPart(ContentTypesPart, NewXMLDocument(root))
	}
	doc, err := p.Part(ContentTypesPart)
	if err != nil {
		return nil, err
	}
	return doc.Root(), nil
}

// ContentType returns the content type of partName, from its Override entry or
// the Default entry of its extension. It returns "" when neither exists.
func (p *Package) ContentType(partName string) (string, error) {
	root, err := p.contentTypes()
	if err != nil {
		return "", err
	}
	want := "/" + normalize(partName)
	for _, el := range root.SelectElements("Override") {
		if el.SelectAttrValue("PartName", "") == want {
			return el.SelectAttrValue("ContentType", ""), nil
		}
	}
	ext := strings.TrimPrefix(path.Ext(want), ".")
	for _, el := range root.SelectElements("Default") {
		if strings.EqualFold(el.SelectAttrValue("Extension", ""), ext) {
			return el.SelectAttrValue("ContentType", ""), nil
		}
	}
	return "", nil
}

// AddOverride registers contentType for partName, replacing an existing
// override for the same part.
func (p *Package) AddOverride(partName, contentType string) error {
	root, err := p.contentTypes()
	if err != nil {
		return err
	}
	want := "/" + normalize(partName)
	for _, el := range root.SelectElements("Override") {
		if el.SelectAttrValue("PartName", "") == want {
			el.CreateAttr("ContentType", contentType)
			return nil
		}
	}
	el := root.CreateElement("Override")
	el.CreateAttr("PartName", want)
	el.CreateAttr("ContentType", contentType)
	return nil
}

// RemoveOverride drops the override entry of partName if present.
func (p *Package) RemoveOverride(partName string) error {
	root, err := p.contentTypes()
	if err != nil {
		return err
	}
	want := "/" + normalize(partName)
	for _, el := range root.SelectElements("Override") {
		if el.SelectAttrValue("PartName", "") == want {
			root.RemoveChild(el)
		}
	}
	return nil
}
