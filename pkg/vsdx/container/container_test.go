package container

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelsPathFor(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"", "_rels/.rels"},
		{"visio/document.xml", "visio/_rels/document.xml.rels"},
		{"/visio/pages/pages.xml", "visio/pages/_rels/pages.xml.rels"},
	}

	for _, tt := range tests {
		result := RelsPathFor(tt.source)
		if result != tt.expected {
			t.Errorf("RelsPathFor(%q) = %q, expected %q", tt.source, result, tt.expected)
		}
	}
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		source   string
		target   string
		expected string
	}{
		{"", "visio/document.xml", "visio/document.xml"},
		{"visio/document.xml", "pages/pages.xml", "visio/pages/pages.xml"},
		{"visio/pages/page1.xml", "../masters/master1.xml", "visio/masters/master1.xml"},
		{"visio/pages/pages.xml", "/visio/pages/page2.xml", "visio/pages/page2.xml"},
	}

	for _, tt := range tests {
		result := ResolveTarget(tt.source, tt.target)
		if result != tt.expected {
			t.Errorf("ResolveTarget(%q, %q) = %q, expected %q", tt.source, tt.target, result, tt.expected)
		}
	}
}

func TestRelativeTarget(t *testing.T) {
	tests := []struct {
		source   string
		partName string
		expected string
	}{
		{"", "docProps/app.xml", "docProps/app.xml"},
		{"visio/pages/pages.xml", "visio/pages/page3.xml", "page3.xml"},
		{"visio/pages/page1.xml", "visio/masters/master2.xml", "../masters/master2.xml"},
	}

	for _, tt := range tests {
		result := relativeTarget(tt.source, tt.partName)
		if result != tt.expected {
			t.Errorf("relativeTarget(%q, %q) = %q, expected %q", tt.source, tt.partName, result, tt.expected)
		}
		if back := ResolveTarget(tt.source, result); back != tt.partName {
			t.Errorf("ResolveTarget(%q, %q) = %q, expected %q", tt.source, result, back, tt.partName)
		}
	}
}

func samplePackage(t *testing.T) *Package {
	t.Helper()
	p := New()
	p.PutRaw("docProps/thumbnail.bin", []byte{0x00, 0x01, 0x02, 0xff})
	p.PutRaw("visio/document.xml", []byte(`<?xml version="1.0" encoding="UTF-8"?><VisioDocument xmlns="http://schemas.microsoft.com/office/visio/2012/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><Colors/></VisioDocument>`))
	return p
}

func TestPackageRoundTrip(t *testing.T) {
	p := samplePackage(t)

	doc, err := p.Part("visio/document.xml")
	require.NoError(t, err)
	doc.Root().CreateElement("FaceNames")

	path := filepath.Join(t.TempDir(), "out.vsdx")
	require.NoError(t, p.Save(path))

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, p.Names(), reopened.Names())

	raw, err := reopened.Raw("docProps/thumbnail.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01, 0x02, 0xff}, raw)

	doc2, err := reopened.Part("/visio/document.xml")
	require.NoError(t, err)
	assert.NotNil(t, doc2.Root().SelectElement("FaceNames"))
	assert.Equal(t, "http://schemas.microsoft.com/office/visio/2012/main", doc2.Root().NamespaceURI())
}

func TestPartNotFound(t *testing.T) {
	p := samplePackage(t)

	_, err := p.Part("visio/pages/page9.xml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPartNotFound))

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "get", cerr.Op)

	assert.ErrorIs(t, p.Remove("missing.xml"), ErrPartNotFound)
	require.NoError(t, p.Remove("docProps/thumbnail.bin"))
	assert.False(t, p.Has("docProps/thumbnail.bin"))
}

func TestOpenReaderRejectsGarbage(t *testing.T) {
	data := []byte("not a zip archive")
	_, err := OpenReader(bytes.NewReader(data), int64(len(data)))
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "open", cerr.Op)
}

func TestRelationships(t *testing.T) {
	p := New()

	rels, err := p.Relationships("visio/pages/pages.xml")
	require.NoError(t, err)
	assert.Empty(t, rels.All())
	assert.False(t, p.Has("visio/pages/_rels/pages.xml.rels"))

	id1 := rels.Add("urn:page", "visio/pages/page1.xml")
	id2 := rels.Add("urn:page", "visio/pages/page2.xml")
	assert.Equal(t, "rId1", id1)
	assert.Equal(t, "rId2", id2)
	assert.True(t, p.Has("visio/pages/_rels/pages.xml.rels"))

	rel, ok := rels.Get(id2)
	require.True(t, ok)
	assert.Equal(t, "page2.xml", rel.Target)
	assert.Equal(t, "visio/pages/page2.xml", rels.PartName(rel))

	found, ok := rels.Find("urn:page", "visio/pages/page1.xml")
	require.True(t, ok)
	assert.Equal(t, id1, found.ID)

	assert.True(t, rels.Remove(id1))
	assert.False(t, rels.Remove(id1))
	assert.Len(t, rels.ByType("urn:page"), 1)
	assert.Equal(t, "rId3", rels.Add("urn:page", "visio/pages/page3.xml"))
}

func TestContentTypes(t *testing.T) {
	p := New()
	root := etree.NewElement("Types")
	root.CreateAttr("xmlns", NSContentTypes)
	def := root.CreateElement("Default")
	def.CreateAttr("Extension", "xml")
	def.CreateAttr("ContentType", "application/xml")
	p.PutPart(ContentTypesPart, NewXMLDocument(root))

	require.NoError(t, p.AddOverride("visio/pages/page1.xml", "application/vnd.ms-visio.page+xml"))
	ct, err := p.ContentType("/visio/pages/page1.xml")
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.ms-visio.page+xml", ct)

	require.NoError(t, p.RemoveOverride("visio/pages/page1.xml"))
	ct, err = p.ContentType("visio/pages/page1.xml")
	require.NoError(t, err)
	assert.Equal(t, "application/xml", ct)
}

func TestCloneSubtreeIsDetached(t *testing.T) {
	parent := etree.NewElement("Shapes")
	shape := parent.CreateElement("Shape")
	shape.CreateAttr("ID", "1")

	clone := CloneSubtree(shape)
	clone.CreateAttr("ID", "2")

	assert.Nil(t, clone.Parent())
	assert.Equal(t, "1", shape.SelectAttrValue("ID", ""))
	assert.Len(t, parent.ChildElements(), 1)
}
