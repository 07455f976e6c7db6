package vsdx

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/vsdx-go/internal/fixture"
)

func TestMasterInheritance(t *testing.T) {
	doc := openFixture(t, fixture.Inheritance())
	page := doc.Pages()[0]

	plain := page.FindShapeByID(1)
	require.NotNil(t, plain)
	require.NotNil(t, plain.MasterShape())
	assert.Equal(t, 5, plain.MasterShape().ID())
	assert.Equal(t, "Master text", plain.Text())
	assert.False(t, plain.HasText())
	assert.Equal(t, 2.0, plain.Width())
	assert.Equal(t, 0.01, plain.LineWeight())
	assert.Equal(t, 4.0, plain.X())

	overridden := page.FindShapeByID(2)
	assert.Equal(t, "Own text", overridden.Text())
	assert.Equal(t, 3.0, overridden.Width())
	assert.Equal(t, 1.0, overridden.Height())

	sub := page.FindShapeByID(4)
	require.NotNil(t, sub.MasterShape())
	assert.Equal(t, 6, sub.MasterShape().ID())
	assert.Equal(t, "Inner master", sub.Text())
	assert.Equal(t, "#FF0000", sub.LineColor())
	assert.Equal(t, 3, sub.Parent().ID())

	master := doc.Masters()[0]
	assert.Nil(t, master.FindShapeByID(5).MasterShape())
}

func TestInheritanceIsLive(t *testing.T) {
	doc := openFixture(t, fixture.Inheritance())
	page := doc.Pages()[0]
	masterShape := doc.Masters()[0].FindShapeByID(5)

	plain := page.FindShapeByID(1)
	overridden := page.FindShapeByID(2)

	masterShape.SetCell(CellWidth, 7.5)
	masterShape.SetText("Edited master")

	assert.Equal(t, 7.5, plain.Width())
	assert.Equal(t, "Edited master", plain.Text())
	assert.Equal(t, 3.0, overridden.Width())
	assert.Equal(t, "Own text", overridden.Text())

	plain.SetWidth(1.25)
	assert.Equal(t, 1.25, plain.Width())
	assert.Equal(t, 7.5, masterShape.Width())

	assert.True(t, plain.RemoveCell(CellWidth))
	assert.Equal(t, 7.5, plain.Width())
	assert.False(t, plain.RemoveCell(CellWidth))
}

func TestSetCellDropsFormula(t *testing.T) {
	doc := openFixture(t, fixture.New().Page("P",
		`<Shape ID="1" Type="Shape"><Cell N="PinX" V="1" F="Inh"/><Text>t</Text></Shape>`))
	s := doc.Pages()[0].FindShapeByID(1)

	s.SetX(2.5)
	cell := s.cellElement(CellPinX)
	assert.Equal(t, "2.5", cell.SelectAttrValue("V", ""))
	assert.Nil(t, cell.SelectAttr("F"))

	s.SetLineColor("#00FF00")
	assert.Equal(t, "#00FF00", s.LineColor())
	// New cells go after the existing ones, ahead of Text.
	assert.Equal(t, "Cell", s.elem.ChildElements()[1].Tag)
	assert.Equal(t, "Text", s.elem.ChildElements()[2].Tag)
}

func TestSetTextKeepsFormatMarkers(t *testing.T) {
	doc := openFixture(t, fixture.New().Page("P",
		`<Shape ID="1" Type="Shape"><Text><cp IX="0"/><pp IX="0"/>Hello <fld IX="0">World</fld></Text></Shape>`))
	s := doc.Pages()[0].FindShapeByID(1)
	assert.Equal(t, "Hello World", s.Text())

	s.SetText("Bye")
	assert.Equal(t, "Bye", s.Text())
	text := s.elem.SelectElement("Text")
	assert.NotNil(t, text.SelectElement("cp"))
	assert.NotNil(t, text.SelectElement("pp"))
	assert.Nil(t, text.SelectElement("fld"))
}

func TestSetTextBeforeNestedShapes(t *testing.T) {
	doc := openFixture(t, fixture.New().Page("P",
		fixture.ShapeAttrs(`ID="1" Type="Group"`, "", fixture.Shape(2, "child"))))
	group := doc.Pages()[0].FindShapeByID(1)

	group.SetText("group label")
	children := group.elem.ChildElements()
	assert.Equal(t, "Text", children[0].Tag)
	assert.Equal(t, "Shapes", children[1].Tag)
	assert.Equal(t, "group label", group.Text())
}

func TestFindShapes(t *testing.T) {
	doc := openFixture(t, fixture.New().Page("P",
		fixture.Shape(1, "  Start  ")+
			fixture.ShapeAttrs(`ID="2" Type="Group"`, "Group", fixture.Shape(3, "Start here")+fixture.Shape(4, "Start"))))
	page := doc.Pages()[0]

	assert.Equal(t, 1, page.FindShapeByText("Start").ID())
	assert.Nil(t, page.FindShapeByText("Missing"))
	assert.Nil(t, page.FindShapeByID(99))

	ids := func(shapes []*Shape) []int {
		var out []int
		for _, s := range shapes {
			out = append(out, s.ID())
		}
		return out
	}
	assert.Equal(t, []int{1, 4}, ids(page.FindShapesByText("Start")))
	assert.Equal(t, []int{1, 3, 4}, ids(page.FindShapesContainingText("Start")))
	assert.Equal(t, []int{1, 2}, ids(page.Shapes()))
	assert.Equal(t, []int{1, 2, 3, 4}, ids(page.AllShapes()))
	assert.Equal(t, []int{3, 4}, ids(page.FindShapeByID(2).Children()))
	assert.Nil(t, page.FindShapeByID(1).Parent())
}

func TestFindShapesWithSameMaster(t *testing.T) {
	doc := openFixture(t, fixture.Inheritance())
	page := doc.Pages()[0]

	same := page.FindShapesWithSameMaster(page.FindShapeByID(1))
	var ids []int
	for _, s := range same {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []int{1, 2, 3}, ids)
	assert.Len(t, page.FindShapesWithSameMaster(page.FindShapeByID(4)), 1)
}

func TestAbsolutePositionNested(t *testing.T) {
	inner := fixture.ShapeAttrs(`ID="3" Type="Shape"`, "leaf", "", "PinX", "0.5", "PinY", "0.25")
	middle := fixture.ShapeAttrs(`ID="2" Type="Group"`, "", inner,
		"PinX", "1", "PinY", "1", "LocPinX", "0.5", "LocPinY", "0.5")
	outer := fixture.ShapeAttrs(`ID="1" Type="Group"`, "", middle,
		"PinX", "4", "PinY", "3", "LocPinX", "1", "LocPinY", "1")
	doc := openFixture(t, fixture.New().Page("P", outer))
	page := doc.Pages()[0]

	tests := []struct {
		id   int
		x, y float64
	}{
		{1, 4, 3},
		{2, 1 + 3, 1 + 2},
		{3, 0.5 + 0.5 + 3, 0.25 + 0.5 + 2},
	}

	for _, tt := range tests {
		x, y := page.FindShapeByID(tt.id).AbsolutePosition()
		if x != tt.x || y != tt.y {
			t.Errorf("AbsolutePosition(%d) = (%v, %v), expected (%v, %v)", tt.id, x, y, tt.x, tt.y)
		}
	}
}

func TestMove(t *testing.T) {
	doc := openFixture(t, fixture.New().Page("P", fixture.Shape(1, "", "PinX", "1", "PinY", "2")))
	s := doc.Pages()[0].FindShapeByID(1)
	s.Move(0.5, -1)
	assert.Equal(t, 1.5, s.X())
	assert.Equal(t, 1.0, s.Y())
}

func TestDataProperties(t *testing.T) {
	doc := openFixture(t, fixture.New().Page("P", `<Shape ID="1" Type="Shape">`+
		`<Section N="Property">`+
		`<Row N="Owner"><Cell N="Value" V="Alice"/><Cell N="Label" V="Owner"/></Row>`+
		`<Row N="Row_2"><Cell N="Value" V="42"/><Cell N="Label" V="Cost"/></Row>`+
		`</Section><Section N="User"><Row N="Hidden"><Cell N="Value" V="x"/></Row></Section></Shape>`))

	props := doc.Pages()[0].FindShapeByID(1).DataProperties()
	assert.Equal(t, map[string]string{"Owner": "Alice", "Cost": "42"}, props)
}

func TestKind(t *testing.T) {
	doc := openFixture(t, fixture.Connectors())
	page := doc.Pages()[0]
	assert.Equal(t, KindShape, page.FindShapeByID(1).Kind())
	assert.Equal(t, KindConnector, page.FindShapeByID(6).Kind())

	grouped := openFixture(t, fixture.New().Page("P", fixture.ShapeAttrs(`ID="1" Type="Group"`, "", "")))
	assert.Equal(t, KindGroup, grouped.Pages()[0].FindShapeByID(1).Kind())
}

func TestRemoveShape(t *testing.T) {
	doc := openFixture(t, fixture.Connectors())
	page := doc.Pages()[0]

	require.NoError(t, page.FindShapeByID(2).Remove())
	assert.Nil(t, page.FindShapeByID(2))
	for _, c := range page.Connects() {
		assert.NotEqual(t, 2, c.ToID)
	}
	assert.Len(t, page.Connects(), 2)

	// Removing the highest id does not free it for reuse.
	require.NoError(t, page.FindShapeByID(7).Remove())
	s, err := page.NewShape(ShapeSpec{Text: "new"})
	require.NoError(t, err)
	assert.Equal(t, 8, s.ID())
}

func TestRemoveGroupRemovesSubtree(t *testing.T) {
	doc := openFixture(t, fixture.New().PageWithConnects("P",
		fixture.ShapeAttrs(`ID="1" Type="Group"`, "", fixture.Shape(2, "in"))+fixture.Shape(3, "out"),
		fixture.Connect(3, "BeginX", 2, "PinX")))
	page := doc.Pages()[0]

	group := page.FindShapeByID(1)
	require.NoError(t, group.Remove())
	assert.Nil(t, page.FindShapeByID(2))
	assert.Empty(t, page.Connects())
	assert.ErrorIs(t, group.Remove(), ErrNotFound)
}

func TestCopyShapeAssignsFreshIDs(t *testing.T) {
	doc := openFixture(t, fixture.New().PageWithConnects("P",
		fixture.ShapeAttrs(`ID="10" Type="Group"`, "group", fixture.Shape(11, "a")+fixture.Shape(12, "b")),
		fixture.Connect(12, "BeginX", 11, "PinX")))
	page := doc.Pages()[0]
	maxBefore := page.MaxID()

	cp, err := page.FindShapeByID(10).Copy(nil)
	require.NoError(t, err)

	seen := map[int]bool{}
	for _, s := range page.AllShapes() {
		assert.False(t, seen[s.ID()], "duplicate id %d", s.ID())
		seen[s.ID()] = true
	}
	assert.Greater(t, cp.ID(), maxBefore)
	for _, c := range cp.Children() {
		assert.Greater(t, c.ID(), maxBefore)
	}
	assert.Equal(t, "group", cp.Text())
	assert.Len(t, page.Connects(), 2)
	children := cp.Children()
	require.Len(t, children, 2)
	assert.Equal(t, []*Shape{children[0]}, children[1].ConnectedShapes())
}

func TestCopyInPlace(t *testing.T) {
	doc := openFixture(t, fixture.New().Page("P", fixture.Shape(1, "first")+fixture.Shape(2, "second")))
	page := doc.Pages()[0]

	cp, err := page.FindShapeByID(2).CopyInPlace()
	require.NoError(t, err)
	shapes := page.Shapes()
	require.Len(t, shapes, 3)
	assert.Equal(t, cp, shapes[1])
	assert.Equal(t, 3, cp.ID())
}

func TestCopyShapeToOtherPageKeepsMaster(t *testing.T) {
	doc := openFixture(t, fixture.Inheritance())
	target, err := doc.AddPage("Target", Last())
	require.NoError(t, err)

	sub := doc.Pages()[0].FindShapeByID(4)
	cp, err := sub.Copy(target)
	require.NoError(t, err)

	assert.Equal(t, "Inner master", cp.Text())
	assert.Equal(t, "2", cp.elem.SelectAttrValue("Master", ""))
	rels, err := doc.Package().Relationships(target.PartName())
	require.NoError(t, err)
	assert.Len(t, rels.ByType(RelMaster), 1)

	path := filepath.Join(t.TempDir(), "copy.vsdx")
	require.NoError(t, doc.Save(path))
	_, err = Open(path)
	require.NoError(t, err)
}

func TestCopyShapeToForeignPage(t *testing.T) {
	doc := openFixture(t, fixture.Connectors())
	other := openFixture(t, fixture.Connectors())
	_, err := doc.Pages()[0].FindShapeByID(1).Copy(other.Pages()[0])
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewShape(t *testing.T) {
	doc := openFixture(t, fixture.Inheritance())
	page := doc.Pages()[0]
	master := doc.Masters()[0]

	s, err := page.NewShape(ShapeSpec{Text: "made", X: 1, Y: 2, Width: 3, Height: 4})
	require.NoError(t, err)
	assert.Equal(t, 5, s.ID())
	assert.Equal(t, "made", s.Text())
	assert.Equal(t, 1.5, s.cellFloat(CellLocPinX))

	inst, err := page.NewShape(ShapeSpec{Master: master, X: 1, Y: 1})
	require.NoError(t, err)
	assert.Equal(t, "Master text", inst.Text())
	assert.Equal(t, 2.0, inst.Width())

	_, err = page.NewShape(ShapeSpec{Master: page})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindReplace(t *testing.T) {
	doc := openFixture(t, fixture.Inheritance())
	page := doc.Pages()[0]

	// Shapes 1 and 3 inherit "Master text"; shape 2 has its own text.
	n := page.FindReplace("text", "words")
	assert.Equal(t, 3, n)
	assert.Equal(t, "Master words", page.FindShapeByID(1).Text())
	assert.Equal(t, "Own words", page.FindShapeByID(2).Text())
	assert.Equal(t, "Master text", doc.Masters()[0].FindShapeByID(5).Text())
	assert.Equal(t, 0, page.FindReplace("", "x"))
}
