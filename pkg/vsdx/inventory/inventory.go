package inventory

import (
	"encoding/json"

	"github.com/ukaji3/vsdx-go/pkg/vsdx"
	"github.com/ukaji3/vsdx-go/pkg/vsdx/models"
)

// Build extracts structured data from an open document.
func Build(doc *vsdx.Document, opts Options) *models.DiagramData {
	data := &models.DiagramData{
		FileName: doc.Name(),
		Pages:    make([]models.PageData, 0, len(doc.Pages())),
	}
	for _, m := range doc.Masters() {
		data.Masters = append(data.Masters, m.Name())
	}
	for i, page := range doc.Pages() {
		data.Pages = append(data.Pages, buildPage(i, page, opts))
	}
	return data
}

func buildPage(index int, page *vsdx.Page, opts Options) models.PageData {
	pd := models.PageData{Index: index, Name: page.Name()}
	for _, s := range page.AllShapes() {
		if !include(s, opts.Mode) {
			continue
		}
		pd.Shapes = append(pd.Shapes, buildShape(s, opts.Mode))
	}
	if opts.ShouldIncludeConnects() {
		for _, c := range page.Connects() {
			pd.Connects = append(pd.Connects, models.ConnectData{
				FromID:   c.FromID,
				FromCell: c.FromCell,
				ToID:     c.ToID,
				ToCell:   c.ToCell,
			})
		}
	}
	return pd
}

func include(s *vsdx.Shape, mode Mode) bool {
	hasText := s.Text() != ""
	switch mode {
	case ModeLight:
		return hasText
	case ModeVerbose:
		return true
	default:
		return hasText || s.Kind() != vsdx.KindShape
	}
}

func buildShape(s *vsdx.Shape, mode Mode) models.ShapeData {
	x, y := s.AbsolutePosition()
	sd := models.ShapeData{
		ID:   s.ID(),
		Text: s.Text(),
		Kind: string(s.Kind()),
		L:    InchesToPixels(x),
		T:    InchesToPixels(y),
	}
	if parent := s.Parent(); parent != nil {
		id := parent.ID()
		sd.ParentID = &id
	}
	if m := s.Master(); m != nil {
		sd.Master = m.Name()
	}

	if mode == ModeVerbose {
		w, h := InchesToPixels(s.Width()), InchesToPixels(s.Height())
		sd.W, sd.H = &w, &h
		if angle := s.Angle(); angle != 0 {
			sd.Rotation = &angle
		}
		if props := s.DataProperties(); len(props) > 0 {
			sd.Properties = props
		}
	}
	return sd
}

// ToJSON serializes v (a *models.DiagramData or any part of it) to JSON.
func ToJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
