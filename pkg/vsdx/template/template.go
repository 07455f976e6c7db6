// Package template renders a diagram as a template against a context map.
//
// Rendering runs four phases over the document, in order:
//
//  1. showif filtering: pages and shapes whose "{% showif expr %}" is falsy
//     are removed.
//  2. Conditional blocks: among sibling shapes, a run of "{% if %}",
//     "{% elif %}" and "{% else %}" shapes keeps only the first branch whose
//     guard holds.
//  3. Loops: a shape with "{% for x in expr %}" is replicated once per item,
//     each copy seeing x and a "loop" record. The template shape is removed.
//  4. Substitution: "{% set self.f = expr %}" directives and "{{ expr }}"
//     placeholders are evaluated for every remaining shape.
//
// Directives are read from a shape's resolved text, so text inherited from a
// master can carry them. Processed directives are stripped from the text.
package template

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ukaji3/vsdx-go/pkg/vsdx"
	"github.com/ukaji3/vsdx-go/pkg/vsdx/expression"
)

// Options configures an Engine.
type Options struct {
	// Logger receives per-phase debug output. If nil, output is discarded.
	Logger *log.Logger
}

// DefaultOptions returns default render options.
func DefaultOptions() Options {
	return Options{}
}

// Engine renders documents and pages.
type Engine struct {
	logger *log.Logger
}

// New creates an Engine.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{logger: logger}
}

// Render renders doc against ctx with default options.
func Render(doc *vsdx.Document, ctx map[string]any) error {
	return New(DefaultOptions()).Render(doc, ctx)
}

// RenderPage renders a single page against ctx with default options.
func RenderPage(page *vsdx.Page, ctx map[string]any) error {
	return New(DefaultOptions()).RenderPage(page, ctx)
}

// Render renders every page of doc. Pages whose name carries a falsy showif
// are removed from the document. On error the document is left partially
// rendered.
func (e *Engine) Render(doc *vsdx.Document, ctx map[string]any) error {
	if err := e.filterPages(doc, ctx); err != nil {
		return err
	}
	renders := make([]*pageRender, 0, len(doc.Pages()))
	for _, page := range doc.Pages() {
		r := e.newPageRender(page, ctx)
		if err := r.structure(); err != nil {
			return err
		}
		renders = append(renders, r)
	}
	for _, r := range renders {
		if err := r.substitute(); err != nil {
			return err
		}
	}
	return nil
}

// RenderPage renders a single page. The page's own name is not filtered.
func (e *Engine) RenderPage(page *vsdx.Page, ctx map[string]any) error {
	r := e.newPageRender(page, ctx)
	if err := r.structure(); err != nil {
		return err
	}
	return r.substitute()
}

func (e *Engine) filterPages(doc *vsdx.Document, ctx map[string]any) error {
	for _, page := range doc.Pages() {
		name := page.Name()
		d, ok := findDirective(name, kindShowIf)
		if !ok {
			continue
		}
		if err := d.validate(); err != nil {
			return vsdx.NewTemplateError(name, 0, d.raw, err)
		}
		v, err := expression.Eval(d.expr, ctx)
		if err != nil {
			return vsdx.NewTemplateError(name, 0, d.expr, err)
		}
		if !expression.Truthy(v) {
			e.logger.Debug("page hidden", "page", name, "expr", d.expr)
			if err := doc.RemovePage(page.Index()); err != nil {
				return err
			}
			continue
		}
		if err := page.SetName(strings.TrimSpace(d.strip(name))); err != nil {
			return err
		}
	}
	return nil
}

// pageRender carries the state of one page through the phases.
type pageRender struct {
	logger *log.Logger
	page   *vsdx.Page
	ctx    map[string]any
	// bindings maps shapes produced by loop expansion to the context of
	// their innermost iteration.
	bindings map[int]map[string]any
}

func (e *Engine) newPageRender(page *vsdx.Page, ctx map[string]any) *pageRender {
	return &pageRender{
		logger:   e.logger.With("page", page.Name()),
		page:     page,
		ctx:      ctx,
		bindings: make(map[int]map[string]any),
	}
}

// structure runs the showif, conditional and loop phases.
func (r *pageRender) structure() error {
	if err := r.filter(r.page.Shapes(), r.ctx); err != nil {
		return err
	}
	if err := r.conditionals(r.page.Shapes(), r.ctx); err != nil {
		return err
	}
	return r.loops(r.page.Shapes(), r.ctx)
}

func (r *pageRender) substitute() error {
	for _, s := range r.page.AllShapes() {
		ctx, ok := r.bindings[s.ID()]
		if !ok {
			ctx = r.ctx
		}
		if err := s.ApplyContext(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *pageRender) fail(s *vsdx.Shape, src string, err error) error {
	var exprErr *expression.Error
	if errors.As(err, &exprErr) {
		src = exprErr.Expr
	}
	return vsdx.NewTemplateError(r.page.Name(), s.ID(), src, err)
}

// filter removes shapes whose showif is falsy. Loop templates are skipped
// together with their sub-shapes; their showif is evaluated per iteration.
func (r *pageRender) filter(shapes []*vsdx.Shape, ctx map[string]any) error {
	for _, s := range shapes {
		text := s.Text()
		if _, ok := findDirective(text, kindFor); ok {
			continue
		}
		if d, ok := findDirective(text, kindShowIf); ok {
			keep, err := r.evalShowIf(s, d, ctx)
			if err != nil {
				return err
			}
			if !keep {
				r.logger.Debug("shape hidden", "shape", s.ID(), "expr", d.expr)
				if err := s.Remove(); err != nil {
					return err
				}
				continue
			}
			s.SetText(d.strip(text))
		}
		if err := r.filter(s.Children(), ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *pageRender) evalShowIf(s *vsdx.Shape, d directive, ctx map[string]any) (bool, error) {
	if err := d.validate(); err != nil {
		return false, r.fail(s, d.raw, err)
	}
	v, err := expression.Eval(d.expr, ctx)
	if err != nil {
		return false, r.fail(s, d.expr, err)
	}
	return expression.Truthy(v), nil
}

// branch returns the conditional directive of s, if any.
func branch(s *vsdx.Shape) (directive, bool) {
	return findDirective(s.Text(), kindIf, kindElif, kindElse)
}

// conditionals resolves if/elif/else runs among siblings, then recurses into
// the surviving shapes. Loop templates are left for their iterations.
func (r *pageRender) conditionals(siblings []*vsdx.Shape, ctx map[string]any) error {
	var survivors []*vsdx.Shape
	for i := 0; i < len(siblings); {
		s := siblings[i]
		d, ok := branch(s)
		if !ok {
			survivors = append(survivors, s)
			i++
			continue
		}
		if d.kind != kindIf {
			return r.fail(s, d.raw, fmt.Errorf("%q without a preceding if", d.kind))
		}

		chain := []*vsdx.Shape{s}
		guards := []directive{d}
		j := i + 1
		for j < len(siblings) {
			next, ok := branch(siblings[j])
			if !ok || next.kind == kindIf {
				break
			}
			chain = append(chain, siblings[j])
			guards = append(guards, next)
			j++
			if next.kind == kindElse {
				break
			}
		}

		chosen := -1
		for k, g := range guards {
			if err := g.validate(); err != nil {
				return r.fail(chain[k], g.raw, err)
			}
			if g.kind == kindElse {
				chosen = k
				break
			}
			ok, err := expression.EvalBool(g.expr, ctx)
			if err != nil {
				return r.fail(chain[k], g.expr, err)
			}
			if ok {
				chosen = k
				break
			}
		}

		for k, member := range chain {
			if k == chosen {
				member.SetText(guards[k].strip(member.Text()))
				survivors = append(survivors, member)
				continue
			}
			if err := member.Remove(); err != nil {
				return err
			}
		}
		r.logger.Debug("resolved conditional", "shape", s.ID(), "branches", len(chain), "chosen", chosen)
		i = j
	}

	for _, s := range survivors {
		if _, ok := findDirective(s.Text(), kindFor); ok {
			continue
		}
		if err := r.conditionals(s.Children(), ctx); err != nil {
			return err
		}
	}
	return nil
}

// loops expands every outermost loop template among shapes and their
// sub-shapes.
func (r *pageRender) loops(shapes []*vsdx.Shape, ctx map[string]any) error {
	for _, s := range shapes {
		if d, ok := findDirective(s.Text(), kindFor); ok {
			if err := r.expand(s, d, ctx); err != nil {
				return err
			}
			continue
		}
		if err := r.loops(s.Children(), ctx); err != nil {
			return err
		}
	}
	return nil
}

// expand replicates tmpl once per item of its loop source, in order, before
// tmpl, and then removes tmpl. Each copy is filtered, has its conditionals
// resolved and its nested loops expanded with the iteration context.
func (r *pageRender) expand(tmpl *vsdx.Shape, d directive, ctx map[string]any) error {
	name, src, err := d.loopParts()
	if err != nil {
		return r.fail(tmpl, d.raw, err)
	}
	items, err := expression.EvalList(src, ctx)
	if err != nil {
		return r.fail(tmpl, src, err)
	}

	text := d.strip(tmpl.Text())
	for i, item := range items {
		iter := make(map[string]any, len(ctx)+2)
		maps.Copy(iter, ctx)
		iter[name] = item
		iter["loop"] = map[string]any{
			"index":  i + 1,
			"index0": i,
			"first":  i == 0,
			"last":   i == len(items)-1,
			"length": len(items),
		}

		clone, err := tmpl.CopyInPlace()
		if err != nil {
			return err
		}
		clone.SetText(text)
		r.bind(clone, iter)

		if err := r.filter([]*vsdx.Shape{clone}, iter); err != nil {
			return err
		}
		if r.page.FindShapeByID(clone.ID()) == nil {
			continue
		}
		if err := r.conditionals(clone.Children(), iter); err != nil {
			return err
		}
		if err := r.loops(clone.Children(), iter); err != nil {
			return err
		}
	}
	r.logger.Debug("expanded loop", "shape", tmpl.ID(), "var", name, "iterations", len(items))
	return tmpl.Remove()
}

func (r *pageRender) bind(s *vsdx.Shape, ctx map[string]any) {
	r.bindings[s.ID()] = ctx
	for _, sub := range s.Descendants() {
		r.bindings[sub.ID()] = ctx
	}
}
