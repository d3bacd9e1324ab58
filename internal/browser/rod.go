package browser

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// rodPage adapts a go-rod page to the Page interface
type rodPage struct {
	p *rod.Page
}

// FromRod wraps a live rod page
func FromRod(p *rod.Page) Page {
	return &rodPage{p: p}
}

func (p *rodPage) Navigate(url string) error {
	if err := p.p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return p.p.WaitLoad()
}

func (p *rodPage) URL() (string, error) {
	info, err := p.p.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (p *rodPage) ScrollBy(deltaY float64) error {
	_, err := p.p.Eval(`(dy) => window.scrollBy(0, dy)`, deltaY)
	return err
}

func (p *rodPage) ScrollTop() (float64, error) {
	res, err := p.p.Eval(`() => window.pageYOffset`)
	if err != nil {
		return 0, err
	}
	return res.Value.Num(), nil
}

func (p *rodPage) ScrollHeight() (float64, error) {
	res, err := p.p.Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, err
	}
	return res.Value.Num(), nil
}

func (p *rodPage) Find(kind QueryKind, expr string, timeout time.Duration) (Element, error) {
	pg := p.p
	if timeout > 0 {
		pg = pg.Timeout(timeout)
	}

	var el *rod.Element
	var err error
	if kind == QueryXPath {
		el, err = pg.ElementX(expr)
	} else {
		el, err = pg.Element(expr)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, expr)
	}
	if timeout > 0 {
		el = el.CancelTimeout()
	}
	return &rodElement{el: el}, nil
}

func (p *rodPage) FindAll(kind QueryKind, expr string) ([]Element, error) {
	var els rod.Elements
	var err error
	if kind == QueryXPath {
		els, err = p.p.ElementsX(expr)
	} else {
		els, err = p.p.Elements(expr)
	}
	if err != nil {
		return nil, err
	}

	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

// rodElement adapts a go-rod element to the Element interface
type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Input(text string) error {
	return e.el.Input(text)
}

func (e *rodElement) Clear() error {
	_, err := e.el.Eval(`() => { this.value = "" }`)
	return err
}

func (e *rodElement) Backspace() error {
	return e.el.Type(input.Backspace)
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Attribute(name string) (string, error) {
	v, err := e.el.Property(name)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func (e *rodElement) Visible() (bool, error) {
	return e.el.Visible()
}

func (e *rodElement) Enabled() (bool, error) {
	v, err := e.el.Property("disabled")
	if err != nil {
		return false, err
	}
	return !v.Bool(), nil
}

func (e *rodElement) ScrollIntoView() error {
	return e.el.ScrollIntoView()
}
