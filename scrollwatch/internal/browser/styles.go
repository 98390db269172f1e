package browser

import "context"

// StyleInjector applies stylesheet and marker state through the page agent.
// It satisfies the dprtune Injector contract.
type StyleInjector struct {
	tab        *Tab
	markerAttr string
}

// NewStyleInjector creates a StyleInjector toggling markerAttr on <html>.
func NewStyleInjector(tab *Tab, markerAttr string) *StyleInjector {
	return &StyleInjector{tab: tab, markerAttr: markerAttr}
}

func (s *StyleInjector) ApplyStylesheet(ctx context.Context, id, css string) error {
	_, err := s.tab.Eval(ctx, `(id, css) => window.__scrollwatch_agent.setStyle(id, css)`, id, css)
	return err
}

func (s *StyleInjector) RemoveStylesheet(ctx context.Context, id string) error {
	_, err := s.tab.Eval(ctx, `(id) => window.__scrollwatch_agent.clearStyle(id)`, id)
	return err
}

func (s *StyleInjector) SetScrollingMarker(ctx context.Context, on bool) error {
	_, err := s.tab.Eval(ctx, `(attr, on) => window.__scrollwatch_agent.setMarker(attr, on)`, s.markerAttr, on)
	return err
}
