// Package cards rasterizes one still caption image per segment.
package cards

import (
	"fmt"

	"github.com/fogleman/gg"

	"github.com/deanable/RedditVideoMaker-sub000/agents/videomaker/text"
	"github.com/deanable/RedditVideoMaker-sub000/shared/config"
)

// Card is the drawable content of one segment: the display text plus the
// optional author/score header shown for titles and comments.
type Card struct {
	Text    string
	Author  string
	Score   int
	HasMeta bool
}

// Renderer produces caption card PNGs sized exactly to the configured
// dimensions, auto-fitting the font size between the configured bounds.
type Renderer struct {
	cfg config.CardConfig
}

func NewRenderer(cfg config.CardConfig) *Renderer {
	return &Renderer{cfg: cfg}
}

// Measurer returns a text measurer backed by the card font at the minimum
// configured size. The orchestrator paginates with it, which guarantees that
// every page fits the card's text region at the smallest size the renderer
// will ever pick.
func (r *Renderer) Measurer() (text.Measurer, error) {
	dc := gg.NewContext(1, 1)
	if err := dc.LoadFontFace(r.cfg.FontFile, r.cfg.MinFontSize); err != nil {
		return nil, fmt.Errorf("failed to load font %s: %w", r.cfg.FontFile, err)
	}
	return dc, nil
}

// TextRegion returns the width and height available for page text on a card.
func (r *Renderer) TextRegion() (w, h float64) {
	return float64(r.cfg.Width) * 0.9, float64(r.cfg.Height) * 0.72
}

// Render draws the card and writes it as a PNG to outPath.
func (r *Renderer) Render(card Card, outPath string) error {
	if card.Text == "" {
		return fmt.Errorf("card text cannot be empty")
	}

	dc := gg.NewContext(r.cfg.Width, r.cfg.Height)
	dc.SetHexColor(r.cfg.Background)
	dc.Clear()

	regionW, regionH := r.TextRegion()
	size, err := r.fitFontSize(dc, card.Text, regionW, regionH)
	if err != nil {
		return err
	}
	if err := dc.LoadFontFace(r.cfg.FontFile, size); err != nil {
		return fmt.Errorf("failed to load font %s: %w", r.cfg.FontFile, err)
	}

	cx := float64(r.cfg.Width) / 2
	cy := float64(r.cfg.Height) / 2

	if card.HasMeta {
		if err := r.drawHeader(dc, card); err != nil {
			return err
		}
		// Reload the body face; drawHeader switched to the header size.
		if err := dc.LoadFontFace(r.cfg.FontFile, size); err != nil {
			return fmt.Errorf("failed to load font %s: %w", r.cfg.FontFile, err)
		}
		cy = float64(r.cfg.Height) * 0.55
	}

	dc.SetHexColor(r.cfg.Foreground)
	dc.DrawStringWrapped(card.Text, cx, cy, 0.5, 0.5, regionW, r.cfg.LineSpacing, gg.AlignCenter)

	if err := dc.SavePNG(outPath); err != nil {
		return fmt.Errorf("failed to save card %s: %w", outPath, err)
	}
	return nil
}

// fitFontSize walks down from the maximum size until the wrapped text fits
// the region, stopping at the minimum bound. Pagination upstream measures
// with the minimum size, so the floor always fits.
func (r *Renderer) fitFontSize(dc *gg.Context, body string, regionW, regionH float64) (float64, error) {
	const step = 2.0
	for size := r.cfg.MaxFontSize; size > r.cfg.MinFontSize; size -= step {
		if err := dc.LoadFontFace(r.cfg.FontFile, size); err != nil {
			return 0, fmt.Errorf("failed to load font %s: %w", r.cfg.FontFile, err)
		}
		wrapped := dc.WordWrap(body, regionW)
		_, lineH := dc.MeasureString("Mg")
		if float64(len(wrapped))*lineH*r.cfg.LineSpacing <= regionH {
			return size, nil
		}
	}
	return r.cfg.MinFontSize, nil
}

func (r *Renderer) drawHeader(dc *gg.Context, card Card) error {
	headerSize := r.cfg.MinFontSize * 1.2
	if err := dc.LoadFontFace(r.cfg.FontFile, headerSize); err != nil {
		return fmt.Errorf("failed to load font %s: %w", r.cfg.FontFile, err)
	}

	header := fmt.Sprintf("u/%s", card.Author)
	if card.Author == "" {
		header = "u/[unknown]"
	}
	dc.SetHexColor(r.cfg.Accent)
	dc.DrawStringAnchored(header, float64(r.cfg.Width)*0.05, float64(r.cfg.Height)*0.08, 0, 0.5)

	score := fmt.Sprintf("%d points", card.Score)
	dc.SetHexColor(r.cfg.Foreground)
	dc.DrawStringAnchored(score, float64(r.cfg.Width)*0.95, float64(r.cfg.Height)*0.08, 1, 0.5)
	return nil
}
