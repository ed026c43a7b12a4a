package toolctx

import (
	"context"
	"time"

	"github.com/opuluxe-ai/fashion-assistant/internal/classifier"
)

type categoryTrends struct {
	current   []string
	seasonal  string
	celebrity string
}

// Catalog is the curated in-memory fashion dataset. It is read-only after
// construction.
type Catalog struct {
	trends map[string]categoryTrends
	order  []string
	tips   map[string]string
	now    func() time.Time
}

// NewCatalog returns the curated dataset.
func NewCatalog() *Catalog {
	return &Catalog{
		trends: map[string]categoryTrends{
			"men": {
				current: []string{
					"Oversized blazers with structured shoulders",
					"Wide-leg trousers in neutral tones",
					"Chunky sneakers with retro designs",
					"Minimalist leather accessories",
					"Earth-tone color palette (beige, brown, olive)",
				},
				seasonal:  "Lightweight linen shirts, pastel colors, loafers",
				celebrity: "Ryan Gosling's tailored casual look",
			},
			"women": {
				current: []string{
					"Maxi skirts with bold prints",
					"Cropped blazers paired with high-waisted pants",
					"Platform sandals and chunky heels",
					"Statement jewelry (layered necklaces, oversized earrings)",
					"Monochrome outfits in vibrant colors",
				},
				seasonal:  "Floral dresses, pastel blazers, strappy sandals",
				celebrity: "Zendaya's elegant street style",
			},
			"accessories": {
				current: []string{
					"Mini shoulder bags with chain straps",
					"Oversized sunglasses with geometric frames",
					"Leather belts with statement buckles",
					"Smartwatches with interchangeable bands",
					"Crossbody bags in bold colors",
				},
				seasonal: "Straw bags, colorful scarves, minimalist watches",
			},
		},
		order: []string{"men", "women", "accessories"},
		tips: map[string]string{
			"office":  "Smart casual is trending - pair tailored blazers with dark jeans and loafers",
			"casual":  "Athleisure meets streetwear - joggers with oversized hoodies and chunky sneakers",
			"formal":  "Modern formal - slim-fit suits in navy or charcoal with minimal accessories",
			"party":   "Statement pieces - sequined tops, leather pants, or bold printed dresses",
			"wedding": "Traditional with a twist - classic silhouettes in contemporary colors",
		},
		now: time.Now,
	}
}

// Categories lists the trend categories in display order.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.order...)
}

// Occasions lists the occasions with tips.
func (c *Catalog) Occasions() []string {
	return []string{"office", "casual", "formal", "party", "wedding"}
}

// Trends returns the trend list for category, or every category merged when
// category is "all". Unknown categories yield ErrUnavailable.
func (c *Catalog) Trends(category string) (*Payload, error) {
	p := &Payload{Kind: classifier.KindTrend, Tag: category, GeneratedAt: c.now()}

	if category == "all" {
		for _, name := range c.order {
			p.Groups = append(p.Groups, FactGroup{Name: name, Facts: c.trends[name].current})
		}
		return p, nil
	}

	t, ok := c.trends[category]
	if !ok {
		return nil, unavailable("no trends for category %q", category)
	}
	p.Groups = []FactGroup{{Name: category, Facts: t.current}}
	p.Inspiration = t.celebrity
	return p, nil
}

// Tip returns the style tip for occasion.
func (c *Catalog) Tip(occasion string) (*Payload, error) {
	tip, ok := c.tips[occasion]
	if !ok {
		return nil, unavailable("no tip for occasion %q", occasion)
	}
	return &Payload{Kind: classifier.KindTip, Tag: occasion, Advice: tip, GeneratedAt: c.now()}, nil
}

// Seasonal returns the seasonal recommendation for category.
func (c *Catalog) Seasonal(category string) (*Payload, error) {
	t, ok := c.trends[category]
	if !ok || t.seasonal == "" {
		return nil, unavailable("no seasonal data for category %q", category)
	}
	return &Payload{Kind: classifier.KindSeason, Tag: category, Advice: t.seasonal, GeneratedAt: c.now()}, nil
}

// Fetch implements Provider directly over the dataset.
func (c *Catalog) Fetch(_ context.Context, req classifier.Request) (*Payload, error) {
	switch req.Kind {
	case classifier.KindTrend:
		return c.Trends(req.Tag)
	case classifier.KindTip:
		return c.Tip(req.Tag)
	case classifier.KindSeason:
		return c.Seasonal(req.Tag)
	default:
		return nil, unavailable("unknown kind %q", req.Kind)
	}
}
