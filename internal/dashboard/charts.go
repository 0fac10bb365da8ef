package dashboard

import "github.com/Pavlovskyi-Andrii/sub5-project/internal/render"

// Chart IDs.
const (
	ChartWeeklyVolume   = "weeklyVolume"
	ChartActivityType   = "activityType"
	ChartWeeklyDistance = "weeklyDistance"
	ChartWeeklyTime     = "weeklyTime"
)

// Charts holds the live chart handles by ID. Replacing a chart destroys the
// one it replaces, so at most one handle per ID is ever alive.
type Charts struct {
	byID map[string]*render.Chart
}

// NewCharts returns an empty registry.
func NewCharts() *Charts {
	return &Charts{byID: make(map[string]*render.Chart)}
}

// Replace stores c under c.ID and destroys the previous chart with that ID.
func (c *Charts) Replace(chart *render.Chart) {
	if old, ok := c.byID[chart.ID]; ok && old != chart {
		old.Destroy()
	}
	c.byID[chart.ID] = chart
}

// Get returns the chart registered under id, or nil.
func (c *Charts) Get(id string) *render.Chart {
	return c.byID[id]
}

// Len returns the number of live charts.
func (c *Charts) Len() int {
	return len(c.byID)
}

// DestroyAll tears down every chart and empties the registry.
func (c *Charts) DestroyAll() {
	for id, chart := range c.byID {
		chart.Destroy()
		delete(c.byID, id)
	}
}
