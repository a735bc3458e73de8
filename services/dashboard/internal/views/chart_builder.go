package views

// ============================================================================
// CHART BUILDER: render-ready chart configs from aggregated groups
// ============================================================================

// Chart types understood by the front end.
const (
	ChartChoropleth = "choropleth"
	ChartBar        = "bar"
	ChartStackedBar = "stacked_bar"
	ChartWordCloud  = "wordcloud"
)

// Default color palette for chart series.
var defaultColors = []string{
	"#03051A", "#4C1D4B", "#A11A5B", "#E83F3F", "#F69C73",
	"#FAEBDD", "#35193E", "#701F57", "#CB1B4F", "#F37651",
}

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType    string        `json:"chartType"`
	Title        string        `json:"title"`
	XAxis        string        `json:"xAxis,omitempty"`
	YAxis        string        `json:"yAxis,omitempty"`
	Orientation  string        `json:"orientation,omitempty"`
	LocationMode string        `json:"locationMode,omitempty"`
	ColorScale   string        `json:"colorScale,omitempty"`
	Series       []ChartSeries `json:"series"`
	Colors       []string      `json:"colors,omitempty"`
	ShowLegend   bool          `json:"showLegend"`
	ShowGrid     bool          `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// BuildChart produces the chart for a view definition and its groups.
func BuildChart(def Definition, groups []Group) *ChartConfig {
	config := &ChartConfig{
		ChartType: def.ChartType,
		Title:     def.Title,
		XAxis:     def.XAxis,
		YAxis:     def.YAxis,
		ShowGrid:  def.ChartType == ChartBar || def.ChartType == ChartStackedBar,
	}

	switch def.ChartType {
	case ChartChoropleth:
		config.LocationMode = "country names"
		config.ColorScale = "Inferno"
	case ChartBar, ChartStackedBar:
		config.Orientation = "h"
	}

	if def.ChartType == ChartStackedBar {
		config.Series = buildMultiSeries(groups)
		config.ShowLegend = true
	} else {
		config.Series = buildSingleSeries(groups, def.YAxis)
	}

	config.Colors = assignColors(len(config.Series))
	return config
}

func buildSingleSeries(groups []Group, seriesName string) []ChartSeries {
	if seriesName == "" {
		seriesName = "Value"
	}

	points := make([]ChartPoint, 0, len(groups))
	for _, g := range groups {
		points = append(points, ChartPoint{
			Label: g.Label,
			Value: RoundTo2(g.Value),
		})
	}

	return []ChartSeries{{
		Name: seriesName,
		Data: points,
	}}
}

// buildMultiSeries emits one series per sub-group key, in the order the keys
// first appear.
func buildMultiSeries(groups []Group) []ChartSeries {
	var subKeys []string
	seen := make(map[string]bool)
	for _, g := range groups {
		for _, sg := range g.SubGroups {
			if !seen[sg.Key] {
				seen[sg.Key] = true
				subKeys = append(subKeys, sg.Key)
			}
		}
	}

	series := make([]ChartSeries, 0, len(subKeys))
	for i, key := range subKeys {
		points := make([]ChartPoint, 0, len(groups))
		for _, g := range groups {
			var v float64
			for _, sg := range g.SubGroups {
				if sg.Key == key {
					v = sg.Value
				}
			}
			points = append(points, ChartPoint{Label: g.Label, Value: RoundTo2(v)})
		}
		series = append(series, ChartSeries{
			Name:  key,
			Data:  points,
			Color: defaultColors[i%len(defaultColors)],
		})
	}
	return series
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
