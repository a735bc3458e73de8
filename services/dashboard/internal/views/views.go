package views

import (
	"context"
	"sync"

	"aijobsdash/common/telemetry"
	"aijobsdash/services/dashboard/internal/models"
)

var tracer = telemetry.GetTracer("aijobsdash/dashboard/views")

const (
	PageTitle    = "AI Jobs Interactive Dashboard"
	PageSubtitle = "Explore salary trends, skill demand, and hiring patterns in the global AI job market."
	PageCaption  = "AI Job Trends 2025"
)

// View IDs.
const (
	SalaryByCountryID     = "salary_by_country"
	TopJobTitlesID        = "top_job_titles"
	TopIndustriesID       = "top_industries"
	TopSkillsID           = "top_skills"
	SkillCloudID          = "skills_wordcloud"
	EducationBenefitsID   = "education_benefits"
	TopCompaniesID        = "top_companies"
	WorkTypeByResidenceID = "work_type_by_residence"
)

// Definition describes one chart view and how to compute it.
type Definition struct {
	ID        string
	Tab       string
	Title     string
	ChartType string
	XAxis     string
	YAxis     string
	Compute   func(*models.Table) []Group
}

// View is a computed view.
type View struct {
	ID     string       `json:"id"`
	Tab    string       `json:"tab"`
	Title  string       `json:"title"`
	Groups []Group      `json:"groups"`
	Chart  *ChartConfig `json:"chart"`
}

// Dashboard is every view over one filtered table.
type Dashboard struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Caption  string `json:"caption"`
	Rows     int    `json:"rows"`
	Views    []View `json:"views"`
}

// Definitions lists the views in tab order. The skills tab carries two
// views, the frequency bars and the word cloud.
var Definitions = []Definition{
	{
		ID: SalaryByCountryID, Tab: "Salary by Country", Title: "Average AI Job Salary by Country",
		ChartType: ChartChoropleth, XAxis: "company_location", YAxis: "salary_usd",
		Compute: SalaryByCountry,
	},
	{
		ID: TopJobTitlesID, Tab: "Top Job Titles", Title: "Top 10 AI Job Titles by Avg Salary",
		ChartType: ChartBar, XAxis: "job_title", YAxis: "salary_usd",
		Compute: TopJobTitlesBySalary,
	},
	{
		ID: TopIndustriesID, Tab: "Industries Hiring", Title: "Top Hiring Industries",
		ChartType: ChartBar, XAxis: "industry", YAxis: "count",
		Compute: TopIndustries,
	},
	{
		ID: TopSkillsID, Tab: "Skills & Wordcloud", Title: "Top 20 Required Skills",
		ChartType: ChartBar, XAxis: "Skill", YAxis: "Frequency",
		Compute: TopSkills,
	},
	{
		ID: SkillCloudID, Tab: "Skills & Wordcloud", Title: "Word Cloud of Required Skills",
		ChartType: ChartWordCloud, XAxis: "Skill", YAxis: "Weight",
		Compute: SkillCloud,
	},
	{
		ID: EducationBenefitsID, Tab: "Education Level Benefits", Title: "Avg Benefits Score by Education Level",
		ChartType: ChartBar, XAxis: "education_required", YAxis: "benefits_score",
		Compute: BenefitsByEducation,
	},
	{
		ID: TopCompaniesID, Tab: "Top Hiring Companies", Title: "Top Hiring Companies",
		ChartType: ChartBar, XAxis: "company_name", YAxis: "count",
		Compute: TopCompanies,
	},
	{
		ID: WorkTypeByResidenceID, Tab: "Work Type Distribution", Title: "Work Type Distribution by Country",
		ChartType: ChartStackedBar, XAxis: "employee_residence", YAxis: "count",
		Compute: WorkTypeByResidence,
	},
}

// Lookup finds a view definition by ID.
func Lookup(id string) (Definition, bool) {
	for _, def := range Definitions {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}

func IDs() []string {
	ids := make([]string, len(Definitions))
	for i, def := range Definitions {
		ids[i] = def.ID
	}
	return ids
}

// Compute runs a single view over table.
func Compute(ctx context.Context, def Definition, table *models.Table) View {
	_, span := tracer.Start(ctx, "views."+def.ID)
	defer span.End()

	groups := def.Compute(table)
	if groups == nil {
		groups = []Group{}
	}
	span.SetAttributes(telemetry.Int("view.groups", len(groups)))

	return View{
		ID:     def.ID,
		Tab:    def.Tab,
		Title:  def.Title,
		Groups: groups,
		Chart:  BuildChart(def, groups),
	}
}

// Build computes every view over table concurrently. Views keep their
// definition order.
func Build(ctx context.Context, table *models.Table) Dashboard {
	ctx, span := tracer.Start(ctx, "views.Build")
	defer span.End()

	dash := Dashboard{
		Title:    PageTitle,
		Subtitle: PageSubtitle,
		Caption:  PageCaption,
		Rows:     table.Len(),
		Views:    make([]View, len(Definitions)),
	}

	var wg sync.WaitGroup
	for i, def := range Definitions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dash.Views[i] = Compute(ctx, def, table)
		}()
	}
	wg.Wait()

	return dash
}
