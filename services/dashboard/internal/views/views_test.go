package views

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"aijobsdash/services/dashboard/internal/models"
)

func keys(groups []Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Key
	}
	return out
}

func TestSkillFrequencies(t *testing.T) {
	table := models.NewTable("t", []models.JobPosting{
		{RequiredSkills: "Python, SQL"},
		{RequiredSkills: "Python, R"},
	})

	groups := SkillFrequencies(table)
	got := make(map[string]int)
	for _, g := range groups {
		got[g.Key] = g.Count
	}
	want := map[string]int{"Python": 2, "SQL": 1, "R": 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("frequencies = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(keys(groups), []string{"Python", "SQL", "R"}) {
		t.Errorf("order = %v, want most frequent first then first appearance", keys(groups))
	}
}

func TestSkillCloudWeights(t *testing.T) {
	table := models.NewTable("t", []models.JobPosting{
		{RequiredSkills: "Python, SQL"},
		{RequiredSkills: "Python, R"},
		{RequiredSkills: "Python"},
		{RequiredSkills: "Python"},
	})

	groups := SkillCloud(table)
	if groups[0].Key != "Python" || groups[0].Value != 1 {
		t.Errorf("top skill = %+v, want Python with weight 1", groups[0])
	}
	for _, g := range groups[1:] {
		if g.Value != 0.25 {
			t.Errorf("%s weight = %v, want 0.25", g.Key, g.Value)
		}
	}
}

func TestTopSkillsLimit(t *testing.T) {
	var rows []models.JobPosting
	for i := 0; i < 30; i++ {
		rows = append(rows, models.JobPosting{RequiredSkills: fmt.Sprintf("Skill%02d", i)})
	}
	groups := TopSkills(models.NewTable("t", rows))
	if len(groups) != TopSkillCount {
		t.Errorf("top skills = %d, want %d", len(groups), TopSkillCount)
	}
	if groups[0].Key != "Skill00" {
		t.Errorf("first = %q, ties should keep first appearance", groups[0].Key)
	}
}

func TestSalaryByCountry(t *testing.T) {
	table := models.NewTable("t", []models.JobPosting{
		{CompanyLocation: "USA", SalaryUSD: 100},
		{CompanyLocation: "Germany", SalaryUSD: 80},
		{CompanyLocation: "USA", SalaryUSD: 200},
	})

	groups := SalaryByCountry(table)
	if !reflect.DeepEqual(keys(groups), []string{"Germany", "USA"}) {
		t.Fatalf("keys = %v", keys(groups))
	}
	if groups[1].Value != 150 || groups[1].Count != 2 {
		t.Errorf("USA = %+v, want mean 150 over 2", groups[1])
	}
}

func TestTopJobTitlesBySalary(t *testing.T) {
	var rows []models.JobPosting
	for i := 0; i < 12; i++ {
		rows = append(rows, models.JobPosting{JobTitle: fmt.Sprintf("Title%02d", i), SalaryUSD: float64(i * 1000)})
	}
	rows = append(rows, models.JobPosting{JobTitle: "Title11", SalaryUSD: 0})

	groups := TopJobTitlesBySalary(models.NewTable("t", rows))
	if len(groups) != TopJobTitles {
		t.Fatalf("titles = %d, want %d", len(groups), TopJobTitles)
	}
	if groups[0].Key != "Title10" {
		t.Errorf("highest mean = %q, want Title10 (Title11 averages 5500)", groups[0].Key)
	}
	for i := 1; i < len(groups); i++ {
		if groups[i].Value > groups[i-1].Value {
			t.Errorf("not sorted by mean salary: %v", keys(groups))
		}
	}
}

func TestCountViews(t *testing.T) {
	table := models.NewTable("t", []models.JobPosting{
		{Industry: "Media", CompanyName: "B"},
		{Industry: "Tech", CompanyName: "A"},
		{Industry: "Tech", CompanyName: "B"},
		{Industry: "Retail", CompanyName: "C"},
	})

	if got := keys(TopIndustries(table)); !reflect.DeepEqual(got, []string{"Tech", "Media", "Retail"}) {
		t.Errorf("industries = %v", got)
	}
	if got := keys(TopCompanies(table)); !reflect.DeepEqual(got, []string{"B", "A", "C"}) {
		t.Errorf("companies = %v", got)
	}
}

func TestBenefitsByEducation(t *testing.T) {
	table := models.NewTable("t", []models.JobPosting{
		{EducationRequired: "PhD", BenefitsScore: 9},
		{EducationRequired: "Bachelor", BenefitsScore: 6},
		{EducationRequired: "Master", BenefitsScore: 6},
		{EducationRequired: "Associate", BenefitsScore: 5},
	})

	if got := keys(BenefitsByEducation(table)); !reflect.DeepEqual(got, []string{"Associate", "Bachelor", "Master", "PhD"}) {
		t.Errorf("education order = %v, want ascending mean with ties by label", got)
	}
}

func residenceRows(residence string, remote, onsite int) []models.JobPosting {
	var rows []models.JobPosting
	for i := 0; i < remote; i++ {
		rows = append(rows, models.JobPosting{EmployeeResidence: residence, RemoteRatio: 100})
	}
	for i := 0; i < onsite; i++ {
		rows = append(rows, models.JobPosting{EmployeeResidence: residence, RemoteRatio: 0})
	}
	return rows
}

func TestWorkTypeByResidence(t *testing.T) {
	var rows []models.JobPosting
	rows = append(rows, residenceRows("Exactly20", 20, 0)...)
	rows = append(rows, residenceRows("FewRemote", 2, 20)...)
	rows = append(rows, residenceRows("ManyRemote", 15, 10)...)

	groups := WorkTypeByResidence(models.NewTable("t", rows))
	if !reflect.DeepEqual(keys(groups), []string{"ManyRemote", "FewRemote"}) {
		t.Fatalf("residences = %v, want [ManyRemote FewRemote]", keys(groups))
	}

	many := groups[0]
	if many.Count != 25 {
		t.Errorf("ManyRemote count = %d, want 25", many.Count)
	}
	if !reflect.DeepEqual(keys(many.SubGroups), []string{models.WorkTypeOnsiteHybrid, models.WorkTypeRemote}) {
		t.Errorf("sub groups = %v", keys(many.SubGroups))
	}
	if many.SubGroups[0].Count != 10 || many.SubGroups[1].Count != 15 {
		t.Errorf("ManyRemote split = %+v", many.SubGroups)
	}
}

func TestBuildChart(t *testing.T) {
	table := models.NewTable("t", residenceRows("Canada", 21, 3))

	def, _ := Lookup(WorkTypeByResidenceID)
	view := Compute(context.Background(), def, table)
	chart := view.Chart
	if chart.ChartType != ChartStackedBar || chart.Orientation != "h" || !chart.ShowLegend {
		t.Errorf("stacked chart config = %+v", chart)
	}
	if len(chart.Series) != 2 || chart.Series[0].Name != models.WorkTypeOnsiteHybrid || chart.Series[1].Name != models.WorkTypeRemote {
		t.Fatalf("series = %+v", chart.Series)
	}
	if chart.Series[1].Data[0].Value != 21 {
		t.Errorf("remote value = %v, want 21", chart.Series[1].Data[0].Value)
	}

	def, _ = Lookup(SalaryByCountryID)
	choropleth := BuildChart(def, []Group{{Key: "USA", Label: "USA", Value: 123.456}})
	if choropleth.LocationMode != "country names" || choropleth.ColorScale != "Inferno" {
		t.Errorf("choropleth config = %+v", choropleth)
	}
	if choropleth.Series[0].Data[0].Value != 123.46 {
		t.Errorf("value = %v, want rounded 123.46", choropleth.Series[0].Data[0].Value)
	}
}

func TestBuildOverEmptyTable(t *testing.T) {
	dash := Build(context.Background(), models.NewTable("empty", nil))

	if dash.Rows != 0 || len(dash.Views) != len(Definitions) {
		t.Fatalf("dashboard = %d rows / %d views", dash.Rows, len(dash.Views))
	}
	for _, v := range dash.Views {
		if v.Groups == nil || len(v.Groups) != 0 {
			t.Errorf("%s groups = %v, want empty", v.ID, v.Groups)
		}
	}
}

func TestLookup(t *testing.T) {
	if _, ok := Lookup("nope"); ok {
		t.Error("unknown view should not resolve")
	}
	for _, id := range IDs() {
		if def, ok := Lookup(id); !ok || def.ID != id {
			t.Errorf("Lookup(%q) failed", id)
		}
	}
}
