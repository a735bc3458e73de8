package views

import (
	"math"
	"sort"

	"aijobsdash/services/dashboard/internal/models"
)

// ============================================================================
// AGGREGATORS: group-by, count and top-N over a filtered table
// ============================================================================
// Every view reads the table on its own; none of them shares state.
// Count-based views keep first-appearance order among ties, mean-based
// views break ties by label.
// ============================================================================

const (
	TopJobTitles      = 10
	TopIndustryCount  = 10
	TopSkillCount     = 20
	TopCompanyCount   = 10
	MinResidenceCount = 20
)

// Group is one aggregated bucket.
type Group struct {
	Key       string  `json:"key"`
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Count     int     `json:"count"`
	SubGroups []Group `json:"subGroups,omitempty"`
}

type field func(models.JobPosting) string

type measure func(models.JobPosting) float64

func countBy(table *models.Table, key field) []Group {
	index := make(map[string]int)
	var groups []Group
	for i := 0; i < table.Len(); i++ {
		k := key(table.At(i))
		pos, ok := index[k]
		if !ok {
			pos = len(groups)
			index[k] = pos
			groups = append(groups, Group{Key: k, Label: k})
		}
		groups[pos].Count++
	}
	for i := range groups {
		groups[i].Value = float64(groups[i].Count)
	}
	return groups
}

func meanBy(table *models.Table, key field, value measure) []Group {
	index := make(map[string]int)
	var groups []Group
	var sums []float64
	for i := 0; i < table.Len(); i++ {
		row := table.At(i)
		k := key(row)
		pos, ok := index[k]
		if !ok {
			pos = len(groups)
			index[k] = pos
			groups = append(groups, Group{Key: k, Label: k})
			sums = append(sums, 0)
		}
		groups[pos].Count++
		sums[pos] += value(row)
	}
	for i := range groups {
		groups[i].Value = sums[i] / float64(groups[i].Count)
	}
	return groups
}

// countDesc orders by count, keeping first-appearance order among ties.
func countDesc(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Count > groups[j].Count })
}

func valueDesc(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Value != groups[j].Value {
			return groups[i].Value > groups[j].Value
		}
		return groups[i].Key < groups[j].Key
	})
}

func valueAsc(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Value != groups[j].Value {
			return groups[i].Value < groups[j].Value
		}
		return groups[i].Key < groups[j].Key
	})
}

func labelAsc(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
}

func limit(groups []Group, n int) []Group {
	if n > 0 && len(groups) > n {
		return groups[:n]
	}
	return groups
}

// SalaryByCountry is the mean salary per company location, by location.
func SalaryByCountry(table *models.Table) []Group {
	groups := meanBy(table,
		func(p models.JobPosting) string { return p.CompanyLocation },
		func(p models.JobPosting) float64 { return p.SalaryUSD })
	labelAsc(groups)
	return groups
}

// TopJobTitlesBySalary returns the ten job titles with the highest mean salary.
func TopJobTitlesBySalary(table *models.Table) []Group {
	groups := meanBy(table,
		func(p models.JobPosting) string { return p.JobTitle },
		func(p models.JobPosting) float64 { return p.SalaryUSD })
	valueDesc(groups)
	return limit(groups, TopJobTitles)
}

func TopIndustries(table *models.Table) []Group {
	groups := countBy(table, func(p models.JobPosting) string { return p.Industry })
	countDesc(groups)
	return limit(groups, TopIndustryCount)
}

// SkillFrequencies counts every skill token across all rows, most frequent
// first.
func SkillFrequencies(table *models.Table) []Group {
	index := make(map[string]int)
	var groups []Group
	for i := 0; i < table.Len(); i++ {
		for _, skill := range table.At(i).Skills() {
			pos, ok := index[skill]
			if !ok {
				pos = len(groups)
				index[skill] = pos
				groups = append(groups, Group{Key: skill, Label: skill})
			}
			groups[pos].Count++
		}
	}
	for i := range groups {
		groups[i].Value = float64(groups[i].Count)
	}
	countDesc(groups)
	return groups
}

func TopSkills(table *models.Table) []Group {
	return limit(SkillFrequencies(table), TopSkillCount)
}

// SkillCloud weights every skill by its frequency relative to the most
// frequent one, in (0, 1].
func SkillCloud(table *models.Table) []Group {
	groups := SkillFrequencies(table)
	if len(groups) == 0 {
		return groups
	}
	top := float64(groups[0].Count)
	for i := range groups {
		groups[i].Value = float64(groups[i].Count) / top
	}
	return groups
}

// BenefitsByEducation is the mean benefits score per education level,
// lowest first.
func BenefitsByEducation(table *models.Table) []Group {
	groups := meanBy(table,
		func(p models.JobPosting) string { return p.EducationRequired },
		func(p models.JobPosting) float64 { return p.BenefitsScore })
	valueAsc(groups)
	return groups
}

func TopCompanies(table *models.Table) []Group {
	groups := countBy(table, func(p models.JobPosting) string { return p.CompanyName })
	countDesc(groups)
	return limit(groups, TopCompanyCount)
}

// workTypes are the stacked series, in column order.
var workTypes = []string{models.WorkTypeOnsiteHybrid, models.WorkTypeRemote}

// WorkTypeByResidence counts work types per employee residence. Residences
// with MinResidenceCount postings or fewer are left out; the rest are
// ordered by Remote count, highest first.
func WorkTypeByResidence(table *models.Table) []Group {
	index := make(map[string]int)
	var groups []Group
	for i := 0; i < table.Len(); i++ {
		row := table.At(i)
		pos, ok := index[row.EmployeeResidence]
		if !ok {
			pos = len(groups)
			index[row.EmployeeResidence] = pos
			g := Group{Key: row.EmployeeResidence, Label: row.EmployeeResidence}
			for _, wt := range workTypes {
				g.SubGroups = append(g.SubGroups, Group{Key: wt, Label: wt})
			}
			groups = append(groups, g)
		}
		groups[pos].Count++
		for j := range groups[pos].SubGroups {
			if groups[pos].SubGroups[j].Key == row.WorkType() {
				groups[pos].SubGroups[j].Count++
			}
		}
	}

	kept := groups[:0]
	for _, g := range groups {
		if g.Count <= MinResidenceCount {
			continue
		}
		g.Value = float64(g.Count)
		for j := range g.SubGroups {
			g.SubGroups[j].Value = float64(g.SubGroups[j].Count)
		}
		kept = append(kept, g)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		ri, rj := remoteCount(kept[i]), remoteCount(kept[j])
		if ri != rj {
			return ri > rj
		}
		return kept[i].Key < kept[j].Key
	})
	return kept
}

func remoteCount(g Group) int {
	for _, sg := range g.SubGroups {
		if sg.Key == models.WorkTypeRemote {
			return sg.Count
		}
	}
	return 0
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
