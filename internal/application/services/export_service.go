package services

import (
	"strconv"
	"strings"

	"github.com/pricegauge/laborrates/internal/domain/entities"
)

// ComparablesNotFoundSentinel marks export rows whose analysis found no
// comparable set. The exact text is a compatibility surface.
const ComparablesNotFoundSentinel = "Error: Comparables not found"

// ExportHeader is the fixed column schema consumed by the external CSV/XLSX
// renderer. Column order and header text must match exactly.
var ExportHeader = []string{
	"#",
	"No of Comps",
	"Vendor Labor Category",
	"Search Labor Category",
	"Proposed Edu",
	"Proposed Exp",
	"Most Common EDU",
	"Avg EXP",
	"Offered Hourly Price",
	"Average Price",
	"% Diff from Average",
	"+ 1 Standard Deviation",
	"% Diff from +1 Standard Deviation",
	"Exp Comparable Search Criteria",
	"Edu Comparable Search Criteria",
	"Outside 1 Standard Deviation",
}

// AnalyzedRate pairs one input row with its verdict.
type AnalyzedRate struct {
	Row    *entities.ProposedRate
	Result *AnalysisResult
}

// ExportService renders analyzed rates as flat tabular rows.
type ExportService struct{}

// NewExportService creates a new export service
func NewExportService() *ExportService {
	return &ExportService{}
}

// Export transforms analyzed rates into output rows. Every input pair
// produces exactly one row: not-found verdicts are rendered with the
// sentinel and blank statistical cells, never dropped.
func (s *ExportService) Export(pairs []*AnalyzedRate) [][]string {
	rows := make([][]string, 0, len(pairs))
	for i, pair := range pairs {
		rows = append(rows, s.exportRow(i+1, pair))
	}
	return rows
}

func (s *ExportService) exportRow(serial int, pair *AnalyzedRate) []string {
	row, result := pair.Row, pair.Result

	if !result.Found {
		return []string{
			strconv.Itoa(serial),
			"",
			row.LaborCategory,
			ComparablesNotFoundSentinel,
			row.EducationLevel.Code(),
			strconv.Itoa(row.MinYearsExperience),
			"", "", "", "", "", "", "", "", "", "",
		}
	}

	plusOneStdDev := result.AvgPrice + result.StdDev

	return []string{
		strconv.Itoa(serial),
		strconv.Itoa(result.Count),
		row.LaborCategory,
		result.SearchLaborCategory,
		row.EducationLevel.Code(),
		strconv.Itoa(row.MinYearsExperience),
		educationCodes(result.MostCommonEducation),
		strconv.FormatFloat(result.AvgExperience, 'f', 1, 64),
		strconv.FormatFloat(row.Price, 'f', 2, 64),
		strconv.FormatFloat(result.AvgPrice, 'f', 2, 64),
		strconv.FormatFloat(PercentDifference(row.Price, result.AvgPrice), 'f', 2, 64),
		strconv.FormatFloat(plusOneStdDev, 'f', 2, 64),
		strconv.FormatFloat(PercentDifference(row.Price, plusOneStdDev), 'f', 2, 64),
		result.ExperienceCriteria,
		result.EducationCriteria,
		strconv.FormatBool(result.PriceDelta > result.StdDev),
	}
}

// PercentDifference computes the symmetric percent difference between a and
// b. The formula is preserved exactly for output compatibility with
// existing consumers; it is antisymmetric in its arguments.
func PercentDifference(a, b float64) float64 {
	mid := (a + b) / 2
	if mid == 0 {
		return 0
	}
	return (a - b) / mid * 100
}

func educationCodes(levels []entities.EducationLevel) string {
	codes := make([]string, len(levels))
	for i, level := range levels {
		codes[i] = level.Code()
	}
	return strings.Join(codes, ",")
}
