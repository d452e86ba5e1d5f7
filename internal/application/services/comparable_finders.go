package services

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pricegauge/laborrates/internal/domain/entities"
)

// experienceBandYears is the forward-looking band of the exact finder:
// comparable contracts are expected to require at least the requested
// experience, up to this many years more, never less.
const experienceBandYears = 4

// ComparableFinder encapsulates one policy for turning a proposed rate's
// experience and education requirements into a corpus filter, plus
// human-readable descriptions of that filter and the query parameters that
// reproduce it in the interactive search view.
type ComparableFinder interface {
	Filter(records []*entities.RateRecord) []*entities.RateRecord
	DescribeExperience() string
	DescribeEducation() string
	DeepLinkParams() url.Values
}

// DefaultFinders returns the finder strategies in strictness order, most
// strict first. The ordering is a contract the orchestrator depends on, not
// configuration.
func DefaultFinders(minExperience int, education entities.EducationLevel) []ComparableFinder {
	return []ComparableFinder{
		NewExactEduAndExpFinder(minExperience, education),
		NewGteEduAndExpFinder(minExperience, education),
	}
}

// ExactEduAndExpFinder matches records whose education level equals the
// requested level exactly and whose experience falls within the fixed
// forward-looking band.
type ExactEduAndExpFinder struct {
	minExperience int
	education     entities.EducationLevel
}

// NewExactEduAndExpFinder creates the exact education and experience finder
func NewExactEduAndExpFinder(minExperience int, education entities.EducationLevel) *ExactEduAndExpFinder {
	return &ExactEduAndExpFinder{
		minExperience: minExperience,
		education:     education,
	}
}

// Filter returns the records matching the exact criteria
func (f *ExactEduAndExpFinder) Filter(records []*entities.RateRecord) []*entities.RateRecord {
	var matched []*entities.RateRecord
	for _, record := range records {
		if record.EducationLevel != f.education {
			continue
		}
		if record.MinYearsExperience < f.minExperience ||
			record.MinYearsExperience > f.minExperience+experienceBandYears {
			continue
		}
		matched = append(matched, record)
	}
	return matched
}

// DescribeExperience describes the experience band, e.g. "5-9 years"
func (f *ExactEduAndExpFinder) DescribeExperience() string {
	return fmt.Sprintf("%d-%d years", f.minExperience, f.minExperience+experienceBandYears)
}

// DescribeEducation describes the education criterion, e.g. "BA"
func (f *ExactEduAndExpFinder) DescribeEducation() string {
	return f.education.Code()
}

// DeepLinkParams returns the query parameters reproducing this filter
func (f *ExactEduAndExpFinder) DeepLinkParams() url.Values {
	params := url.Values{}
	params.Set("min_experience", strconv.Itoa(f.minExperience))
	params.Set("max_experience", strconv.Itoa(f.minExperience+experienceBandYears))
	params.Set("education", f.education.Code())
	return params
}

// GteEduAndExpFinder matches records at or above the requested education
// level with experience at or above the requested years, open-ended upward.
// It is the deliberately broader fallback used only when the exact strategy
// finds too few comparables.
type GteEduAndExpFinder struct {
	minExperience int
	education     entities.EducationLevel
}

// NewGteEduAndExpFinder creates the greater-or-equal finder
func NewGteEduAndExpFinder(minExperience int, education entities.EducationLevel) *GteEduAndExpFinder {
	return &GteEduAndExpFinder{
		minExperience: minExperience,
		education:     education,
	}
}

// Filter returns the records matching the relaxed criteria
func (f *GteEduAndExpFinder) Filter(records []*entities.RateRecord) []*entities.RateRecord {
	var matched []*entities.RateRecord
	for _, record := range records {
		if !record.EducationLevel.GTE(f.education) {
			continue
		}
		if record.MinYearsExperience < f.minExperience {
			continue
		}
		matched = append(matched, record)
	}
	return matched
}

// DescribeExperience describes the open-ended band, e.g. "5 years or greater"
func (f *GteEduAndExpFinder) DescribeExperience() string {
	return fmt.Sprintf("%d years or greater", f.minExperience)
}

// DescribeEducation lists the accepted levels, e.g. "BA,MA,PHD"
func (f *GteEduAndExpFinder) DescribeEducation() string {
	return strings.Join(f.acceptedCodes(), ",")
}

// DeepLinkParams returns the query parameters reproducing this filter; the
// experience band is open-ended so max_experience is omitted
func (f *GteEduAndExpFinder) DeepLinkParams() url.Values {
	params := url.Values{}
	params.Set("min_experience", strconv.Itoa(f.minExperience))
	params.Set("education", strings.Join(f.acceptedCodes(), ","))
	return params
}

func (f *GteEduAndExpFinder) acceptedCodes() []string {
	var codes []string
	for _, level := range entities.EducationLevels() {
		if level.GTE(f.education) {
			codes = append(codes, level.Code())
		}
	}
	return codes
}
