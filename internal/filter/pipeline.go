package filter

import (
	"fmt"
	"strings"

	"go-jobpilot-automation/internal/config"
	"go-jobpilot-automation/internal/models"

	mapset "github.com/deckarep/golang-set/v2"
)

// Decision is the outcome of running a posting through the pipeline. When
// Keep is false, Predicate names the predicate that rejected and Reason says
// why, so every rejection is explainable in the logs.
type Decision struct {
	Keep      bool
	Predicate string
	Reason    string
}

type predicate struct {
	name string
	//test returns ok plus a reason when rejecting
	test func(models.JobPosting) (bool, string)
}

// Pipeline is an ordered predicate chain. Evaluation short-circuits on the
// first reject and has no side effects, so the same posting and config
// always produce the same decision.
type Pipeline struct {
	predicates []predicate
}

func NewPipeline(cfg *config.Config) *Pipeline {
	p := &Pipeline{}

	if len(cfg.RequiredKeywords) > 0 {
		required := lowerAll(cfg.RequiredKeywords)
		p.predicates = append(p.predicates, predicate{
			name: "requiredKeywords",
			test: func(job models.JobPosting) (bool, string) {
				text := searchText(job)
				for _, kw := range required {
					if !strings.Contains(text, kw) {
						return false, fmt.Sprintf("missing required keyword %q", kw)
					}
				}
				return true, ""
			},
		})
	}

	if len(cfg.ExcludeKeywords) > 0 {
		excluded := lowerAll(cfg.ExcludeKeywords)
		p.predicates = append(p.predicates, predicate{
			name: "excludeKeywords",
			test: func(job models.JobPosting) (bool, string) {
				text := searchText(job)
				for _, kw := range excluded {
					if strings.Contains(text, kw) {
						return false, fmt.Sprintf("contains excluded keyword %q", kw)
					}
				}
				return true, ""
			},
		})
	}

	if cfg.MinSalary > 0 {
		threshold := cfg.MinSalary
		p.predicates = append(p.predicates, predicate{
			name: "minSalary",
			test: func(job models.JobPosting) (bool, string) {
				//postings without salary data pass by policy, never silently rejected
				if job.SalaryMin == nil || job.SalaryMax == nil {
					return true, ""
				}
				if *job.SalaryMax < threshold {
					return false, fmt.Sprintf("salary_max %d below minimum %d", *job.SalaryMax, threshold)
				}
				return true, ""
			},
		})
	}

	if len(cfg.ExcludeCompanies) > 0 {
		companies := mapset.NewSet(lowerAll(cfg.ExcludeCompanies)...)
		p.predicates = append(p.predicates, predicate{
			name: "excludeCompanies",
			test: func(job models.JobPosting) (bool, string) {
				if companies.Contains(strings.ToLower(job.Company)) {
					return false, fmt.Sprintf("company %q is excluded", job.Company)
				}
				return true, ""
			},
		})
	}

	return p
}

// Evaluate runs the predicates in configured order against one posting.
func (p *Pipeline) Evaluate(job models.JobPosting) Decision {
	for _, pred := range p.predicates {
		if ok, reason := pred.test(job); !ok {
			return Decision{Keep: false, Predicate: pred.name, Reason: reason}
		}
	}
	return Decision{Keep: true}
}

func searchText(job models.JobPosting) string {
	return strings.ToLower(job.Title + " " + job.Description)
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(strings.TrimSpace(v)))
	}
	return out
}
