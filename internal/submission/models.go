// Package submission holds the submission model and its Postgres store. A
// submission is the unit of validation: staging rows, error records, and
// advisory locks all key off its identifier.
package submission

import (
	"time"

	"broker/pkg/domain"
)

// Submission is one reporting agency's upload for a fiscal year and period.
// Exactly one of CGACCode and FRECCode is set; IsFABS distinguishes
// financial-assistance submissions from DABS appropriations submissions.
type Submission struct {
	ID            domain.SubmissionID  `db:"submission_id"`
	FiscalYear    int                  `db:"reporting_fiscal_year"`
	FiscalPeriod  int                  `db:"reporting_fiscal_period"`
	CGACCode      *string              `db:"cgac_code"`
	FRECCode      *string              `db:"frec_code"`
	IsFABS        bool                 `db:"is_fabs"`
	PublishStatus domain.PublishStatus `db:"publish_status"`
	CreatedAt     time.Time            `db:"created_at"`
	UpdatedAt     time.Time            `db:"updated_at"`
}

// AgencyCode returns whichever of the CGAC or FREC codes owns the submission.
func (s *Submission) AgencyCode() string {
	if s.FRECCode != nil && *s.FRECCode != "" {
		return *s.FRECCode
	}
	if s.CGACCode != nil {
		return *s.CGACCode
	}
	return ""
}

// Quarter returns the reporting quarter derived from the fiscal period.
func (s *Submission) Quarter() int {
	return (s.FiscalPeriod-1)/3 + 1
}
