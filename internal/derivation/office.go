package derivation

import (
	"context"
	"strings"

	"broker/internal/reference"
	"broker/internal/staging"
)

// deriveOffices fills office names for the codes the record carries, and
// inherits missing codes from the earliest published modification of the same
// award. An office only participates while its effective window covers the
// record's action date. An inherited code is accepted only when the office
// table knows it and flags it for assistance awards (awarding) or assistance
// funding (funding); the inheritance also requires this record to be a later
// modification, not a resubmission of the base record itself.
func (p *Pipeline) deriveOffices(ctx context.Context, f *staging.FABS, snap *reference.Snapshot) error {
	f.AwardingOfficeName = nil
	f.FundingOfficeName = nil

	when := actionDate(f)
	lookup := func(code string) (reference.Office, bool) {
		o, ok := snap.OfficeByCode(code)
		if !ok || !o.ActiveOn(when) {
			return reference.Office{}, false
		}
		return o, true
	}

	hasAwarding := value(f.AwardingOfficeCode) != ""
	hasFunding := value(f.FundingOfficeCode) != ""

	if hasAwarding {
		if o, ok := lookup(value(f.AwardingOfficeCode)); ok {
			f.AwardingOfficeName = str(o.OfficeName)
		}
	}
	if hasFunding {
		if o, ok := lookup(value(f.FundingOfficeCode)); ok {
			f.FundingOfficeName = str(o.OfficeName)
		}
	}
	if hasAwarding && hasFunding {
		return nil
	}

	base, err := p.store.BaseAwardOffices(ctx, f.RecordTypeValue(), value(f.FAIN), value(f.URI))
	if err != nil {
		return err
	}
	if base == nil {
		return nil
	}
	if strings.EqualFold(value(base.AwardModificationAmendme), value(f.AwardModificationAmendme)) {
		return nil
	}

	if !hasAwarding {
		if code := value(base.AwardingOfficeCode); code != "" {
			if o, ok := lookup(code); ok && o.FinancialAssistanceAwardsOffice {
				f.AwardingOfficeCode = str(o.OfficeCode)
				f.AwardingOfficeName = str(o.OfficeName)
			}
		}
	}
	if !hasFunding {
		if code := value(base.FundingOfficeCode); code != "" {
			if o, ok := lookup(code); ok && o.FinancialAssistanceFundingOffice {
				f.FundingOfficeCode = str(o.OfficeCode)
				f.FundingOfficeName = str(o.OfficeName)
			}
		}
	}
	return nil
}
