package derivation

import (
	"broker/internal/reference"
	"broker/internal/staging"
)

// deriveAwardingAgency walks the awarding sub-tier up to its top-tier agency.
// FREC sub-tiers resolve to the parent FREC, everything else to the parent
// CGAC. Unknown codes leave all three outputs null.
func deriveAwardingAgency(f *staging.FABS, snap *reference.Snapshot) {
	f.AwardingAgencyCode = nil
	f.AwardingAgencyName = nil
	f.AwardingSubTierAgencyN = nil

	code := value(f.AwardingSubTierAgencyC)
	if code == "" {
		return
	}
	res, ok := snap.ResolveSubTier(code)
	if !ok {
		return
	}
	f.AwardingAgencyCode = str(res.AgencyCode)
	f.AwardingAgencyName = str(res.AgencyName)
	f.AwardingSubTierAgencyN = str(res.SubTierName)
}

// deriveFundingAgency resolves the funding sub-tier the same way. A missing
// funding sub-tier falls back to the awarding sub-tier.
func deriveFundingAgency(f *staging.FABS, snap *reference.Snapshot) {
	f.FundingAgencyCode = nil
	f.FundingAgencyName = nil
	f.FundingSubTierAgencyNa = nil

	code := value(f.FundingSubTierAgencyCo)
	if code == "" {
		code = value(f.AwardingSubTierAgencyC)
	}
	if code == "" {
		return
	}
	res, ok := snap.ResolveSubTier(code)
	if !ok {
		return
	}
	f.FundingAgencyCode = str(res.AgencyCode)
	f.FundingAgencyName = str(res.AgencyName)
	f.FundingSubTierAgencyNa = str(res.SubTierName)
}
