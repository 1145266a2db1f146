// Package reference loads the authoritative reference data the derivation
// pipeline and the engines consult: agency hierarchy, geography, recipient
// registry, and program catalogs. Hot lookups live in an immutable in-memory
// Snapshot rebuilt when the external loader signals a reload; rule predicates
// keep joining the underlying tables (accounts, SF-133) in SQL.
package reference

import (
	"time"

	"broker/pkg/fiscal"
)

// Zip maps a full nine-digit zip to its state, county, and district.
type Zip struct {
	Zip5                  string  `db:"zip5"`
	ZipLast4              string  `db:"zip_last4"`
	StateAbbreviation     string  `db:"state_abbreviation"`
	CountyNumber          string  `db:"county_number"`
	CongressionalDistrict *string `db:"congressional_district_no"`
}

// ZipFive is the grouped five-digit view of the zip table. Districts carries
// every district seen for the zip5; lookups collapse it to the unique value or
// the sentinel district 90.
type ZipFive struct {
	Zip5              string
	StateAbbreviation string
	CountyNumber      string
	Districts         []string
}

// DUNS is one recipient registration with its parent and up to five
// executive compensation slots.
type DUNS struct {
	AwardeeOrRecipientUniqu string  `db:"awardee_or_recipient_uniqu"`
	LegalBusinessName       *string `db:"legal_business_name"`
	UltimateParentUniqueIde *string `db:"ultimate_parent_unique_ide"`
	UltimateParentLegalEnti *string `db:"ultimate_parent_legal_enti"`
	HighCompOfficer1FullNa  *string `db:"high_comp_officer1_full_na"`
	HighCompOfficer1Amount  *string `db:"high_comp_officer1_amount"`
	HighCompOfficer2FullNa  *string `db:"high_comp_officer2_full_na"`
	HighCompOfficer2Amount  *string `db:"high_comp_officer2_amount"`
	HighCompOfficer3FullNa  *string `db:"high_comp_officer3_full_na"`
	HighCompOfficer3Amount  *string `db:"high_comp_officer3_amount"`
	HighCompOfficer4FullNa  *string `db:"high_comp_officer4_full_na"`
	HighCompOfficer4Amount  *string `db:"high_comp_officer4_amount"`
	HighCompOfficer5FullNa  *string `db:"high_comp_officer5_full_na"`
	HighCompOfficer5Amount  *string `db:"high_comp_officer5_amount"`
}

// CFDAProgram is one assistance listing.
type CFDAProgram struct {
	ProgramNumber string `db:"program_number"`
	ProgramTitle  string `db:"program_title"`
}

// CGACAgency is a top-tier agency.
type CGACAgency struct {
	CGACCode   string `db:"cgac_code"`
	AgencyName string `db:"agency_name"`
}

// FRECAgency is a financial reporting entity under a CGAC.
type FRECAgency struct {
	FRECCode   string `db:"frec_code"`
	CGACCode   string `db:"cgac_code"`
	AgencyName string `db:"agency_name"`
}

// SubTierAgency sits under either a CGAC or a FREC; IsFREC selects which.
// Priority is 1 when the sub-tier code equals its parent's FPDS department id.
type SubTierAgency struct {
	SubTierCode string `db:"sub_tier_agency_code"`
	SubTierName string `db:"sub_tier_agency_name"`
	CGACCode    string `db:"cgac_code"`
	FRECCode    string `db:"frec_code"`
	IsFREC      bool   `db:"is_frec"`
	Priority    int    `db:"priority"`
}

// Office is one leaf of the agency hierarchy with its capability flags.
type Office struct {
	OfficeCode                       string     `db:"office_code"`
	OfficeName                       string     `db:"office_name"`
	SubTierCode                      string     `db:"sub_tier_code"`
	AgencyCode                       string     `db:"agency_code"`
	FinancialAssistanceAwardsOffice  bool       `db:"financial_assistance_awards_office"`
	FinancialAssistanceFundingOffice bool       `db:"financial_assistance_funding_office"`
	ContractAwardsOffice             bool       `db:"contract_awards_office"`
	ContractFundingOffice            bool       `db:"contract_funding_office"`
	EffectiveStartDate               *time.Time `db:"effective_start_date"`
	EffectiveEndDate                 *time.Time `db:"effective_end_date"`
}

// ActiveOn reports whether the office's effective window covers a date.
// Open-ended windows cover everything on the open side.
func (o Office) ActiveOn(date time.Time) bool {
	return fiscal.WindowCoversDate(o.EffectiveStartDate, o.EffectiveEndDate, date)
}

// CountryCode maps an ISO country code to its name.
type CountryCode struct {
	CountryCode string `db:"country_code"`
	CountryName string `db:"country_name"`
}

// CityCode is one gazetteer city entry.
type CityCode struct {
	CityCode     string `db:"city_code"`
	CityName     string `db:"feature_name"`
	StateCode    string `db:"state_code"`
	CountyNumber string `db:"county_number"`
	CountyName   string `db:"county_name"`
}

// CountyCode maps (state, county number) to the county name.
type CountyCode struct {
	CountyNumber string `db:"county_number"`
	CountyName   string `db:"county_name"`
	StateCode    string `db:"state_code"`
}

// State maps a two-letter state code to its name.
type State struct {
	StateCode string `db:"state_code"`
	StateName string `db:"state_name"`
}

// AgencyCodeAlias records the special-case CGAC equivalences (for example
// CGAC 097 resolving to 017 and 021) that several account-lookup rules share.
type AgencyCodeAlias struct {
	CGACCode  string `db:"cgac_code"`
	AliasCGAC string `db:"alias_cgac"`
}
