package staging

// FABS is one file D2 row: a financial-assistance transaction. The derivation
// pipeline fills the derived columns in place before validation runs; source
// columns arrive from the upload collaborator and are never rewritten.
type FABS struct {
	Row
	ID int64 `db:"detached_award_financial_assistance_id"`

	// Award identity.
	FAIN                     *string `db:"fain"`
	URI                      *string `db:"uri"`
	AwardModificationAmendme *string `db:"award_modification_amendme"`
	RecordType               *int64  `db:"record_type"`
	ActionDate               *string `db:"action_date"`
	ActionType               *string `db:"action_type"`
	AssistanceType           *string `db:"assistance_type"`
	CorrectionDeleteIndicatr *string `db:"correction_delete_indicatr"`
	AwardDescription         *string `db:"award_description"`
	PeriodOfPerformanceStar  *string `db:"period_of_performance_star"`
	PeriodOfPerformanceCurr  *string `db:"period_of_performance_curr"`
	BusinessTypes            *string `db:"business_types"`
	BusinessFundsIndicator   *string `db:"business_funds_indicator"`
	IsValid                  bool    `db:"is_valid"`

	// Funding amounts.
	FederalActionObligation *float64 `db:"federal_action_obligation"`
	NonFederalFundingAmount *float64 `db:"non_federal_funding_amount"`
	OriginalLoanSubsidyCost *float64 `db:"original_loan_subsidy_cost"`
	FaceValueLoanGuarantee  *float64 `db:"face_value_loan_guarantee"`

	// Assistance listing.
	CFDANumber *string `db:"cfda_number"`

	// Agencies and offices.
	AwardingSubTierAgencyC *string `db:"awarding_sub_tier_agency_c"`
	FundingSubTierAgencyCo *string `db:"funding_sub_tier_agency_co"`
	AwardingOfficeCode     *string `db:"awarding_office_code"`
	FundingOfficeCode      *string `db:"funding_office_code"`

	// Place of performance, as submitted.
	PlaceOfPerformanceCode  *string `db:"place_of_performance_code"`
	PlaceOfPerformanceZip4a *string `db:"place_of_performance_zip4a"`
	PlaceOfPerformCountryC  *string `db:"place_of_perform_country_c"`
	PlaceOfPerformanceCongr *string `db:"place_of_performance_congr"`

	// Legal entity, as submitted.
	AwardeeOrRecipientUniqu  *string `db:"awardee_or_recipient_uniqu"`
	AwardeeOrRecipientLegal  *string `db:"awardee_or_recipient_legal"`
	LegalEntityAddressLine1  *string `db:"legal_entity_address_line1"`
	LegalEntityZip5          *string `db:"legal_entity_zip5"`
	LegalEntityZipLast4      *string `db:"legal_entity_zip_last4"`
	LegalEntityCongressional *string `db:"legal_entity_congressional"`
	LegalEntityCountryCode   *string `db:"legal_entity_country_code"`
	LegalEntityForeignCity   *string `db:"legal_entity_foreign_city"`
	LegalEntityForeignPosta  *string `db:"legal_entity_foreign_posta"`

	// Derived: funding totals and listing title.
	TotalFundingAmount *string `db:"total_funding_amount"`
	CFDATitle          *string `db:"cfda_title"`

	// Derived: agency names and codes.
	AwardingAgencyCode     *string `db:"awarding_agency_code"`
	AwardingAgencyName     *string `db:"awarding_agency_name"`
	AwardingSubTierAgencyN *string `db:"awarding_sub_tier_agency_n"`
	FundingAgencyCode      *string `db:"funding_agency_code"`
	FundingAgencyName      *string `db:"funding_agency_name"`
	FundingSubTierAgencyNa *string `db:"funding_sub_tier_agency_na"`
	AwardingOfficeName     *string `db:"awarding_office_name"`
	FundingOfficeName      *string `db:"funding_office_name"`

	// Derived: place-of-performance geography.
	PlaceOfPerforStateCode  *string `db:"place_of_perfor_state_code"`
	PlaceOfPerformStateNam  *string `db:"place_of_perform_state_nam"`
	PlaceOfPerformCountyCo  *string `db:"place_of_perform_county_co"`
	PlaceOfPerformCountyNa  *string `db:"place_of_perform_county_na"`
	PlaceOfPerformanceCity  *string `db:"place_of_performance_city"`
	PlaceOfPerformCountryN  *string `db:"place_of_perform_country_n"`
	PlaceOfPerformanceZip5  *string `db:"place_of_performance_zip5"`
	PlaceOfPerformZipLast4  *string `db:"place_of_perform_zip_last4"`
	PlaceOfPerformanceForei *string `db:"place_of_performance_forei"`
	PlaceOfPerformanceScope *string `db:"place_of_performance_scope"`

	// Derived: legal-entity geography.
	LegalEntityCityName    *string `db:"legal_entity_city_name"`
	LegalEntityCityCode    *string `db:"legal_entity_city_code"`
	LegalEntityCountyCode  *string `db:"legal_entity_county_code"`
	LegalEntityCountyName  *string `db:"legal_entity_county_name"`
	LegalEntityStateCode   *string `db:"legal_entity_state_code"`
	LegalEntityStateName   *string `db:"legal_entity_state_name"`
	LegalEntityCountryName *string `db:"legal_entity_country_name"`

	// Derived: recipient parentage and executive compensation.
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

	// Derived: descriptive labels.
	ActionTypeDescription   *string `db:"action_type_description"`
	AssistanceTypeDesc      *string `db:"assistance_type_desc"`
	CorrectionDeleteIndDesc *string `db:"correction_delete_ind_desc"`
	RecordTypeDescription   *string `db:"record_type_description"`
	BusinessTypesDesc       *string `db:"business_types_desc"`
	BusinessFundsIndDesc    *string `db:"business_funds_ind_desc"`
}

// RecordTypeValue returns the record type or 0 when unset.
func (f *FABS) RecordTypeValue() int {
	if f.RecordType == nil {
		return 0
	}
	return int(*f.RecordType)
}

// AwardKey returns the identifier that groups modifications of one award:
// URI for aggregate records (type 1), FAIN otherwise.
func (f *FABS) AwardKey() string {
	if f.RecordTypeValue() == 1 {
		if f.URI != nil {
			return *f.URI
		}
		return ""
	}
	if f.FAIN != nil {
		return *f.FAIN
	}
	return ""
}
