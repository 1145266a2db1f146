// Package staging holds the typed per-file staging records and their Postgres
// store. Every row belongs to exactly one submission and carries its 1-based
// position in the uploaded file; (submission_id, file_type, row_number) is
// unique. Columns are nullable because the upload collaborator stages whatever
// the agency sent; rules decide what is acceptable.
package staging

import "broker/pkg/domain"

// Row is the part every staging record shares.
type Row struct {
	SubmissionID domain.SubmissionID `db:"submission_id"`
	RowNumber    int64               `db:"row_number"`
}

// Appropriation is one file A row: TAS-level budgetary totals.
type Appropriation struct {
	Row
	ID int64 `db:"appropriation_id"`

	AllocationTransferAgency *string `db:"allocation_transfer_agency"`
	AgencyIdentifier         *string `db:"agency_identifier"`
	BeginningPeriodOfAvaila  *string `db:"beginning_period_of_availa"`
	EndingPeriodOfAvailabil  *string `db:"ending_period_of_availabil"`
	AvailabilityTypeCode     *string `db:"availability_type_code"`
	MainAccountCode          *string `db:"main_account_code"`
	SubAccountCode           *string `db:"sub_account_code"`
	TAS                      *string `db:"tas"`
	DisplayTAS               *string `db:"display_tas"`
	AccountNum               *int64  `db:"account_num"`

	AdjustmentsToUnobligatedCPE  *float64 `db:"adjustments_to_unobligated_cpe"`
	BorrowingAuthorityAmountCPE  *float64 `db:"borrowing_authority_amount_cpe"`
	BudgetAuthorityAppropriaCPE  *float64 `db:"budget_authority_appropria_cpe"`
	ContractAuthorityAmountCPE   *float64 `db:"contract_authority_amount_cpe"`
	DeobligationsRecoveriesRCPE  *float64 `db:"deobligations_recoveries_r_cpe"`
	GrossOutlayAmountByTASCPE    *float64 `db:"gross_outlay_amount_by_tas_cpe"`
	ObligationsIncurredTotalCPE  *float64 `db:"obligations_incurred_total_cpe"`
	OtherBudgetaryResourcesCPE   *float64 `db:"other_budgetary_resources_cpe"`
	SpendingAuthorityFromOfCPE   *float64 `db:"spending_authority_from_of_cpe"`
	StatusOfBudgetaryResourCPE   *float64 `db:"status_of_budgetary_resour_cpe"`
	TotalBudgetaryResourcesCPE   *float64 `db:"total_budgetary_resources_cpe"`
	UnobligatedBalanceCPE        *float64 `db:"unobligated_balance_cpe"`
}

// ObjectClassProgram is one file B row: object class by program activity.
type ObjectClassProgram struct {
	Row
	ID int64 `db:"object_class_program_activity_id"`

	AllocationTransferAgency *string `db:"allocation_transfer_agency"`
	AgencyIdentifier         *string `db:"agency_identifier"`
	BeginningPeriodOfAvaila  *string `db:"beginning_period_of_availa"`
	EndingPeriodOfAvailabil  *string `db:"ending_period_of_availabil"`
	AvailabilityTypeCode     *string `db:"availability_type_code"`
	MainAccountCode          *string `db:"main_account_code"`
	SubAccountCode           *string `db:"sub_account_code"`
	TAS                      *string `db:"tas"`
	DisplayTAS               *string `db:"display_tas"`
	AccountNum               *int64  `db:"account_num"`

	ObjectClass               *string `db:"object_class"`
	ProgramActivityCode       *string `db:"program_activity_code"`
	ProgramActivityName       *string `db:"program_activity_name"`
	ByDirectReimbursableFun   *string `db:"by_direct_reimbursable_fun"`
	DisasterEmergencyFundCode *string `db:"disaster_emergency_fund_code"`
	PriorYearAdjustment       *string `db:"prior_year_adjustment"`

	DeobligationsRecovRefundCPE  *float64 `db:"deobligations_recov_by_pro_cpe"`
	GrossOutlayAmountByProCPE    *float64 `db:"gross_outlay_amount_by_pro_cpe"`
	GrossOutlaysDeliveredOrCPE   *float64 `db:"gross_outlays_delivered_or_cpe"`
	GrossOutlaysUndeliveredCPE   *float64 `db:"gross_outlays_undelivered_cpe"`
	ObligationsDeliveredOrdCPE   *float64 `db:"obligations_delivered_orde_cpe"`
	ObligationsIncurredByPrCPE   *float64 `db:"obligations_incurred_by_pr_cpe"`
	ObligationsUndeliveredOrCPE  *float64 `db:"obligations_undelivered_or_cpe"`
	USSGL480100UndeliveredCPE    *float64 `db:"ussgl480100_undelivered_or_cpe"`
	USSGL490100DeliveredOrdCPE   *float64 `db:"ussgl490100_delivered_orde_cpe"`
	USSGL497100DownwardAdjuCPE   *float64 `db:"ussgl497100_downward_adjus_cpe"`
}

// AwardFinancial is one file C row: award-level financial detail.
type AwardFinancial struct {
	Row
	ID int64 `db:"award_financial_id"`

	AllocationTransferAgency *string `db:"allocation_transfer_agency"`
	AgencyIdentifier         *string `db:"agency_identifier"`
	BeginningPeriodOfAvaila  *string `db:"beginning_period_of_availa"`
	EndingPeriodOfAvailabil  *string `db:"ending_period_of_availabil"`
	AvailabilityTypeCode     *string `db:"availability_type_code"`
	MainAccountCode          *string `db:"main_account_code"`
	SubAccountCode           *string `db:"sub_account_code"`
	TAS                      *string `db:"tas"`
	DisplayTAS               *string `db:"display_tas"`
	AccountNum               *int64  `db:"account_num"`

	PIID                      *string `db:"piid"`
	FAIN                      *string `db:"fain"`
	URI                       *string `db:"uri"`
	ParentAwardID             *string `db:"parent_award_id"`
	ObjectClass               *string `db:"object_class"`
	ProgramActivityCode       *string `db:"program_activity_code"`
	ProgramActivityName       *string `db:"program_activity_name"`
	ByDirectReimbursableFun   *string `db:"by_direct_reimbursable_fun"`
	DisasterEmergencyFundCode *string `db:"disaster_emergency_fund_code"`
	PriorYearAdjustment       *string `db:"prior_year_adjustment"`

	TransactionObligatedAmou  *float64 `db:"transaction_obligated_amou"`
	GrossOutlayAmountByAwaCPE *float64 `db:"gross_outlay_amount_by_awa_cpe"`
}
