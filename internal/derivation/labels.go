package derivation

import (
	"strconv"
	"strings"

	"broker/internal/staging"
)

var actionTypeLabels = map[string]string{
	"A": "New",
	"B": "Continuation",
	"C": "Revision",
	"D": "Funding adjustment to completed project",
	"E": "Aggregated record",
}

var assistanceTypeLabels = map[string]string{
	"02": "Block Grant",
	"03": "Formula Grant",
	"04": "Project Grant",
	"05": "Cooperative Agreement",
	"06": "Direct Payment for Specified Use",
	"07": "Direct Loan",
	"08": "Guaranteed/Insured Loan",
	"09": "Insurance",
	"10": "Direct Payment with Unrestricted Use",
	"11": "Other Financial Assistance",
}

var correctionDeleteLabels = map[string]string{
	"C": "Correct an Existing Record",
	"D": "Delete an Existing Record",
}

var recordTypeLabels = map[string]string{
	"1": "Aggregate Record",
	"2": "Non-Aggregate Record",
	"3": "Non-Aggregate Record to an Individual Recipient (PII-Redacted)",
}

var businessTypeLabels = map[string]string{
	"A": "State Government",
	"B": "County Government",
	"C": "City or Township Government",
	"D": "Special District Government",
	"E": "Regional Organization",
	"F": "U.S. Territory or Possession",
	"G": "Independent School District",
	"H": "Public/State Controlled Institution of Higher Education",
	"I": "Indian/Native American Tribal Government (Federally Recognized)",
	"J": "Indian/Native American Tribal Government (Other than Federally Recognized)",
	"K": "Indian/Native American Tribal Designated Organization",
	"L": "Public/Indian Housing Authority",
	"M": "Nonprofit with 501C3 IRS Status (Other than Institution of Higher Education)",
	"N": "Nonprofit without 501C3 IRS Status (Other than Institution of Higher Education)",
	"O": "Private Institution of Higher Education",
	"P": "Individual",
	"Q": "For-Profit Organization (Other than Small Business)",
	"R": "Small Business",
	"S": "Hispanic-serving Institution",
	"T": "Historically Black College or University (HBCU)",
	"U": "Tribally Controlled College or University (TCCU)",
	"V": "Alaska Native and Native Hawaiian Serving Institutions",
	"W": "Non-domestic (non-US) Entity",
	"X": "Other",
}

var businessFundsLabels = map[string]string{
	"REC": "Received",
	"NON": "Not Received",
}

// deriveLabels fills the human-readable descriptions for every coded field.
// Unknown codes leave the description null; business_types maps each
// single-character code pointwise and joins the labels with semicolons.
func deriveLabels(f *staging.FABS) {
	f.ActionTypeDescription = labelFor(actionTypeLabels, upperValue(f.ActionType))
	f.AssistanceTypeDesc = labelFor(assistanceTypeLabels, value(f.AssistanceType))
	f.CorrectionDeleteIndDesc = labelFor(correctionDeleteLabels, upperValue(f.CorrectionDeleteIndicatr))
	f.BusinessFundsIndDesc = labelFor(businessFundsLabels, upperValue(f.BusinessFundsIndicator))

	f.RecordTypeDescription = nil
	if f.RecordType != nil {
		f.RecordTypeDescription = labelFor(recordTypeLabels, strconv.FormatInt(*f.RecordType, 10))
	}

	f.BusinessTypesDesc = deriveBusinessTypes(upperValue(f.BusinessTypes))
}

func labelFor(table map[string]string, code string) *string {
	if code == "" {
		return nil
	}
	if label, ok := table[code]; ok {
		return str(label)
	}
	return nil
}

func deriveBusinessTypes(codes string) *string {
	if codes == "" {
		return nil
	}
	var labels []string
	for _, r := range codes {
		label, ok := businessTypeLabels[string(r)]
		if !ok {
			return nil
		}
		labels = append(labels, label)
	}
	return str(strings.Join(labels, ";"))
}
