package derivation

import (
	"broker/internal/reference"
	"broker/internal/staging"
)

// deriveRecipientParent fills the ultimate-parent columns from the recipient
// registry. Registrations without a parent leave the outputs null.
func deriveRecipientParent(f *staging.FABS, snap *reference.Snapshot) {
	f.UltimateParentUniqueIde = nil
	f.UltimateParentLegalEnti = nil

	duns := value(f.AwardeeOrRecipientUniqu)
	if duns == "" {
		return
	}
	entry, ok := snap.DUNSEntry(duns)
	if !ok {
		return
	}
	f.UltimateParentUniqueIde = copyPtr(entry.UltimateParentUniqueIde)
	f.UltimateParentLegalEnti = copyPtr(entry.UltimateParentLegalEnti)
}

// deriveExecutiveCompensation copies the five compensation slots of the
// recipient's registration verbatim. Missing registrations null every slot.
func deriveExecutiveCompensation(f *staging.FABS, snap *reference.Snapshot) {
	var entry reference.DUNS
	if duns := value(f.AwardeeOrRecipientUniqu); duns != "" {
		if e, ok := snap.DUNSEntry(duns); ok {
			entry = e
		}
	}

	f.HighCompOfficer1FullNa = copyPtr(entry.HighCompOfficer1FullNa)
	f.HighCompOfficer1Amount = copyPtr(entry.HighCompOfficer1Amount)
	f.HighCompOfficer2FullNa = copyPtr(entry.HighCompOfficer2FullNa)
	f.HighCompOfficer2Amount = copyPtr(entry.HighCompOfficer2Amount)
	f.HighCompOfficer3FullNa = copyPtr(entry.HighCompOfficer3FullNa)
	f.HighCompOfficer3Amount = copyPtr(entry.HighCompOfficer3Amount)
	f.HighCompOfficer4FullNa = copyPtr(entry.HighCompOfficer4FullNa)
	f.HighCompOfficer4Amount = copyPtr(entry.HighCompOfficer4Amount)
	f.HighCompOfficer5FullNa = copyPtr(entry.HighCompOfficer5FullNa)
	f.HighCompOfficer5Amount = copyPtr(entry.HighCompOfficer5Amount)
}
