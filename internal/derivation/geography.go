package derivation

import (
	"regexp"
	"strings"

	"broker/internal/reference"
	"broker/internal/staging"
)

// Place-of-performance code formats. The first two characters are a state
// code or "00" for the nationwide forms.
const (
	multiStateCode = "00*****"
	foreignCode    = "00FORGN"
	cityWideZip    = "city-wide"
	usaCountryCode = "USA"
)

var (
	ppopCountyPattern      = regexp.MustCompile(`^([A-Z]{2})\*\*(\d{3})$`)
	ppopCityPattern        = regexp.MustCompile(`^([A-Z]{2})(\d{5})$`)
	ppopPartialCityPattern = regexp.MustCompile(`^([A-Z]{2})\*(\d{4})$`)
	ppopStateWidePattern   = regexp.MustCompile(`^([A-Z]{2})\*{5}$`)
)

// splitZip normalizes a zip string into its five-digit and plus-four parts.
// Accepts #####, #########, and #####-####.
func splitZip(zip string) (zip5, last4 string, ok bool) {
	digits := strings.ReplaceAll(zip, "-", "")
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", "", false
		}
	}
	switch len(digits) {
	case 5:
		return digits, "", true
	case 9:
		return digits[:5], digits[5:], true
	}
	return "", "", false
}

// derivePPoPState fills the place-of-performance state from the first two
// characters of the code. "00*****" means multi-state, "00FORGN" foreign.
func derivePPoPState(f *staging.FABS, snap *reference.Snapshot) {
	f.PlaceOfPerforStateCode = nil
	f.PlaceOfPerformStateNam = nil

	code := upperValue(f.PlaceOfPerformanceCode)
	switch {
	case code == "":
	case code == multiStateCode:
		f.PlaceOfPerformStateNam = str("Multi-state")
	case code == foreignCode:
	case len(code) == 7 && isStatePrefix(code):
		state := code[:2]
		f.PlaceOfPerforStateCode = str(state)
		if name, ok := snap.StateName(state); ok {
			f.PlaceOfPerformStateNam = str(name)
		}
	}
}

func isStatePrefix(code string) bool {
	return code[0] >= 'A' && code[0] <= 'Z' && code[1] >= 'A' && code[1] <= 'Z'
}

// resolvedPlace is the outcome of a zip lookup: the most specific geography
// the reference tables know for the zip at the row's action date.
type resolvedPlace struct {
	state    string
	county   string
	district *string
	found    bool
}

// resolveZip looks up a nine-digit zip first and falls back to the grouped
// five-digit record, which collapses multi-district zips to the sentinel 90.
func resolveZip(snap *reference.Snapshot, zip5, last4 string, f *staging.FABS) resolvedPlace {
	when := actionDate(f)
	if last4 != "" {
		if z, ok := snap.Zip9(zip5, last4, when); ok {
			return resolvedPlace{
				state:    z.StateAbbreviation,
				county:   z.CountyNumber,
				district: copyPtr(z.CongressionalDistrict),
				found:    true,
			}
		}
	}
	if g, ok := snap.Zip5Group(zip5, when); ok {
		return resolvedPlace{
			state:    g.StateAbbreviation,
			county:   g.CountyNumber,
			district: str(g.District()),
			found:    true,
		}
	}
	return resolvedPlace{}
}

// derivePPoPGeography fills county, city, and congressional district from the
// zip when one is given, otherwise from the place-of-performance code. A
// caller-supplied congressional district wins over the derived one; the
// literal zip "city-wide" nulls everything.
func derivePPoPGeography(f *staging.FABS, snap *reference.Snapshot) {
	provided := copyPtr(f.PlaceOfPerformanceCongr)
	f.PlaceOfPerformCountyCo = nil
	f.PlaceOfPerformCountyNa = nil
	f.PlaceOfPerformanceCity = nil
	f.PlaceOfPerformanceCongr = nil

	var derived *string

	zip := value(f.PlaceOfPerformanceZip4a)
	code := upperValue(f.PlaceOfPerformanceCode)

	switch {
	case strings.EqualFold(zip, cityWideZip):
		return

	case zip != "":
		zip5, last4, ok := splitZip(zip)
		if !ok {
			break
		}
		place := resolveZip(snap, zip5, last4, f)
		if place.found {
			f.PlaceOfPerformCountyCo = str(place.county)
			if name, ok := snap.CountyName(place.state, place.county); ok {
				f.PlaceOfPerformCountyNa = str(name)
			}
			derived = place.district
		}
		if city, ok := snap.CityNameForZip(zip5); ok {
			f.PlaceOfPerformanceCity = str(city)
		}

	default:
		if m := ppopCountyPattern.FindStringSubmatch(code); m != nil {
			state, county := m[1], m[2]
			f.PlaceOfPerformCountyCo = str(county)
			if name, ok := snap.CountyName(state, county); ok {
				f.PlaceOfPerformCountyNa = str(name)
			}
			break
		}
		if m := ppopCityPattern.FindStringSubmatch(code); m != nil {
			state, cityCode := m[1], m[2]
			if c, ok := snap.CityByCode(state, cityCode); ok {
				f.PlaceOfPerformanceCity = str(c.CityName)
				f.PlaceOfPerformCountyCo = str(c.CountyNumber)
				if c.CountyName != "" {
					f.PlaceOfPerformCountyNa = str(c.CountyName)
				}
			}
		}
		// XX*****, 00*****, 00FORGN carry no county or city.
	}

	if value(provided) != "" {
		f.PlaceOfPerformanceCongr = provided
		return
	}
	f.PlaceOfPerformanceCongr = derived
}

// deriveLegalEntityGeography resolves the recipient address. Record types 2
// and 3 carry a legal-entity zip; record type 1 borrows from the
// place-of-performance code. A caller-supplied congressional district wins.
func deriveLegalEntityGeography(f *staging.FABS, snap *reference.Snapshot) {
	provided := copyPtr(f.LegalEntityCongressional)
	f.LegalEntityCityName = nil
	f.LegalEntityCityCode = nil
	f.LegalEntityCountyCode = nil
	f.LegalEntityCountyName = nil
	f.LegalEntityStateCode = nil
	f.LegalEntityStateName = nil
	f.LegalEntityCongressional = nil

	var derived *string

	if f.RecordTypeValue() == 1 {
		code := upperValue(f.PlaceOfPerformanceCode)
		switch {
		case code == foreignCode || code == multiStateCode:
		default:
			if m := ppopCountyPattern.FindStringSubmatch(code); m != nil {
				state, county := m[1], m[2]
				setLegalEntityState(f, snap, state)
				f.LegalEntityCountyCode = str(county)
				if name, ok := snap.CountyName(state, county); ok {
					f.LegalEntityCountyName = str(name)
				}
			} else if m := ppopStateWidePattern.FindStringSubmatch(code); m != nil {
				setLegalEntityState(f, snap, m[1])
			}
		}
	} else if zip5 := value(f.LegalEntityZip5); zip5 != "" {
		place := resolveZip(snap, zip5, value(f.LegalEntityZipLast4), f)
		if place.found {
			setLegalEntityState(f, snap, place.state)
			f.LegalEntityCountyCode = str(place.county)
			if name, ok := snap.CountyName(place.state, place.county); ok {
				f.LegalEntityCountyName = str(name)
			}
			derived = place.district
		}
		if city, ok := snap.CityNameForZip(zip5); ok {
			f.LegalEntityCityName = str(city)
			if place.found {
				if c, ok := snap.CityByName(place.state, city); ok {
					f.LegalEntityCityCode = str(c.CityCode)
				}
			}
		}
	}

	if value(provided) != "" {
		f.LegalEntityCongressional = provided
		return
	}
	f.LegalEntityCongressional = derived
}

func setLegalEntityState(f *staging.FABS, snap *reference.Snapshot, state string) {
	f.LegalEntityStateCode = str(state)
	if name, ok := snap.StateName(state); ok {
		f.LegalEntityStateName = str(name)
	}
}

func derivePPoPCountry(f *staging.FABS, snap *reference.Snapshot) {
	f.PlaceOfPerformCountryN = nil
	if code := value(f.PlaceOfPerformCountryC); code != "" {
		if name, ok := snap.CountryName(code); ok {
			f.PlaceOfPerformCountryN = str(name)
		}
	}
}

func deriveLegalEntityCountry(f *staging.FABS, snap *reference.Snapshot) {
	f.LegalEntityCountryName = nil
	if code := value(f.LegalEntityCountryCode); code != "" {
		if name, ok := snap.CountryName(code); ok {
			f.LegalEntityCountryName = str(name)
		}
	}
}

// derivePPoPCodeFromRecipient backfills the place-of-performance code for
// record type 3, where the place of performance is the recipient's location.
// Foreign recipients get 00FORGN; a domestic zip resolves to the gazetteer
// city code, or XX00000 when the city is unknown.
func derivePPoPCodeFromRecipient(f *staging.FABS, snap *reference.Snapshot) {
	if f.RecordTypeValue() != 3 {
		return
	}
	country := upperValue(f.LegalEntityCountryCode)
	if country != "" && country != usaCountryCode {
		f.PlaceOfPerformanceCode = str(foreignCode)
		return
	}
	zip5 := value(f.LegalEntityZip5)
	if zip5 == "" {
		return
	}
	g, ok := snap.Zip5Group(zip5, actionDate(f))
	if !ok {
		return
	}
	state := g.StateAbbreviation
	if city, ok := snap.CityNameForZip(zip5); ok {
		if c, ok := snap.CityByName(state, city); ok {
			f.PlaceOfPerformanceCode = str(state + c.CityCode)
			return
		}
	}
	f.PlaceOfPerformanceCode = str(state + "00000")
}

// redactPlaceOfPerformance copies the legal-entity geography over the
// place-of-performance fields for record type 3, so the published record
// never exposes the individual recipient's address at finer grain than the
// derivation already produced for the legal entity.
func redactPlaceOfPerformance(f *staging.FABS) {
	if f.RecordTypeValue() != 3 {
		return
	}
	f.PlaceOfPerformCountryC = copyPtr(f.LegalEntityCountryCode)
	f.PlaceOfPerformCountryN = copyPtr(f.LegalEntityCountryName)
	f.PlaceOfPerforStateCode = copyPtr(f.LegalEntityStateCode)
	f.PlaceOfPerformStateNam = copyPtr(f.LegalEntityStateName)
	f.PlaceOfPerformCountyCo = copyPtr(f.LegalEntityCountyCode)
	f.PlaceOfPerformCountyNa = copyPtr(f.LegalEntityCountyName)
	f.PlaceOfPerformanceCity = copyPtr(f.LegalEntityCityName)
	f.PlaceOfPerformanceCongr = copyPtr(f.LegalEntityCongressional)

	if zip5 := value(f.LegalEntityZip5); zip5 != "" {
		zip := zip5
		if last4 := value(f.LegalEntityZipLast4); last4 != "" {
			zip += last4
		}
		f.PlaceOfPerformanceZip4a = str(zip)
	} else {
		f.PlaceOfPerformanceZip4a = nil
	}

	f.PlaceOfPerformanceForei = nil
	if foreign := value(f.LegalEntityForeignCity); foreign != "" {
		f.PlaceOfPerformanceForei = str(foreign)
		f.PlaceOfPerformanceCity = str(foreign)
	}
}

// deriveZipSplit splits the place-of-performance zip into its five-digit and
// plus-four columns. "city-wide" and unparseable values leave both null.
func deriveZipSplit(f *staging.FABS) {
	f.PlaceOfPerformanceZip5 = nil
	f.PlaceOfPerformZipLast4 = nil

	zip := value(f.PlaceOfPerformanceZip4a)
	if zip == "" || strings.EqualFold(zip, cityWideZip) {
		return
	}
	zip5, last4, ok := splitZip(zip)
	if !ok {
		return
	}
	f.PlaceOfPerformanceZip5 = str(zip5)
	if last4 != "" {
		f.PlaceOfPerformZipLast4 = str(last4)
	}
}

// derivePPoPScope classifies the granularity of the place of performance.
// A parseable zip always means a single zip code; otherwise the code format
// decides.
func derivePPoPScope(f *staging.FABS) {
	f.PlaceOfPerformanceScope = nil

	zip := value(f.PlaceOfPerformanceZip4a)
	if strings.EqualFold(zip, cityWideZip) {
		f.PlaceOfPerformanceScope = str("City-wide")
		return
	}
	if zip != "" {
		if _, _, ok := splitZip(zip); ok {
			f.PlaceOfPerformanceScope = str("Single ZIP Code")
			return
		}
	}

	code := upperValue(f.PlaceOfPerformanceCode)
	switch {
	case code == multiStateCode:
		f.PlaceOfPerformanceScope = str("Multi-state")
	case code == foreignCode:
		f.PlaceOfPerformanceScope = str("Foreign")
	case ppopCountyPattern.MatchString(code):
		f.PlaceOfPerformanceScope = str("County-wide")
	case ppopCityPattern.MatchString(code), ppopPartialCityPattern.MatchString(code):
		f.PlaceOfPerformanceScope = str("City-wide")
	case ppopStateWidePattern.MatchString(code):
		f.PlaceOfPerformanceScope = str("State-wide")
	}
}
