package reference

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ZipRedistrictingCutoff is the action-date boundary between the historical
// USPS snapshot (2010 census districts) and the current one (2020 census).
var ZipRedistrictingCutoff = time.Date(2023, time.January, 3, 0, 0, 0, 0, time.UTC)

// MultiDistrictSentinel is the congressional district reported when a zip5
// spans more than one district.
const MultiDistrictSentinel = "90"

// Snapshot is an immutable set of lookup maps over the reference tables.
// Callers must not mutate a snapshot after publication; reloads build a fresh
// one and swap the pointer.
type Snapshot struct {
	SubTiers  map[string]SubTierAgency // upper sub-tier code
	CGACs     map[string]CGACAgency    // cgac code
	FRECs     map[string]FRECAgency    // frec code
	Offices   map[string]Office        // upper office code
	Countries map[string]string        // upper country code -> name
	CFDA      map[string]string        // normalized program number -> title
	DUNS      map[string]DUNS          // recipient identifier

	ZipsCurrent        map[string]Zip     // zip5|last4
	ZipsHistorical     map[string]Zip     // zip5|last4
	ZipFivesCurrent    map[string]ZipFive // zip5
	ZipFivesHistorical map[string]ZipFive // zip5
	ZipCities          map[string]string  // zip5 -> preferred city name

	CitiesByName map[string]CityCode // state|upper city name
	CitiesByCode map[string]CityCode // state|city code
	Counties     map[string]string   // state|county number -> name
	States       map[string]string   // state code -> name
	Aliases      map[string][]string // cgac -> equivalent cgacs
}

// NewSnapshot returns an empty snapshot with every map initialized.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		SubTiers:           map[string]SubTierAgency{},
		CGACs:              map[string]CGACAgency{},
		FRECs:              map[string]FRECAgency{},
		Offices:            map[string]Office{},
		Countries:          map[string]string{},
		CFDA:               map[string]string{},
		DUNS:               map[string]DUNS{},
		ZipsCurrent:        map[string]Zip{},
		ZipsHistorical:     map[string]Zip{},
		ZipFivesCurrent:    map[string]ZipFive{},
		ZipFivesHistorical: map[string]ZipFive{},
		ZipCities:          map[string]string{},
		CitiesByName:       map[string]CityCode{},
		CitiesByCode:       map[string]CityCode{},
		Counties:           map[string]string{},
		States:             map[string]string{},
		Aliases:            map[string][]string{},
	}
}

// AgencyResolution is the outcome of walking a sub-tier up to its top tier.
type AgencyResolution struct {
	SubTierCode string
	SubTierName string
	AgencyCode  string
	AgencyName  string
}

// ResolveSubTier resolves a sub-tier code to its top-tier agency: the parent
// FREC when is_frec is set, the parent CGAC otherwise.
func (s *Snapshot) ResolveSubTier(code string) (AgencyResolution, bool) {
	st, ok := s.SubTiers[strings.ToUpper(code)]
	if !ok {
		return AgencyResolution{}, false
	}
	res := AgencyResolution{SubTierCode: st.SubTierCode, SubTierName: st.SubTierName}
	if st.IsFREC {
		frec, ok := s.FRECs[st.FRECCode]
		if !ok {
			return AgencyResolution{}, false
		}
		res.AgencyCode = frec.FRECCode
		res.AgencyName = frec.AgencyName
		return res, true
	}
	cgac, ok := s.CGACs[st.CGACCode]
	if !ok {
		return AgencyResolution{}, false
	}
	res.AgencyCode = cgac.CGACCode
	res.AgencyName = cgac.AgencyName
	return res, true
}

// OfficeByCode looks up an office case-insensitively.
func (s *Snapshot) OfficeByCode(code string) (Office, bool) {
	office, ok := s.Offices[strings.ToUpper(code)]
	return office, ok
}

// CountryName returns the country name for a code, or empty when unknown.
func (s *Snapshot) CountryName(code string) (string, bool) {
	name, ok := s.Countries[strings.ToUpper(code)]
	return name, ok
}

// NormalizeProgramNumber renders an assistance listing number in the
// canonical ##.### form; returns the input unchanged when not numeric.
func NormalizeProgramNumber(number string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(number), 64)
	if err != nil {
		return strings.TrimSpace(number)
	}
	return fmt.Sprintf("%06.3f", f)
}

// CFDATitle resolves an assistance listing title by normalized number.
func (s *Snapshot) CFDATitle(number string) (string, bool) {
	title, ok := s.CFDA[NormalizeProgramNumber(number)]
	return title, ok
}

// DUNSEntry looks up a recipient registration.
func (s *Snapshot) DUNSEntry(duns string) (DUNS, bool) {
	entry, ok := s.DUNS[duns]
	return entry, ok
}

func zipKey(zip5, last4 string) string {
	return zip5 + "|" + last4
}

// ZipKey builds the nine-digit map key used by ZipsCurrent / ZipsHistorical.
func ZipKey(zip5, last4 string) string {
	return zipKey(zip5, last4)
}

func (s *Snapshot) zips(actionDate time.Time) (map[string]Zip, map[string]ZipFive) {
	if actionDate.Before(ZipRedistrictingCutoff) {
		return s.ZipsHistorical, s.ZipFivesHistorical
	}
	return s.ZipsCurrent, s.ZipFivesCurrent
}

// Zip9 looks up a full nine-digit zip in the table selected by action date.
func (s *Snapshot) Zip9(zip5, last4 string, actionDate time.Time) (Zip, bool) {
	zips, _ := s.zips(actionDate)
	z, ok := zips[zipKey(zip5, last4)]
	return z, ok
}

// Zip5Group looks up the grouped five-digit record in the table selected by
// action date.
func (s *Snapshot) Zip5Group(zip5 string, actionDate time.Time) (ZipFive, bool) {
	_, fives := s.zips(actionDate)
	g, ok := fives[zip5]
	return g, ok
}

// District collapses a ZipFive to its unique congressional district, or the
// sentinel 90 when the zip spans several.
func (g ZipFive) District() string {
	unique := ""
	for _, d := range g.Districts {
		if d == "" {
			continue
		}
		if unique == "" {
			unique = d
			continue
		}
		if d != unique {
			return MultiDistrictSentinel
		}
	}
	if unique == "" {
		return MultiDistrictSentinel
	}
	return unique
}

// CityNameForZip returns the preferred city name for a zip5.
func (s *Snapshot) CityNameForZip(zip5 string) (string, bool) {
	name, ok := s.ZipCities[zip5]
	return name, ok
}

func stateKey(state, second string) string {
	return strings.ToUpper(state) + "|" + strings.ToUpper(second)
}

// CityByName looks up a gazetteer city by state and name.
func (s *Snapshot) CityByName(state, name string) (CityCode, bool) {
	c, ok := s.CitiesByName[stateKey(state, name)]
	return c, ok
}

// CityByCode looks up a gazetteer city by state and five-digit city code.
func (s *Snapshot) CityByCode(state, code string) (CityCode, bool) {
	c, ok := s.CitiesByCode[stateKey(state, code)]
	return c, ok
}

// CountyName returns the county name for (state, county number).
func (s *Snapshot) CountyName(state, countyNumber string) (string, bool) {
	name, ok := s.Counties[stateKey(state, countyNumber)]
	return name, ok
}

// StateName returns the state name for a two-letter code.
func (s *Snapshot) StateName(code string) (string, bool) {
	name, ok := s.States[strings.ToUpper(code)]
	return name, ok
}

// AliasesFor returns the equivalent top-tier codes for a CGAC, including the
// code itself. CGAC 097 famously resolves to 017 and 021 in account lookups.
func (s *Snapshot) AliasesFor(cgac string) []string {
	out := []string{cgac}
	out = append(out, s.Aliases[cgac]...)
	return out
}
