package reference

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

// PostgresStore loads reference tables into snapshots.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgres constructs a PostgreSQL-backed reference store.
func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// LoadSnapshot reads every hot lookup table into a fresh Snapshot. Tables load
// concurrently; each goroutine owns one field of the snapshot so no locking
// is needed.
func (s *PostgresStore) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	snap := NewSnapshot()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.loadAgencies(ctx, snap) })
	g.Go(func() error { return s.loadOffices(ctx, snap) })
	g.Go(func() error { return s.loadCountries(ctx, snap) })
	g.Go(func() error { return s.loadCFDA(ctx, snap) })
	g.Go(func() error { return s.loadDUNS(ctx, snap) })
	g.Go(func() error { return s.loadZips(ctx, snap, "zips", snap.ZipsCurrent, snap.ZipFivesCurrent) })
	g.Go(func() error { return s.loadZips(ctx, snap, "zips_historical", snap.ZipsHistorical, snap.ZipFivesHistorical) })
	g.Go(func() error { return s.loadZipCities(ctx, snap) })
	g.Go(func() error { return s.loadCities(ctx, snap) })
	g.Go(func() error { return s.loadCounties(ctx, snap) })
	g.Go(func() error { return s.loadStates(ctx, snap) })
	g.Go(func() error { return s.loadAliases(ctx, snap) })

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *PostgresStore) loadAgencies(ctx context.Context, snap *Snapshot) error {
	var cgacs []CGACAgency
	if err := s.db.SelectContext(ctx, &cgacs,
		`SELECT cgac_code, agency_name FROM cgac`); err != nil {
		return fmt.Errorf("load cgac: %w", err)
	}
	for _, c := range cgacs {
		snap.CGACs[c.CGACCode] = c
	}

	var frecs []FRECAgency
	if err := s.db.SelectContext(ctx, &frecs,
		`SELECT frec_code, cgac_code, agency_name FROM frec`); err != nil {
		return fmt.Errorf("load frec: %w", err)
	}
	for _, f := range frecs {
		snap.FRECs[f.FRECCode] = f
	}

	var subtiers []SubTierAgency
	if err := s.db.SelectContext(ctx, &subtiers, `
		SELECT sub_tier_agency_code, sub_tier_agency_name, cgac_code, frec_code, is_frec, priority
		FROM sub_tier_agency`); err != nil {
		return fmt.Errorf("load sub-tier agencies: %w", err)
	}
	for _, st := range subtiers {
		snap.SubTiers[strings.ToUpper(st.SubTierCode)] = st
	}
	return nil
}

func (s *PostgresStore) loadOffices(ctx context.Context, snap *Snapshot) error {
	var offices []Office
	if err := s.db.SelectContext(ctx, &offices, `
		SELECT office_code, office_name, sub_tier_code, agency_code,
			financial_assistance_awards_office, financial_assistance_funding_office,
			contract_awards_office, contract_funding_office,
			effective_start_date, effective_end_date
		FROM office`); err != nil {
		return fmt.Errorf("load offices: %w", err)
	}
	for _, o := range offices {
		snap.Offices[strings.ToUpper(o.OfficeCode)] = o
	}
	return nil
}

func (s *PostgresStore) loadCountries(ctx context.Context, snap *Snapshot) error {
	var countries []CountryCode
	if err := s.db.SelectContext(ctx, &countries,
		`SELECT country_code, country_name FROM country_code`); err != nil {
		return fmt.Errorf("load countries: %w", err)
	}
	for _, c := range countries {
		snap.Countries[strings.ToUpper(c.CountryCode)] = c.CountryName
	}
	return nil
}

func (s *PostgresStore) loadCFDA(ctx context.Context, snap *Snapshot) error {
	var programs []CFDAProgram
	if err := s.db.SelectContext(ctx, &programs,
		`SELECT program_number, program_title FROM cfda_program`); err != nil {
		return fmt.Errorf("load cfda programs: %w", err)
	}
	for _, p := range programs {
		snap.CFDA[NormalizeProgramNumber(p.ProgramNumber)] = p.ProgramTitle
	}
	return nil
}

func (s *PostgresStore) loadDUNS(ctx context.Context, snap *Snapshot) error {
	var entries []DUNS
	if err := s.db.SelectContext(ctx, &entries, `
		SELECT awardee_or_recipient_uniqu, legal_business_name,
			ultimate_parent_unique_ide, ultimate_parent_legal_enti,
			high_comp_officer1_full_na, high_comp_officer1_amount,
			high_comp_officer2_full_na, high_comp_officer2_amount,
			high_comp_officer3_full_na, high_comp_officer3_amount,
			high_comp_officer4_full_na, high_comp_officer4_amount,
			high_comp_officer5_full_na, high_comp_officer5_amount
		FROM duns
		ORDER BY awardee_or_recipient_uniqu, ultimate_parent_unique_ide NULLS LAST`); err != nil {
		return fmt.Errorf("load duns: %w", err)
	}
	for _, e := range entries {
		// First row wins; ordering puts rows with a parent first so the
		// parent-DUNS derivation sees them.
		if _, ok := snap.DUNS[e.AwardeeOrRecipientUniqu]; !ok {
			snap.DUNS[e.AwardeeOrRecipientUniqu] = e
		}
	}
	return nil
}

func (s *PostgresStore) loadZips(ctx context.Context, snap *Snapshot, table string, nines map[string]Zip, fives map[string]ZipFive) error {
	var zips []Zip
	query := fmt.Sprintf(`
		SELECT zip5, zip_last4, state_abbreviation, county_number, congressional_district_no
		FROM %s`, table)
	if err := s.db.SelectContext(ctx, &zips, query); err != nil {
		return fmt.Errorf("load %s: %w", table, err)
	}
	for _, z := range zips {
		nines[zipKey(z.Zip5, z.ZipLast4)] = z
		five, ok := fives[z.Zip5]
		if !ok {
			five = ZipFive{
				Zip5:              z.Zip5,
				StateAbbreviation: z.StateAbbreviation,
				CountyNumber:      z.CountyNumber,
			}
		}
		if z.CongressionalDistrict != nil {
			five.Districts = append(five.Districts, *z.CongressionalDistrict)
		}
		fives[z.Zip5] = five
	}
	return nil
}

func (s *PostgresStore) loadZipCities(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryxContext(ctx, `SELECT zip_code, preferred_city_name FROM zip_city`)
	if err != nil {
		return fmt.Errorf("load zip cities: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var zip, city string
		if err := rows.Scan(&zip, &city); err != nil {
			return fmt.Errorf("scan zip city: %w", err)
		}
		snap.ZipCities[zip] = city
	}
	return rows.Err()
}

func (s *PostgresStore) loadCities(ctx context.Context, snap *Snapshot) error {
	var cities []CityCode
	if err := s.db.SelectContext(ctx, &cities, `
		SELECT city_code, feature_name, state_code, county_number, county_name
		FROM city_code`); err != nil {
		return fmt.Errorf("load city codes: %w", err)
	}
	for _, c := range cities {
		snap.CitiesByName[stateKey(c.StateCode, c.CityName)] = c
		snap.CitiesByCode[stateKey(c.StateCode, c.CityCode)] = c
	}
	return nil
}

func (s *PostgresStore) loadCounties(ctx context.Context, snap *Snapshot) error {
	var counties []CountyCode
	if err := s.db.SelectContext(ctx, &counties,
		`SELECT county_number, county_name, state_code FROM county_code`); err != nil {
		return fmt.Errorf("load county codes: %w", err)
	}
	for _, c := range counties {
		snap.Counties[stateKey(c.StateCode, c.CountyNumber)] = c.CountyName
	}
	return nil
}

func (s *PostgresStore) loadStates(ctx context.Context, snap *Snapshot) error {
	var states []State
	if err := s.db.SelectContext(ctx, &states,
		`SELECT state_code, state_name FROM states`); err != nil {
		return fmt.Errorf("load states: %w", err)
	}
	for _, st := range states {
		snap.States[strings.ToUpper(st.StateCode)] = st.StateName
	}
	return nil
}

func (s *PostgresStore) loadAliases(ctx context.Context, snap *Snapshot) error {
	var aliases []AgencyCodeAlias
	if err := s.db.SelectContext(ctx, &aliases,
		`SELECT cgac_code, alias_cgac FROM agency_code_alias`); err != nil {
		return fmt.Errorf("load agency code aliases: %w", err)
	}
	for _, a := range aliases {
		snap.Aliases[a.CGACCode] = append(snap.Aliases[a.CGACCode], a.AliasCGAC)
	}
	return nil
}
