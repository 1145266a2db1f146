package reference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSubTier(t *testing.T) {
	snap := NewSnapshot()
	snap.CGACs["097"] = CGACAgency{CGACCode: "097", AgencyName: "Department of Defense"}
	snap.FRECs["1601"] = FRECAgency{FRECCode: "1601", CGACCode: "016", AgencyName: "Library of Congress"}
	snap.SubTiers["5700"] = SubTierAgency{SubTierCode: "5700", SubTierName: "Air Force", CGACCode: "097"}
	snap.SubTiers["03AB"] = SubTierAgency{SubTierCode: "03AB", SubTierName: "CRS", FRECCode: "1601", IsFREC: true}

	t.Run("cgac sub-tier resolves to the cgac parent", func(t *testing.T) {
		res, ok := snap.ResolveSubTier("5700")
		require.True(t, ok)
		assert.Equal(t, "097", res.AgencyCode)
		assert.Equal(t, "Department of Defense", res.AgencyName)
	})

	t.Run("frec sub-tier resolves to the frec parent", func(t *testing.T) {
		res, ok := snap.ResolveSubTier("03ab")
		require.True(t, ok)
		assert.Equal(t, "1601", res.AgencyCode)
		assert.Equal(t, "Library of Congress", res.AgencyName)
	})

	t.Run("unknown sub-tier misses", func(t *testing.T) {
		_, ok := snap.ResolveSubTier("9999")
		assert.False(t, ok)
	})
}

func TestNormalizeProgramNumber(t *testing.T) {
	cases := map[string]string{
		"10.001":  "10.001",
		"10.1":    "10.100",
		"9.000":   "09.000",
		"93.5":    "93.500",
		" 10.001": "10.001",
		"abc":     "abc",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeProgramNumber(in), in)
	}
}

func TestZipEpochSelection(t *testing.T) {
	snap := NewSnapshot()
	old := "31"
	current := "02"
	snap.ZipsHistorical[ZipKey("12345", "4321")] = Zip{
		Zip5: "12345", ZipLast4: "4321", StateAbbreviation: "NY",
		CountyNumber: "001", CongressionalDistrict: &old,
	}
	snap.ZipsCurrent[ZipKey("12345", "4321")] = Zip{
		Zip5: "12345", ZipLast4: "4321", StateAbbreviation: "NY",
		CountyNumber: "001", CongressionalDistrict: &current,
	}

	t.Run("action dates before the cutoff use the historical table", func(t *testing.T) {
		z, ok := snap.Zip9("12345", "4321", time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC))
		require.True(t, ok)
		assert.Equal(t, "31", *z.CongressionalDistrict)
	})

	t.Run("the cutoff day itself uses the current table", func(t *testing.T) {
		z, ok := snap.Zip9("12345", "4321", ZipRedistrictingCutoff)
		require.True(t, ok)
		assert.Equal(t, "02", *z.CongressionalDistrict)
	})
}

func TestZipFiveDistrict(t *testing.T) {
	t.Run("unique district wins", func(t *testing.T) {
		g := ZipFive{Districts: []string{"02", "02", ""}}
		assert.Equal(t, "02", g.District())
	})

	t.Run("conflicting districts collapse to the sentinel", func(t *testing.T) {
		g := ZipFive{Districts: []string{"02", "03"}}
		assert.Equal(t, MultiDistrictSentinel, g.District())
	})

	t.Run("no district at all is also the sentinel", func(t *testing.T) {
		g := ZipFive{Districts: []string{"", ""}}
		assert.Equal(t, MultiDistrictSentinel, g.District())
	})
}

func TestAliasesFor(t *testing.T) {
	snap := NewSnapshot()
	snap.Aliases["097"] = []string{"017", "021"}

	t.Run("aliased cgac includes itself and its equivalents", func(t *testing.T) {
		assert.Equal(t, []string{"097", "017", "021"}, snap.AliasesFor("097"))
	})

	t.Run("unaliased cgac resolves to itself alone", func(t *testing.T) {
		assert.Equal(t, []string{"020"}, snap.AliasesFor("020"))
	})
}

func TestOfficeAndCountryLookups(t *testing.T) {
	snap := NewSnapshot()
	snap.Offices["03AB03"] = Office{OfficeCode: "03AB03", OfficeName: "Assistance Office"}
	snap.Countries["USA"] = "United States of America"

	o, ok := snap.OfficeByCode("03ab03")
	require.True(t, ok)
	assert.Equal(t, "Assistance Office", o.OfficeName)

	name, ok := snap.CountryName("usa")
	require.True(t, ok)
	assert.Equal(t, "United States of America", name)
}

func TestOfficeActiveOn(t *testing.T) {
	start := time.Date(2020, time.October, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.September, 30, 0, 0, 0, 0, time.UTC)

	t.Run("office window gates on the action date", func(t *testing.T) {
		o := Office{EffectiveStartDate: &start, EffectiveEndDate: &end}
		assert.True(t, o.ActiveOn(time.Date(2022, time.March, 15, 0, 0, 0, 0, time.UTC)))
		assert.False(t, o.ActiveOn(time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("open-ended window covers every date", func(t *testing.T) {
		assert.True(t, Office{}.ActiveOn(time.Date(1998, time.January, 1, 0, 0, 0, 0, time.UTC)))
	})
}
