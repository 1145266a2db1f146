package fiscal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestYearForDate(t *testing.T) {
	assert.Equal(t, 2011, YearForDate(date(2010, time.October, 1)))
	assert.Equal(t, 2010, YearForDate(date(2010, time.September, 30)))
	assert.Equal(t, 2011, YearForDate(date(2011, time.January, 15)))
}

func TestPeriodForDate(t *testing.T) {
	assert.Equal(t, 1, PeriodForDate(date(2010, time.October, 1)))
	assert.Equal(t, 3, PeriodForDate(date(2010, time.December, 31)))
	assert.Equal(t, 4, PeriodForDate(date(2011, time.January, 1)))
	assert.Equal(t, 12, PeriodForDate(date(2011, time.September, 30)))
}

func TestQuarterForPeriod(t *testing.T) {
	assert.Equal(t, 1, QuarterForPeriod(1))
	assert.Equal(t, 1, QuarterForPeriod(3))
	assert.Equal(t, 2, QuarterForPeriod(4))
	assert.Equal(t, 4, QuarterForPeriod(12))
}

// FY2011 period 1 starts 2010-10-01, so an account window ending 2010-08-31
// falls short of it while one ending 2010-10-31 reaches it. Predicates compare
// validity windows against these bounds.
func TestPeriodBounds(t *testing.T) {
	assert.Equal(t, date(2010, time.October, 1), PeriodStart(2011, 1))
	assert.Equal(t, date(2010, time.October, 31), PeriodEnd(2011, 1))
	assert.Equal(t, date(2011, time.January, 1), PeriodStart(2011, 4))
	assert.Equal(t, date(2011, time.September, 30), PeriodEnd(2011, 12))

	assert.True(t, date(2010, time.August, 31).Before(PeriodStart(2011, 1)))
	assert.False(t, date(2010, time.October, 31).Before(PeriodStart(2011, 1)))
}

func TestWindowCoversDate(t *testing.T) {
	start := date(2015, time.January, 1)
	end := date(2015, time.December, 31)
	assert.True(t, WindowCoversDate(&start, &end, date(2015, time.June, 15)))
	assert.False(t, WindowCoversDate(&start, &end, date(2016, time.January, 1)))
	assert.True(t, WindowCoversDate(nil, nil, date(1999, time.March, 3)))
}
