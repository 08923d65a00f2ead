package payroll

import "time"

// =============================================================================
// PAY PERIOD - The date interval a calculation covers
// =============================================================================

// PayPeriod is a date interval [Start, End] plus the date payment is made.
// Invariant: End >= Start. Dates are day-granular, UTC.
type PayPeriod struct {
	Start       time.Time
	End         time.Time
	PaymentDate time.Time
}

// Date builds a day-granular UTC date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NewPayPeriod validates and constructs a pay period.
func NewPayPeriod(start, end, paymentDate time.Time) (PayPeriod, error) {
	p := PayPeriod{Start: day(start), End: day(end), PaymentDate: day(paymentDate)}
	if p.End.Before(p.Start) {
		return PayPeriod{}, ErrInvalidPeriod
	}
	return p, nil
}

// Days returns the inclusive day span of the period.
func (p PayPeriod) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// Year returns the calendar year the period belongs to, keyed by its start.
// YTD accumulators reset at this boundary.
func (p PayPeriod) Year() int { return p.Start.Year() }

// Overlaps reports whether two periods share at least one day.
func (p PayPeriod) Overlaps(start, end time.Time) bool {
	return !p.Start.After(day(end)) && !day(start).After(p.End)
}

func (p PayPeriod) String() string {
	return p.Start.Format("2006-01-02") + ".." + p.End.Format("2006-01-02")
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// DAY-SPAN CLASSIFICATION - Migration-compatibility fallback only
// =============================================================================

// ClassifyFrequency infers a pay frequency from the period's day span.
// Employees should carry an explicit PayFrequency; this heuristic exists for
// records created before the frequency field was stored. A 15-day and a
// 16-day period land in different buckets, so do not rely on it for
// semi-monthly payrolls.
func ClassifyFrequency(p PayPeriod) PayFrequency {
	switch days := p.Days(); {
	case days <= 7:
		return FreqWeekly
	case days <= 14:
		return FreqBiweekly
	case days <= 16:
		return FreqSemiMonthly
	default:
		return FreqMonthly
	}
}

// FrequencyFor resolves the frequency used for annualization and proration:
// the employee's stored frequency when present, otherwise the day-span
// fallback.
func FrequencyFor(emp *Employee, p PayPeriod) PayFrequency {
	if emp != nil && emp.PayFrequency != "" {
		return emp.PayFrequency
	}
	return ClassifyFrequency(p)
}
