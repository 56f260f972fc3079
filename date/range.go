package date

// Range represents a range of dates.
type Range struct{ From, To Date }

// NewRange return a well known period around d.
func NewRange(d Date, period Period) Range {
	return Range{From: d.StartOf(period), To: d.EndOf(period)}
}

// Contains return true date is included in the range (boundaries included).
func (r Range) Contains(date Date) bool { return (!date.Before(r.From) && !date.After(r.To)) }

// Months returns the n monthly ranges ending with the month containing d,
// in chronological order.
func Months(d Date, n int) []Range {
	if n <= 0 {
		return nil
	}
	ranges := make([]Range, 0, n)
	for i := n - 1; i >= 0; i-- {
		first := d.StartOf(Monthly).AddMonth(-i)
		ranges = append(ranges, NewRange(first, Monthly))
	}
	return ranges
}
