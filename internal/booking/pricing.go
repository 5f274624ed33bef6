package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// finalAmount computes the settlement amount for a booking that ran from
// start to end at the given hourly rate. The elapsed duration is rounded
// up to the next billing increment (a quarter hour by default), so ending
// at 70 minutes on a 15-minute increment bills 1.25 hours.
func finalAmount(start, end time.Time, hourlyRate decimal.Decimal, increment time.Duration) decimal.Decimal {
	elapsed := end.Sub(start)
	if elapsed <= 0 {
		return decimal.Zero
	}

	units := int64(elapsed / increment)
	if elapsed%increment != 0 {
		units++
	}

	incrementHours := decimal.NewFromFloat(increment.Hours())
	billedHours := decimal.NewFromInt(units).Mul(incrementHours)
	return hourlyRate.Mul(billedHours).Round(2)
}
