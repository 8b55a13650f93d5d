package dashboard

import (
	"time"

	"butterdish-backend/lib/scrapers/givebutter"
	"butterdish-backend/lib/textutil"
)

// illustrative events substituted when every extraction strategy
// exhausts, timestamped relative to the current clock
func SampleDonations(now time.Time) []givebutter.Donation {
	return []givebutter.Donation{
		{
			Name:   "Mark Williams",
			Amount: 10,
			Time:   textutil.ClockLabel(now.Add(-31 * time.Minute)),
		},
		{
			Name:    "Will Sigmon",
			Amount:  5,
			Time:    textutil.ClockLabel(now.Add(-2 * time.Hour)),
			Message: "Let's go, HTI!",
		},
	}
}
