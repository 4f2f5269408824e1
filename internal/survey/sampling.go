package survey

import (
	"fmt"
	"math/rand"
	"time"
)

// lastMinute is the latest time of day a sampled visit may have (23:59).
const lastMinute = ClockTime(23*60 + 59)

// RandomDraw is one set of generated answers for a date/time page.
type RandomDraw struct {
	Date   time.Time
	Hour   string
	Minute string
}

// Sampler produces the randomized answers. It is not safe for concurrent use; each runner owns one.
type Sampler struct {
	rng  *rand.Rand
	now  func() time.Time
	ages [5]int
}

// NewSampler builds a Sampler from an explicit random source and clock.
func NewSampler(rng *rand.Rand, now func() time.Time, ages [5]int) *Sampler {
	if now == nil {
		now = time.Now
	}
	return &Sampler{rng: rng, now: now, ages: ages}
}

// NewSeededSampler seeds a Sampler; seed 0 seeds from the clock.
func NewSeededSampler(seed int64, ages [5]int) *Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewSampler(rand.New(rand.NewSource(seed)), time.Now, ages)
}

// Age returns an age bracket in 1..5, weighted by the cumulative percentage table. When the table sums
// to less than the draw the last bracket is returned.
func (s *Sampler) Age() int {
	draw := s.rng.Intn(100) + 1
	cumulative := 0
	for i, pct := range s.ages {
		cumulative += pct
		if draw <= cumulative {
			return i + 1
		}
	}
	return len(s.ages)
}

// Date returns start plus a uniform number of days in [0, days(end-start)].
func (s *Sampler) Date(start, end time.Time) time.Time {
	days := calendarDays(start, end)
	if days <= 0 {
		return start
	}
	return start.AddDate(0, 0, s.rng.Intn(days+1))
}

// Time draws a time of day in [lower, upper], both inclusive, for a visit on date. When date is today
// the upper hour is pulled back to one hour before the current hour. A window that ends up empty is
// widened to one hour after lower.
func (s *Sampler) Time(date time.Time, lower, upper ClockTime) (hour, minute string) {
	now := s.now()
	if sameDay(date, now) {
		if limit := now.Hour() - 1; limit < upper.Hour() {
			upper = ClockTime(limit*60 + upper.Minute())
		}
	}
	if upper <= lower {
		upper = lower + 60
	}
	if upper > lastMinute {
		upper = lastMinute
	}
	picked := lower + ClockTime(s.rng.Intn(int(upper-lower)+1))
	return fmt.Sprintf("%02d", picked.Hour()), fmt.Sprintf("%02d", picked.Minute())
}

// Draw samples a visit date within the campaign window and a time of day for it.
func (s *Sampler) Draw(cfg CampaignConfig) RandomDraw {
	date := s.Date(cfg.DateStart, cfg.DateEnd)
	hour, minute := s.Time(date, cfg.HourStart, cfg.HourEnd)
	return RandomDraw{Date: date, Hour: hour, Minute: minute}
}

// Intn exposes the sampler's source for uniform choices among n options. n must be positive.
func (s *Sampler) Intn(n int) int {
	return s.rng.Intn(n)
}

func calendarDays(start, end time.Time) int {
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	a := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}
