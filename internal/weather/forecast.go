package weather

import "time"

// Current is the "current conditions" part of a Record.
type Current struct {
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    int     `json:"humidity"`
	Description string  `json:"description"`
	WindSpeed   float64 `json:"wind_speed"`
	Place       string  `json:"place"`
	Country     string  `json:"country"`
}

// DailyForecast summarizes all forecast entries of one calendar date.
type DailyForecast struct {
	Date      string  `json:"date"`
	AvgTemp   float64 `json:"avg_temp"`
	Condition string  `json:"condition"`
}

// Record is the merged result of one current + forecast lookup. It lives for a single
// request. Err means nothing usable was fetched; ForecastErr means only the outlook
// is missing.
type Record struct {
	Query       string
	Current     *Current
	Forecast    []DailyForecast
	Err         error
	ForecastErr error
}

// ForecastDays is how many distinct dates are summarized.
const ForecastDays = 3

// ForecastEntry is one 3-hour step of the upstream forecast.
type ForecastEntry struct {
	Dt      int64
	DtTxt   string
	Temp    float64
	Weather string
}

// date returns the calendar date of the entry: the date part of dt_txt when present,
// otherwise the UTC date of the unix timestamp.
func (e ForecastEntry) date() string {
	if len(e.DtTxt) >= 10 {
		return e.DtTxt[:10]
	}
	return time.Unix(e.Dt, 0).UTC().Format(time.DateOnly)
}

// SummarizeForecast groups entries by date in first-seen order and returns up to days
// summaries with the mean temperature and the most frequent condition. Ties go to the
// condition seen first that day.
func SummarizeForecast(entries []ForecastEntry, days int) []DailyForecast {
	type bucket struct {
		date   string
		sum    float64
		n      int
		counts map[string]int
		order  []string
	}

	var buckets []*bucket
	index := map[string]*bucket{}
	for _, e := range entries {
		d := e.date()
		b, ok := index[d]
		if !ok {
			if len(buckets) == days {
				continue
			}
			b = &bucket{date: d, counts: map[string]int{}}
			index[d] = b
			buckets = append(buckets, b)
		}
		b.sum += e.Temp
		b.n++
		if _, seen := b.counts[e.Weather]; !seen {
			b.order = append(b.order, e.Weather)
		}
		b.counts[e.Weather]++
	}

	out := make([]DailyForecast, 0, len(buckets))
	for _, b := range buckets {
		dominant, best := "", 0
		for _, cond := range b.order {
			if b.counts[cond] > best {
				dominant, best = cond, b.counts[cond]
			}
		}
		out = append(out, DailyForecast{
			Date:      b.date,
			AvgTemp:   b.sum / float64(b.n),
			Condition: dominant,
		})
	}
	return out
}
