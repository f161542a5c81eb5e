package weather

import (
	"fmt"
	"strings"
	"time"
)

// Format narrates a Record as plain text for the model prompt.
func Format(rec Record) string {
	if rec.Err != nil || rec.Current == nil {
		reason := "no data was returned"
		if rec.Err != nil {
			reason = rec.Err.Error()
		}
		return fmt.Sprintf("Live weather data for %s could not be retrieved (%s). "+
			"Tell the user the data is unavailable right now and avoid guessing numbers.", rec.Query, reason)
	}

	cur := rec.Current
	var b strings.Builder

	place := cur.Place
	if cur.Country != "" {
		place += ", " + cur.Country
	}
	fmt.Fprintf(&b, "Current weather in %s: %.1f°C (feels like %.1f°C) with %s. ",
		place, cur.Temperature, cur.FeelsLike, describe(cur.Description))
	fmt.Fprintf(&b, "Humidity is %d%% and the wind blows at %.1f m/s.", cur.Humidity, cur.WindSpeed)

	switch {
	case rec.ForecastErr != nil:
		b.WriteString(" The forecast for the next days is unavailable at the moment.")
	case len(rec.Forecast) > 0:
		fmt.Fprintf(&b, "\n%d-day outlook:", len(rec.Forecast))
		for _, d := range rec.Forecast {
			fmt.Fprintf(&b, "\n- %s: average %.1f°C, mostly %s", dayLabel(d.Date), d.AvgTemp, describe(d.Condition))
		}
	}
	return b.String()
}

func describe(s string) string {
	if s == "" {
		return "unknown conditions"
	}
	return strings.ToLower(s)
}

// dayLabel renders "2024-05-01" as "Wednesday 2024-05-01"; unparsable dates pass through.
func dayLabel(date string) string {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return t.Weekday().String() + " " + date
}
