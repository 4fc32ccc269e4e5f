package recurrence

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/matryer/is"
)

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestParseRule(t *testing.T) {
	is := is.New(t)

	is.Equal(ParseRule("").Kind, None)
	is.Equal(ParseRule("none").Kind, None)
	is.Equal(ParseRule("Daily").Kind, Daily)
	is.Equal(ParseRule("weekly").Kind, Weekly)
	is.Equal(ParseRule("weekday").Kind, Weekday)
	is.Equal(ParseRule("monthly").Kind, Monthly)
	is.Equal(ParseRule("every other full moon").Kind, Unknown)

	t.Run("comma means custom", func(t *testing.T) {
		is := is.New(t)
		r := ParseRule("monday, Wednesday,friday")
		is.Equal(r.Kind, Custom)
		is.Equal(len(r.Days), 3)
		is.True(r.Days[time.Wednesday])
	})

	t.Run("comma wins over named forms", func(t *testing.T) {
		is := is.New(t)
		r := ParseRule("daily,weekly")
		is.Equal(r.Kind, Custom)
		is.Equal(len(r.Days), 0)
	})

	t.Run("single day name", func(t *testing.T) {
		is := is.New(t)
		r := ParseRule("tuesday")
		is.Equal(r.Kind, Custom)
		is.True(r.Days[time.Tuesday])
	})
}

func TestNext(t *testing.T) {
	is := is.New(t)

	// 2024-01-01 is a Monday
	is.Equal(Next(date("2024-01-01"), ParseRule("daily")), date("2024-01-02"))
	is.Equal(Next(date("2024-01-01"), ParseRule("weekly")), date("2024-01-08"))
	is.Equal(Next(date("2024-01-15"), ParseRule("monthly")), date("2024-02-15"))
	is.Equal(Next(date("2024-01-01"), ParseRule("gibberish")), date("2024-01-08"))

	t.Run("weekday skips weekend", func(t *testing.T) {
		is := is.New(t)
		is.Equal(Next(date("2024-01-05"), ParseRule("weekday")), date("2024-01-08")) // Fri -> Mon
		is.Equal(Next(date("2024-01-06"), ParseRule("weekday")), date("2024-01-08")) // Sat -> Mon
		is.Equal(Next(date("2024-01-07"), ParseRule("weekday")), date("2024-01-08")) // Sun -> Mon
		is.Equal(Next(date("2024-01-02"), ParseRule("weekday")), date("2024-01-03"))
	})

	t.Run("monthly overflow follows AddDate", func(t *testing.T) {
		is := is.New(t)
		is.Equal(Next(date("2024-01-31"), ParseRule("monthly")), date("2024-03-02"))
	})

	t.Run("custom within week and wrapping", func(t *testing.T) {
		is := is.New(t)
		r := ParseRule("monday,wednesday,friday")
		is.Equal(Next(date("2024-01-01"), r), date("2024-01-03")) // Mon -> Wed
		is.Equal(Next(date("2024-01-05"), r), date("2024-01-08")) // Fri -> next Mon
		is.Equal(Next(date("2024-01-06"), r), date("2024-01-08")) // Sat -> Mon
	})

	t.Run("custom with no valid days", func(t *testing.T) {
		is := is.New(t)
		is.Equal(Next(date("2024-01-01"), ParseRule("funday,restday")), date("2024-01-08"))
	})
}

func TestNext_WeekdayNeverWeekend(t *testing.T) {
	is := is.New(t)
	r := ParseRule("weekday")
	start := date("2024-01-01")
	for i := 0; i < 14; i++ {
		next := Next(start.AddDays(i), r)
		wd := next.Weekday()
		is.True(wd != time.Saturday && wd != time.Sunday)
		is.True(next.After(start.AddDays(i)))
	}
}

func TestExpandWindow(t *testing.T) {
	t.Run("custom set with past anchor", func(t *testing.T) {
		is := is.New(t)
		today := date("2024-01-02") // Tuesday
		got := ExpandWindow(date("2024-01-01"), today, ParseRule("monday,wednesday,friday"), today.AddDays(30), nil, 2)
		is.Equal(got, []civil.Date{date("2024-01-03"), date("2024-01-05")})
	})

	t.Run("past anchor is advanced into the future", func(t *testing.T) {
		is := is.New(t)
		today := date("2024-01-10")
		got := ExpandWindow(date("2024-01-01"), today, ParseRule("weekly"), today.AddDays(30), nil, 2)
		is.Equal(got, []civil.Date{date("2024-01-15"), date("2024-01-22")})
	})

	t.Run("future anchor is the first occurrence", func(t *testing.T) {
		is := is.New(t)
		today := date("2024-01-01")
		got := ExpandWindow(date("2024-01-03"), today, ParseRule("daily"), today.AddDays(30), nil, 3)
		is.Equal(got, []civil.Date{date("2024-01-03"), date("2024-01-04"), date("2024-01-05")})
	})

	t.Run("used dates are skipped", func(t *testing.T) {
		is := is.New(t)
		today := date("2024-01-01")
		used := map[civil.Date]bool{date("2024-01-02"): true}
		got := ExpandWindow(today, today, ParseRule("daily"), today.AddDays(30), used, 3)
		is.Equal(got, []civil.Date{date("2024-01-01"), date("2024-01-03"), date("2024-01-04")})
	})

	t.Run("window end caps output", func(t *testing.T) {
		is := is.New(t)
		today := date("2024-01-01")
		got := ExpandWindow(today, today, ParseRule("weekly"), today.AddDays(30), nil, 10)
		is.Equal(got, []civil.Date{date("2024-01-01"), date("2024-01-08"), date("2024-01-15"), date("2024-01-22"), date("2024-01-29")})

		got = ExpandWindow(today, today, ParseRule("monthly"), today.AddDays(30), nil, 4)
		is.Equal(got, []civil.Date{date("2024-01-01")})
	})

	t.Run("non recurring yields at most one", func(t *testing.T) {
		is := is.New(t)
		today := date("2024-01-01")
		got := ExpandWindow(date("2024-01-05"), today, ParseRule(""), today.AddDays(30), nil, 4)
		is.Equal(got, []civil.Date{date("2024-01-05")})
	})

	t.Run("weekday rule skips a weekend anchor", func(t *testing.T) {
		is := is.New(t)
		today := date("2024-01-01")
		// 2024-01-06 is a Saturday
		got := ExpandWindow(date("2024-01-06"), today, ParseRule("weekday"), today.AddDays(30), nil, 3)
		is.Equal(got, []civil.Date{date("2024-01-08"), date("2024-01-09"), date("2024-01-10")})

		// Sunday anchor, and today itself on a weekend
		got = ExpandWindow(date("2024-01-07"), today, ParseRule("weekdays"), today.AddDays(30), nil, 1)
		is.Equal(got, []civil.Date{date("2024-01-08")})
		got = ExpandWindow(date("2023-12-29"), date("2024-01-06"), ParseRule("weekday"), today.AddDays(30), nil, 1)
		is.Equal(got, []civil.Date{date("2024-01-08")})
	})

	t.Run("zero need", func(t *testing.T) {
		is := is.New(t)
		today := date("2024-01-01")
		is.Equal(len(ExpandWindow(today, today, ParseRule("daily"), today.AddDays(30), nil, 0)), 0)
	})
}
