package quiethours

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/matryer/is"
)

func TestIsQuiet(t *testing.T) {
	is := is.New(t)
	p, err := New("UTC")
	is.NoErr(err)

	for hour := 0; hour < 24; hour++ {
		now := time.Date(2024, 5, 1, hour, 30, 0, 0, time.UTC)
		want := hour >= 22 || hour < 9
		is.Equal(p.IsQuiet(now), want)
	}
}

func TestIsQuiet_Timezone(t *testing.T) {
	is := is.New(t)
	p, err := New("Asia/Tokyo")
	is.NoErr(err)

	// 14:00 UTC is 23:00 in Tokyo
	is.True(p.IsQuiet(time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)))
	// 01:00 UTC is 10:00 in Tokyo
	is.True(!p.IsQuiet(time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC)))
}

func TestNewWithHours(t *testing.T) {
	t.Run("non wrapping window", func(t *testing.T) {
		is := is.New(t)
		p, err := NewWithHours("UTC", 1, 5)
		is.NoErr(err)
		is.True(p.IsQuiet(time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)))
		is.True(!p.IsQuiet(time.Date(2024, 5, 1, 5, 0, 0, 0, time.UTC)))
	})

	t.Run("bad timezone", func(t *testing.T) {
		is := is.New(t)
		_, err := New("Mars/Olympus")
		is.True(err != nil)
	})

	t.Run("bad hours", func(t *testing.T) {
		is := is.New(t)
		_, err := NewWithHours("UTC", 24, 9)
		is.True(err != nil)
	})
}
