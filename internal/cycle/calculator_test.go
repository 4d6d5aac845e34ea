package cycle

import (
	"errors"
	"testing"
	"time"

	apperrors "kakebo/internal/errors"
	"kakebo/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func intPtr(v int) *int { return &v }

func assertBounds(t *testing.T, got Bounds, wantStart, wantEnd time.Time) {
	t.Helper()
	if !got.Start.Equal(wantStart) {
		t.Errorf("expected start %s, got %s", wantStart.Format("2006-01-02"), got.Start.Format("2006-01-02"))
	}
	if !StartOfDay(got.End).Equal(wantEnd) {
		t.Errorf("expected end %s, got %s", wantEnd.Format("2006-01-02"), got.End.Format("2006-01-02"))
	}
}

func TestBoundsForDateWeekly(t *testing.T) {
	t.Run("anchored", func(t *testing.T) {
		cfg := Config{Type: models.CycleTypeWeekly, AnchorDate: datePtr(2024, time.January, 3)}

		b, err := BoundsForDate(date(2024, time.January, 17), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertBounds(t, b, date(2024, time.January, 17), date(2024, time.January, 23))
	})

	t.Run("anchored_mid_cycle", func(t *testing.T) {
		cfg := Config{Type: models.CycleTypeWeekly, AnchorDate: datePtr(2024, time.January, 3)}

		b, err := BoundsForDate(date(2024, time.January, 9), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertBounds(t, b, date(2024, time.January, 3), date(2024, time.January, 9))
	})

	t.Run("date_before_anchor_clamps_to_first_cycle", func(t *testing.T) {
		cfg := Config{Type: models.CycleTypeWeekly, AnchorDate: datePtr(2024, time.March, 10)}

		b, err := BoundsForDate(date(2024, time.February, 1), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertBounds(t, b, date(2024, time.March, 10), date(2024, time.March, 16))
	})

	t.Run("weekday_fallback", func(t *testing.T) {
		// Cycles start on Monday (1). 2024-06-13 is a Thursday.
		cfg := Config{Type: models.CycleTypeWeekly, CycleStartDay: intPtr(1)}

		b, err := BoundsForDate(date(2024, time.June, 13), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertBounds(t, b, date(2024, time.June, 10), date(2024, time.June, 16))
	})

	t.Run("default_sunday_start", func(t *testing.T) {
		cfg := Config{Type: models.CycleTypeWeekly}

		// 2024-06-12 is a Wednesday; the preceding Sunday is the 9th.
		b, err := BoundsForDate(date(2024, time.June, 12), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertBounds(t, b, date(2024, time.June, 9), date(2024, time.June, 15))
	})
}

func TestBoundsForDateBiweekly(t *testing.T) {
	t.Run("anchored", func(t *testing.T) {
		cfg := Config{Type: models.CycleTypeBiweekly, AnchorDate: datePtr(2024, time.January, 1)}

		b, err := BoundsForDate(date(2024, time.January, 20), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertBounds(t, b, date(2024, time.January, 15), date(2024, time.January, 28))
	})

	t.Run("defaults_to_year_start", func(t *testing.T) {
		cfg := Config{Type: models.CycleTypeBiweekly}

		b, err := BoundsForDate(date(2024, time.January, 10), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertBounds(t, b, date(2024, time.January, 1), date(2024, time.January, 14))
	})

	t.Run("date_before_anchor_uses_negative_index", func(t *testing.T) {
		cfg := Config{Type: models.CycleTypeBiweekly, AnchorDate: datePtr(2024, time.March, 1)}

		b, err := BoundsForDate(date(2024, time.February, 20), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertBounds(t, b, date(2024, time.February, 16), date(2024, time.February, 29))
	})
}

func TestBoundsForDateMonthly(t *testing.T) {
	t.Run("anchored_mid_month", func(t *testing.T) {
		cfg := Config{Type: models.CycleTypeMonthly, AnchorDate: datePtr(2024, time.January, 15)}

		b, err := BoundsForDate(date(2024, time.February, 20), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertBounds(t, b, date(2024, time.February, 15), date(2024, time.March, 14))
	})

	t.Run("anchored_before_start_day", func(t *testing.T) {
		cfg := Config{Type: models.CycleTypeMonthly, AnchorDate: datePtr(2024, time.January, 15)}

		b, err := BoundsForDate(date(2024, time.February, 1), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertBounds(t, b, date(2024, time.January, 15), date(2024, time.February, 14))
	})

	t.Run("month_end_clamping_chain", func(t *testing.T) {
		// Anchor on the 31st: Jan 31 -> Feb 28 -> Mar 31 -> Apr 30. The end
		// clamp is recomputed each month, so February does not shorten March.
		cfg := Config{Type: models.CycleTypeMonthly, AnchorDate: datePtr(2023, time.January, 31)}

		b, err := BoundsForDate(date(2023, time.February, 10), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertBounds(t, b, date(2023, time.January, 31), date(2023, time.February, 27))

		b, err = BoundsForDate(date(2023, time.March, 1), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertBounds(t, b, date(2023, time.February, 28), date(2023, time.March, 30))

		b, err = BoundsForDate(date(2023, time.April, 2), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertBounds(t, b, date(2023, time.March, 31), date(2023, time.April, 29))

		b, err = BoundsForDate(date(2023, time.May, 1), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertBounds(t, b, date(2023, time.April, 30), date(2023, time.May, 30))
	})

	t.Run("leap_year_february", func(t *testing.T) {
		cfg := Config{Type: models.CycleTypeMonthly, AnchorDate: datePtr(2024, time.January, 31)}

		b, err := BoundsForDate(date(2024, time.March, 1), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertBounds(t, b, date(2024, time.February, 29), date(2024, time.March, 30))
	})

	t.Run("first_of_month_default", func(t *testing.T) {
		cfg := Config{Type: models.CycleTypeMonthly}

		b, err := BoundsForDate(date(2024, time.June, 18), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertBounds(t, b, date(2024, time.June, 1), date(2024, time.June, 30))
	})

	t.Run("cycle_start_day_fallback", func(t *testing.T) {
		cfg := Config{Type: models.CycleTypeMonthly, CycleStartDay: intPtr(10)}

		b, err := BoundsForDate(date(2024, time.June, 5), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertBounds(t, b, date(2024, time.May, 10), date(2024, time.June, 9))
	})
}

func TestBoundsForDateQuarterly(t *testing.T) {
	cases := []struct {
		query     time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{date(2024, time.February, 10), date(2024, time.January, 1), date(2024, time.March, 31)},
		{date(2024, time.April, 1), date(2024, time.April, 1), date(2024, time.June, 30)},
		{date(2024, time.September, 30), date(2024, time.July, 1), date(2024, time.September, 30)},
		{date(2024, time.December, 25), date(2024, time.October, 1), date(2024, time.December, 31)},
	}

	cfg := Config{Type: models.CycleTypeQuarterly, AnchorDate: datePtr(2024, time.February, 14)}
	for _, c := range cases {
		b, err := BoundsForDate(c.query, cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Anchor is ignored for calendar quarters.
		assertBounds(t, b, c.wantStart, c.wantEnd)
	}
}

func TestBoundsForDateYearly(t *testing.T) {
	cfg := Config{Type: models.CycleTypeYearly, AnchorDate: datePtr(2020, time.June, 15)}

	b, err := BoundsForDate(date(2024, time.August, 9), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertBounds(t, b, date(2024, time.January, 1), date(2024, time.December, 31))
}

func TestBoundsForDateCustom(t *testing.T) {
	t.Run("anchored_length", func(t *testing.T) {
		cfg := Config{Type: models.CycleTypeCustom, CustomCycleDays: intPtr(10), AnchorDate: datePtr(2024, time.January, 1)}

		b, err := BoundsForDate(date(2024, time.January, 25), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertBounds(t, b, date(2024, time.January, 21), date(2024, time.January, 30))
	})

	t.Run("default_thirty_days", func(t *testing.T) {
		cfg := Config{Type: models.CycleTypeCustom}

		b, err := BoundsForDate(date(2024, time.January, 31), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertBounds(t, b, date(2024, time.January, 31), date(2024, time.February, 29))
	})
}

func TestBoundsForDateUnsupportedType(t *testing.T) {
	_, err := BoundsForDate(date(2024, time.January, 1), Config{Type: "FORTNIGHTLY"})
	if err == nil {
		t.Fatal("expected error for unknown cycle type")
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T", err)
	}
	if appErr.Code != "UNSUPPORTED_CYCLE_TYPE" {
		t.Errorf("expected code UNSUPPORTED_CYCLE_TYPE, got %s", appErr.Code)
	}
}

// Every supported type must contain the query date within its bounds and
// produce contiguous, non-overlapping cycles.
func TestBoundsProperties(t *testing.T) {
	configs := map[string]Config{
		"weekly_anchored":   {Type: models.CycleTypeWeekly, AnchorDate: datePtr(2023, time.May, 4)},
		"weekly_weekday":    {Type: models.CycleTypeWeekly, CycleStartDay: intPtr(3)},
		"biweekly":          {Type: models.CycleTypeBiweekly, AnchorDate: datePtr(2023, time.May, 4)},
		"monthly_31":        {Type: models.CycleTypeMonthly, AnchorDate: datePtr(2023, time.January, 31)},
		"monthly_15":        {Type: models.CycleTypeMonthly, AnchorDate: datePtr(2023, time.January, 15)},
		"monthly_default":   {Type: models.CycleTypeMonthly},
		"quarterly":         {Type: models.CycleTypeQuarterly},
		"yearly":            {Type: models.CycleTypeYearly},
		"custom_seven_days": {Type: models.CycleTypeCustom, CustomCycleDays: intPtr(7), AnchorDate: datePtr(2023, time.June, 1)},
	}

	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			d := date(2023, time.June, 1)
			for i := 0; i < 400; i++ {
				b, err := BoundsForDate(d, cfg)
				if err != nil {
					t.Fatalf("unexpected error at %s: %v", d.Format("2006-01-02"), err)
				}
				if !Contains(d, b.Start, b.End) {
					t.Fatalf("date %s not within bounds [%s, %s]",
						d.Format("2006-01-02"), b.Start.Format("2006-01-02"), b.End.Format("2006-01-02"))
				}

				next, err := NextBounds(b.End, cfg)
				if err != nil {
					t.Fatalf("unexpected error computing next bounds: %v", err)
				}
				if !next.Start.Equal(StartOfDay(b.End).AddDate(0, 0, 1)) {
					t.Fatalf("gap between cycle ending %s and next starting %s",
						b.End.Format("2006-01-02"), next.Start.Format("2006-01-02"))
				}

				prev, err := PreviousBounds(b.Start, cfg)
				if err != nil {
					t.Fatalf("unexpected error computing previous bounds: %v", err)
				}
				if !StartOfDay(prev.End).AddDate(0, 0, 1).Equal(b.Start) {
					t.Fatalf("gap between previous cycle ending %s and cycle starting %s",
						prev.End.Format("2006-01-02"), b.Start.Format("2006-01-02"))
				}

				d = d.AddDate(0, 0, 1)
			}
		})
	}
}

func TestContains(t *testing.T) {
	start := date(2024, time.February, 15)
	end := EndOfDay(date(2024, time.March, 14))

	if !Contains(start, start, end) {
		t.Error("expected start date to be contained")
	}
	if !Contains(date(2024, time.March, 14), start, end) {
		t.Error("expected end date to be contained")
	}
	if Contains(date(2024, time.March, 15), start, end) {
		t.Error("expected day after end to be outside")
	}
	if Contains(date(2024, time.February, 14), start, end) {
		t.Error("expected day before start to be outside")
	}
}
