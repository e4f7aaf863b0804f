package lending

import (
	"testing"
	"time"
)

func TestOrderIDGenerator(t *testing.T) {
	var g OrderIDGenerator
	if got := g.Next(); got != "0001" {
		t.Fatalf("first id = %s", got)
	}
	for i := 0; i < 9998; i++ {
		g.Next()
	}
	if got := g.Next(); got != "10000" {
		t.Fatalf("id past four digits = %s", got)
	}
	if g.Issued() != 10000 {
		t.Fatalf("issued = %d", g.Issued())
	}
}

func TestWeekdayLabel(t *testing.T) {
	// 2024-01-01 was a Monday.
	monday := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)
	if got := WeekdayLabel(monday, nil); got != "Mon" {
		t.Fatalf("label = %s", got)
	}
	tokyo := time.FixedZone("JST", 9*3600)
	if got := WeekdayLabel(monday, tokyo); got != "Tue" {
		t.Fatalf("label in JST = %s", got)
	}
}
