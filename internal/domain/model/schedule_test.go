package model

import (
	"testing"
	"time"
)

func schedulePrompts(n int) []PromptPair {
	prompts := make([]PromptPair, n)
	for i := range prompts {
		prompts[i] = PromptPair{ImagePrompt: "img", VideoPrompt: "vid"}
	}
	return prompts
}

func TestNewWeeklySchedule_Chunking(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		prompts   int
		perDay    int
		wantDays  int
		wantSizes []int
	}{
		{"full week", 63, 9, 7, []int{9, 9, 9, 9, 9, 9, 9}},
		{"uneven tail", 21, 9, 3, []int{9, 9, 3}},
		{"single day", 4, 9, 1, []int{4}},
		{"one per day", 3, 1, 3, []int{1, 1, 1}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := NewWeeklySchedule("sched", schedulePrompts(tc.prompts), "voice", tc.perDay, start)
			if s.Days != tc.wantDays || len(s.DaySchedule) != tc.wantDays {
				t.Fatalf("Days = %d (%d batches), want %d", s.Days, len(s.DaySchedule), tc.wantDays)
			}
			if s.TotalPrompts != tc.prompts {
				t.Errorf("TotalPrompts = %d, want %d", s.TotalPrompts, tc.prompts)
			}
			total := 0
			for i, b := range s.DaySchedule {
				if len(b.Prompts) != tc.wantSizes[i] {
					t.Errorf("day %d size = %d, want %d", i+1, len(b.Prompts), tc.wantSizes[i])
				}
				if b.Day != i+1 {
					t.Errorf("batch %d Day = %d, want %d", i, b.Day, i+1)
				}
				wantDate := DateOf(start.AddDate(0, 0, i))
				if b.Date != wantDate {
					t.Errorf("day %d date = %q, want %q", i+1, b.Date, wantDate)
				}
				total += len(b.Prompts)
			}
			if total != tc.prompts {
				t.Errorf("batches hold %d prompts, want all %d", total, tc.prompts)
			}
		})
	}
}

func TestWeeklySchedule_DueBatch(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	s := NewWeeklySchedule("sched", schedulePrompts(21), "", 9, start)

	if b := s.DueBatch("2026-08-23"); b != nil {
		t.Errorf("DueBatch(before start) = day %d, want nil", b.Day)
	}
	if b := s.DueBatch("2026-08-25"); b == nil || b.Day != 2 {
		t.Fatalf("DueBatch(day 2 date) = %+v, want day 2", b)
	}

	// A completed batch is never due again.
	s.DaySchedule[1].Completed = true
	if b := s.DueBatch("2026-08-25"); b != nil {
		t.Errorf("DueBatch(completed day) = day %d, want nil", b.Day)
	}
	if b := s.DueBatch("2026-08-28"); b != nil {
		t.Errorf("DueBatch(past the last day) = day %d, want nil", b.Day)
	}
}

func TestWeeklySchedule_DueBatchIsAddressable(t *testing.T) {
	t.Parallel()
	s := NewWeeklySchedule("sched", schedulePrompts(3), "", 9, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC))

	b := s.DueBatch("2026-08-24")
	if b == nil {
		t.Fatal("DueBatch() = nil, want day 1")
	}
	b.Completed = true
	b.VideosCreated = 3
	if !s.DaySchedule[0].Completed || s.DaySchedule[0].VideosCreated != 3 {
		t.Error("mutations through DueBatch() not visible on the schedule")
	}
}
