package model

import "time"

// DayBatch is the slice of a multi-week job's prompts bound to one calendar date.
type DayBatch struct {
	Day           int          `json:"day"`
	Date          string       `json:"date"`
	Prompts       []PromptPair `json:"prompts"`
	Completed     bool         `json:"completed"`
	VideosCreated int          `json:"videos_created"`
	CampaignName  string       `json:"campaign_name,omitempty"`
}

// WeeklySchedule splits a large prompt list into consecutive day batches,
// one batch per calendar date starting on the creation day.
type WeeklySchedule struct {
	ID           string     `json:"id"`
	TotalPrompts int        `json:"total_prompts"`
	Days         int        `json:"days"`
	VoiceText    string     `json:"voice_text"`
	DaySchedule  []DayBatch `json:"daily_schedule"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewWeeklySchedule chunks prompts into batches of at most perDay, assigning
// batch k to start+k days.
func NewWeeklySchedule(id string, prompts []PromptPair, voiceText string, perDay int, start time.Time) *WeeklySchedule {
	s := &WeeklySchedule{
		ID:           id,
		TotalPrompts: len(prompts),
		VoiceText:    voiceText,
		CreatedAt:    time.Now(),
	}
	for day := 0; len(prompts) > 0; day++ {
		n := perDay
		if n > len(prompts) {
			n = len(prompts)
		}
		s.DaySchedule = append(s.DaySchedule, DayBatch{
			Day:     day + 1,
			Date:    DateOf(start.AddDate(0, 0, day)),
			Prompts: prompts[:n],
		})
		prompts = prompts[n:]
	}
	s.Days = len(s.DaySchedule)
	return s
}

// DueBatch returns the first incomplete batch scheduled for today, or nil.
func (s *WeeklySchedule) DueBatch(today string) *DayBatch {
	for i := range s.DaySchedule {
		b := &s.DaySchedule[i]
		if b.Date == today && !b.Completed {
			return b
		}
	}
	return nil
}
