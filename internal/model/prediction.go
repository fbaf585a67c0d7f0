package model

// CompletionRecord counts how often a title was completed around one weekday/hour.
type CompletionRecord struct {
	Title     string `json:"title"`
	DayOfWeek int    `json:"dayOfWeek"`
	Hour      int    `json:"hour"`
	Count     int    `json:"count"`
}
