package handler

import (
	"fmt"
	"time"
)

const (
	PriorityNormal = "normal"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// PriorityFor classifies a queued order by its age. Evaluated on every read;
// nothing is stored.
func PriorityFor(createdAt, now time.Time) string {
	minutes := AgeMinutes(createdAt, now)
	switch {
	case minutes > 20:
		return PriorityUrgent
	case minutes > 15:
		return PriorityHigh
	case minutes > 10:
		return PriorityMedium
	default:
		return PriorityNormal
	}
}

func AgeMinutes(createdAt, now time.Time) int {
	return int(now.Sub(createdAt).Minutes())
}

// AgeLabel formats an order's age the way the kitchen board shows it.
func AgeLabel(createdAt, now time.Time) string {
	minutes := AgeMinutes(createdAt, now)
	if minutes < 1 {
		return "Just now"
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	return fmt.Sprintf("%dh %dm ago", minutes/60, minutes%60)
}
