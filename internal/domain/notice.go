package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MachineNoticePrefix marks timetable-change notices emitted by the
// notification pipeline. Consumers match on this prefix to tell machine
// notices from human announcements.
const MachineNoticePrefix = "TTC"

type Notice struct {
	ID        uuid.UUID
	ClassID   uuid.UUID
	Title     string
	Content   string
	CreatedAt time.Time
}

// IsMachine reports whether the notice was generated by the pipeline.
func (n Notice) IsMachine() bool {
	return strings.HasPrefix(n.Title, MachineNoticePrefix+" ")
}

// MachineNoticeTitle builds the reserved title for an action tag
// (ADDED, UPDATED or REMOVED).
func MachineNoticeTitle(action string) string {
	return MachineNoticePrefix + " " + action
}
