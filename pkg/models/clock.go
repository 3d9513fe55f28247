package models

import "time"

// TimeActionType is the kind of transformation a clock action applies.
type TimeActionType string

const (
	TimeActionScale  TimeActionType = "scale"
	TimeActionOffset TimeActionType = "offset"
	TimeActionFreeze TimeActionType = "freeze"
)

// TimeAction is a single transformation applied to a session's virtual
// timeline, evaluated in order by internal/clock. scale multiplies the
// remaining real-elapsed accumulator, offset adds a constant to virtual
// time, freeze zeroes the accumulator at that position.
type TimeAction struct {
	Type  TimeActionType `json:"type"`
	Value float64        `json:"value"`
	Note  string         `json:"note,omitempty"`
}

// SessionClock is a session's virtual-time configuration: a base point in
// both virtual and real time, plus an ordered chain of actions applied to
// the real-elapsed delta since that base. An unmodified clock (no actions,
// base = real_now at creation) is the identity: virtual time tracks real time.
type SessionClock struct {
	SessionID     string       `json:"session_id"`
	BaseVirtual   time.Time    `json:"base_virtual"`
	BaseReal      time.Time    `json:"base_real"`
	Actions       []TimeAction `json:"actions"`
	UpdatedAt     time.Time    `json:"updated_at,omitempty"`
	RealUpdatedAt time.Time    `json:"real_updated_at,omitempty"`
}
