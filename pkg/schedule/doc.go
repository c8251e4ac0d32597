// ABOUTME: Segment scheduling package
// ABOUTME: Turns timeline positions into render requests for a track sink
// Package schedule computes the render requests a track sink needs to play
// its source from any point on the group timeline.
//
// Sinks only accept "now" or "N frames from now" requests, so after a seek the
// whole schedule is recomputed relative to the new origin. Plan and PlanFrom
// are pure; ScheduleFromStart and ScheduleFrom also issue the result.
package schedule
