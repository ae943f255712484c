// Package planner holds the task and schedule state of one planning session.
//
// A Manager owns the task list, the user preferences and the most recently
// generated schedule. Adding or deleting a task discards the schedule; the
// schedule is only ever replaced by a successful call to the injected
// Scheduler. Tasks, preferences and the theme are written to a Store on every
// change; the schedule, busy flag and last error live only in memory.
package planner
