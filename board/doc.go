// Package board is the project and task dashboard backed by Airtable.
//
// A [Service] reads projects and tasks, creates and edits tasks, reorders
// them, updates project status and dates, and builds the per-user dashboard
// summary. It talks to Airtable through a [Store], normally an
// [airtable.Client] whose HTTP client shares one throttle queue, so every
// call the board makes is spaced and single-flight.
//
// Field names are those of the production base and are mapped to the
// exported types; callers never see raw Airtable records.
package board
