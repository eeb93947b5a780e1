package main

// Default limits for CLI commands.
const (
	DefaultListLimit = 50
	DefaultLinkViews = 0 // unlimited
)

// Exit messages shared by commands.
const (
	msgNoInspections = "No inspections found."
	msgNoLinks       = "No links found."
	msgNoRecords     = "No reports generated yet."
)
