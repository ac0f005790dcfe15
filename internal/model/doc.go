package model

// Package model defines domain data structures shared across the service:
// acquisition jobs, candidate stream formats, selection plans, and status
// enums with explicit one-way state transitions.
