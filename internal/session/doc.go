// Package session decides which archive directory each file lands in.
//
// A Resolver maps (base path, calendar date) to a directory, reusing an
// existing "YYYY-MM-DD*" directory directly under the base path or under a
// year directory, and creating "<base>/YYYY-MM-DD" otherwise. Results are
// memoized for the lifetime of the Resolver so each key is resolved once per
// run.
//
// A Tracker layers the session rule on top: consecutive captures separated by
// no more than the day-break threshold stay in the directory chosen for the
// first file of the session, even when the session crosses midnight.
package session
