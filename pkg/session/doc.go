/*
Package session owns the live canvas document of every session.

Each session has one Document, created on first use and hydrated from its
saved snapshot if one exists. All access goes through Manager.WithWorkspace,
which serializes callers per session with a reference-counted local mutex and,
when configured, a distributed lock so that replicas sharing a store do not
interleave.
*/
package session
