/*
Package session coordinates concurrent access to persisted projects.

A Manager serializes work on one project id with an in-process lock and,
when configured, a ports.DistributedLocker shared by every replica. Update
is the usual entry point: it loads the stored document into a fresh
variables.Manager, lets the caller mutate it and saves the export.
*/
package session
