// Package session tracks query history and failure counts per planning session.
//
// A State records every query issued in one session, how many were
// attempted and how many returned nothing. Failures escalate through three
// guidance tiers that steer the calling agent toward stopping. States are
// kept in a Store (bounded in-memory LRU or Redis) and managed through a
// Registry, which serializes updates per session ID.
package session
