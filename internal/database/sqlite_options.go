package database

// SynchronousMode represents the available synchronous settings for SQLite
type SynchronousMode string

const (
	SynchronousOff    SynchronousMode = "OFF"
	SynchronousNormal SynchronousMode = "NORMAL"
	SynchronousFull   SynchronousMode = "FULL"
	SynchronousExtra  SynchronousMode = "EXTRA"
)

// JournalMode represents the available journal modes for SQLite
type JournalMode string

const (
	JournalDelete   JournalMode = "DELETE"
	JournalTruncate JournalMode = "TRUNCATE"
	JournalPersist  JournalMode = "PERSIST"
	JournalMemory   JournalMode = "MEMORY"
	JournalWAL      JournalMode = "WAL"
	JournalOff      JournalMode = "OFF"
)

// LockingMode represents the available locking modes for SQLite
type LockingMode string

const (
	LockingNormal    LockingMode = "NORMAL"
	LockingExclusive LockingMode = "EXCLUSIVE"
)

// CacheMode represents the available cache modes for SQLite
type CacheMode string

const (
	CacheShared  CacheMode = "shared"
	CachePrivate CacheMode = "private"
)

// SQLiteOptions contains configuration options for the SQLite connection.
// Mode, Cache and Immutable travel in the connection URI; everything else is
// applied as a PRAGMA once the connection is open.
type SQLiteOptions struct {
	// Path to the SQLite database file
	Path string

	// Core options
	Mode        string          // ro, rw, rwc, memory
	Journal     JournalMode     // journal_mode PRAGMA
	ForeignKeys bool            // foreign_keys PRAGMA
	BusyTimeout int             // busy_timeout PRAGMA (milliseconds)
	CacheSize   int             // cache_size PRAGMA (KB, negative for pages)
	Synchronous SynchronousMode // synchronous PRAGMA
	Cache       CacheMode       // shared, private
	Immutable   bool            // immutable=true/false

	// Locking & maintenance
	LockingMode       LockingMode // locking_mode PRAGMA
	AutoVacuum        string      // auto_vacuum PRAGMA: none, full, incremental
	CaseSensitiveLike bool        // case_sensitive_like PRAGMA
	DeferForeignKeys  bool        // defer_foreign_keys PRAGMA
	QueryOnly         bool        // query_only PRAGMA
	RecursiveTriggers bool        // recursive_triggers PRAGMA
	SecureDelete      string      // secure_delete PRAGMA: boolean or "FAST"
}

// NewDefaultOptions creates SQLiteOptions with recommended defaults
func NewDefaultOptions(path string) SQLiteOptions {
	return SQLiteOptions{
		Path:        path,
		Mode:        "rwc",
		Journal:     JournalWAL, // WAL is recommended for better concurrency
		ForeignKeys: true,
		BusyTimeout: 5000,
		CacheSize:   2000,
		Synchronous: SynchronousNormal,
		Cache:       CachePrivate,
	}
}
