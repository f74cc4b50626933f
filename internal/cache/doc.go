// Package cache provides small on-disk caches and the file locks guarding them.
//
// [Store] is a generic JSON file of entries that expire after a TTL:
//
//	{
//	  "entries": {
//	    "/repo/.worktrees/fix-login__65a1b2c3": {
//	      "value": { ... },
//	      "stored_at": "2024-01-01T12:00:00Z",
//	      "expires_at": "2024-01-01T12:05:00Z"
//	    }
//	  }
//	}
//
// Two stores are used by the CLI: worktree status per repository
// ([StatusPath], inside the shared git directory) and pull request
// lookups per user ([PRPath]).
//
// # Concurrency
//
// [Store.Save] takes a [FileLock] next to the cache file, re-reads the file,
// merges its own changes and renames a temp file into place, so two processes
// saving at once never corrupt or drop each other's entries.
//
// [RepoLockPath] names the lock that create and cleanup hold for the
// duration of a mutation of one repository.
package cache
