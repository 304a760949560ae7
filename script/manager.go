// Package script implements the embedded EVAL/EVALSHA scripting
// subsystem: a SHA1-keyed script cache and a gopher-lua-backed
// interpreter that binds KEYS/ARGV and routes redis.call/redis.pcall back
// into the command dispatch core through a caller-supplied hook
// (spec.md §4.3).
package script

import "kvcore"

// Manager owns the script cache and runs scripts against a caller-supplied
// CallFromScript hook. It knows nothing about RESP, connections, or
// transactions — those are dispatch's concern.
type Manager struct {
	cache *cache
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{cache: newCache()}
}

// Load stores body under its SHA1 hash and returns the hash, for the
// SCRIPT LOAD command (SPEC_FULL.md §7).
func (m *Manager) Load(body string) string {
	return m.cache.store(body)
}

// Exists reports, for each hash, whether a script with that SHA1 is
// cached.
func (m *Manager) Exists(hashes []string) []bool {
	return m.cache.exists(hashes)
}

// Flush empties the script cache.
func (m *Manager) Flush() {
	m.cache.flush()
}

// Eval runs body with the given KEYS/ARGV, replaying its return value
// into target. It also caches body under its SHA1 as a side effect,
// matching Redis's EVAL-also-caches behavior, so a later EVALSHA of the
// same script succeeds without a prior SCRIPT LOAD.
func (m *Manager) Eval(body string, keys, argv []string, call CallFromScript, target ObjectExplorer) error {
	sha := m.cache.store(body)
	if err := runScript(body, keys, argv, call, target); err != nil {
		return &kvcore.ScriptError{SHA: sha, Err: err}
	}
	return nil
}

// EvalSha runs the cached script identified by sha, or returns
// kvcore.ErrNoScript if it was never loaded.
func (m *Manager) EvalSha(sha string, keys, argv []string, call CallFromScript, target ObjectExplorer) error {
	body, ok := m.cache.load(sha)
	if !ok {
		return kvcore.ErrNoScript
	}
	if err := runScript(body, keys, argv, call, target); err != nil {
		return &kvcore.ScriptError{SHA: sha, Err: err}
	}
	return nil
}
