package util

import "github.com/spf13/viper"

// ConflictPolicy decides what happens when a destination path already exists
type ConflictPolicy string

const (
	// ConflictSkip leaves both files untouched and reports a conflict
	ConflictSkip ConflictPolicy = "skip"

	// ConflictSuffix renames to "name (2).ext" style until the path is free
	ConflictSuffix ConflictPolicy = "suffix"

	// ConflictOverwrite replaces the existing file. Destructive, opt-in only.
	ConflictOverwrite ConflictPolicy = "overwrite"
)

// GetConflictPolicy returns the configured conflict policy.
// Defaults to skip; overwriting must be requested explicitly.
func GetConflictPolicy() ConflictPolicy {
	switch ConflictPolicy(viper.GetString("on-conflict")) {
	case ConflictSuffix:
		return ConflictSuffix
	case ConflictOverwrite:
		return ConflictOverwrite
	}
	return ConflictSkip
}

// GetIdentityMode returns the configured ledger identity mode
func GetIdentityMode() IdentityMode {
	mode, err := ParseIdentityMode(viper.GetString("identity"))
	if err != nil {
		WarnLog("%v, falling back to path identity", err)
		return IdentityPath
	}
	return mode
}
