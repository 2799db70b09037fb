package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages feature toggles for the attendance client.
// Supports gradual rollout per teacher account so marking behavior
// changes can be trialled on a subset of staff first.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Override rules (for testing/debugging)
	teacherOverrides map[string]map[string]bool // teacherID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100). Teachers are assigned to buckets by a
	// consistent hash of their ID.
	RolloutPercent int
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	TeacherID string // institute teacher account ID
	IsAdmin   bool   // institute admin role
}

// Predefined feature flag names.
const (
	// === Marking Features ===
	FeatureMarkingDefaultPresent = "marking.default_present" // seed unmarked students as present
	FeatureMarkingBulkActions    = "marking.bulk_actions"    // mark-all buttons
	FeatureMarkingRemarks        = "marking.remarks"         // free-text remarks on decisions

	// === History Features ===
	FeatureHistoryExport = "history.export" // server-side export downloads

	// === Statistics Features ===
	FeatureStatisticsWeeklyTrend = "statistics.weekly_trend" // weekly trend chart
	FeatureStatisticsAlerts      = "statistics.alerts"       // low attendance alerts
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:         make(map[string]*Feature),
		teacherOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureMarkingDefaultPresent] = &Feature{
		Name:           FeatureMarkingDefaultPresent,
		Description:    "Seed unmarked roster entries as present",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureMarkingBulkActions] = &Feature{
		Name:           FeatureMarkingBulkActions,
		Description:    "Enable mark-all bulk actions",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureMarkingRemarks] = &Feature{
		Name:           FeatureMarkingRemarks,
		Description:    "Allow free-text remarks on decisions",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureHistoryExport] = &Feature{
		Name:           FeatureHistoryExport,
		Description:    "Server-side history exports",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureStatisticsWeeklyTrend] = &Feature{
		Name:           FeatureStatisticsWeeklyTrend,
		Description:    "Weekly trend chart on statistics view",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureStatisticsAlerts] = &Feature{
		Name:           FeatureStatisticsAlerts,
		Description:    "Low attendance alert list",
		Enabled:        true,
		RolloutPercent: 100,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_MARKING_DEFAULT_PRESENT=false
// Example: FEATURE_STATISTICS_ALERTS=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		val := os.Getenv(envKey)
		if val == "" {
			continue
		}

		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			if b {
				feature.RolloutPercent = 100
			} else {
				feature.RolloutPercent = 0
			}
			continue
		}

		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			feature.Enabled = p > 0
			feature.RolloutPercent = p
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "marking.default_present" -> "FEATURE_MARKING_DEFAULT_PRESENT"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	if ctx != nil && ctx.TeacherID != "" {
		if overrides, ok := ff.teacherOverrides[ctx.TeacherID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin accounts get all enabled features regardless of rollout.
	if ctx != nil && ctx.IsAdmin {
		return feature.Enabled
	}

	if !feature.Enabled {
		return false
	}

	if feature.RolloutPercent < 100 && ctx != nil && ctx.TeacherID != "" {
		return isInRollout(ctx.TeacherID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a teacher is in the rollout percentage.
// Uses consistent hashing so accounts stay in their bucket.
func isInRollout(teacherID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(teacherID))
	bucket := int(h.Sum32() % 100)
	return bucket < percent
}

// SetTeacherOverride sets a feature override for a specific teacher.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetTeacherOverride(teacherID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.teacherOverrides[teacherID]; !ok {
		ff.teacherOverrides[teacherID] = make(map[string]bool)
	}
	ff.teacherOverrides[teacherID][featureName] = enabled
}

// ClearTeacherOverrides removes all overrides for a teacher.
func (ff *FeatureFlags) ClearTeacherOverrides(teacherID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.teacherOverrides, teacherID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}
	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0
	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
