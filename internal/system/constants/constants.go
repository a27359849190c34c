package constants

const DeploymentConfigPath = "/repository/conf/deployment.yaml"
const EnvFilesGlob = "config/*.env"

type contextKey string

const TraceIDContextKey contextKey = "trace_id"
const InitiatorContextKey contextKey = "initiator"

// Merge strategies, one per row of the attribute strategy table.
const (
	MergeStrategyKeepMain       = "keep_main"        // the survivor keeps its own value
	MergeStrategyPreferNonEmpty = "prefer_non_empty" // main's value unless blank, then other's
	MergeStrategyLogicalOr      = "logical_or"       // true if either record has it true
	MergeStrategyOrderedUnion   = "ordered_union"    // main's sequence then other's missing entries
	MergeStrategyReassignOwner  = "reassign_owner"   // rows owned by other move to main
)

// Hard error tags. Detection order is the order below.
const (
	ErrorTagContributions          = "contributions"
	ErrorTagCoursesParticipatingIn = "courses_participating_in"
)

// Warning tags.
const (
	WarningTagRewards = "rewards"
)

const AdvisoryLockKeyPrefix = "user_profile:"

const DriverName = "postgres"
