package metrics

const (
	// Namespace of every resolver metric.
	Namespace = "enchantments"
	// Subsystem of every resolver metric.
	Subsystem = "resolver"
)

// OutcomeLabel is the label of FetchTotal.
const OutcomeLabel = "outcome"

// Fetch outcomes recorded by FetchTotal.
const (
	OutcomeSuccess   = "success"
	OutcomeEmpty     = "empty"
	OutcomeRetry     = "retry"
	OutcomeExhausted = "exhausted"
	OutcomeFailed    = "failed"
	OutcomeBlocked   = "blocked"
)

// CacheHitsTotal counts resolutions served from a fresh memory cache entry.
var CacheHitsTotal = MustRegisterCounter(
	Namespace, Subsystem, "cache_hits_total",
	"Number of resolutions served from the memory cache.",
)

// CacheMissesTotal counts resolutions that started a new pipeline.
var CacheMissesTotal = MustRegisterCounter(
	Namespace, Subsystem, "cache_misses_total",
	"Number of resolutions that required a fetch.",
)

// SharedTotal counts callers that attached to a resolution already in flight.
var SharedTotal = MustRegisterCounter(
	Namespace, Subsystem, "shared_total",
	"Number of resolutions that joined an in-flight fetch for the same key.",
)

// FetchTotal counts fetch attempts by outcome.
// [outcome].
var FetchTotal = MustRegisterCounterVec(
	Namespace, Subsystem, "fetch_total",
	"Number of fetch attempts by outcome.",
	OutcomeLabel,
)

// FetchDurationSeconds tracks the duration of outbound fetches.
var FetchDurationSeconds = MustRegisterHistogram(
	Namespace, Subsystem, "fetch_duration_seconds",
	"Duration of outbound enchantment fetches in seconds.",
	[]float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
)

// QueueDepthGauge tracks queued work, delayed retries included.
var QueueDepthGauge = MustRegisterGauge(
	Namespace, Subsystem, "queue_depth",
	"Number of queued resolutions, including delayed retries.",
)

// InFlightGauge tracks keys with an unsettled resolution.
var InFlightGauge = MustRegisterGauge(
	Namespace, Subsystem, "in_flight",
	"Number of keys currently being resolved.",
)

// ActiveWorkersGauge tracks running fetch workers.
var ActiveWorkersGauge = MustRegisterGauge(
	Namespace, Subsystem, "active_workers",
	"Number of fetch workers currently running.",
)

// CooldownTripsTotal counts throttle signals received from the source.
var CooldownTripsTotal = MustRegisterCounter(
	Namespace, Subsystem, "cooldown_trips_total",
	"Number of throttle signals that started or extended the cooldown.",
)
