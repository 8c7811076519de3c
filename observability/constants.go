package observability

// Metric name prefixes
const (
	MetricPrefix = "shardflip"
)

// Metric names
const (
	// Bet metrics
	BetsSettledTotal  = MetricPrefix + ".bets.settled_total"
	BetsRejectedTotal = MetricPrefix + ".bets.rejected_total"
	BetsStakedAmount  = MetricPrefix + ".bets.staked_amount"
	BetsPayoutAmount  = MetricPrefix + ".bets.payout_amount"

	// Pool metrics
	PoolMovementsTotal = MetricPrefix + ".pool.movements_total"
	PoolMovementAmount = MetricPrefix + ".pool.movement_amount"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
	NATSMessagesReceivedTotal  = MetricPrefix + ".nats.messages_received_total"

	// HTTP metrics
	HTTPRequestsTotal   = MetricPrefix + ".http.requests_total"
	HTTPRequestDuration = MetricPrefix + ".http.request_duration"
)

// Label keys
const (
	LabelResult    = "result"
	LabelCode      = "code"
	LabelKind      = "kind"
	LabelEventType = "event_type"
	LabelRoute     = "route"
	LabelMethod    = "method"
	LabelStatus    = "status"
)

// Bet results
const (
	ResultWin  = "win"
	ResultLoss = "loss"
)
