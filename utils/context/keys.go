package context

import "errors"

// CTXKey - a type for context keys
type CTXKey string

const (
	// EnvironmentCTXKey - the key used for the environment context
	EnvironmentCTXKey CTXKey = "environment"
	// DebugLoggingCTXKey - context key for debug logging
	DebugLoggingCTXKey CTXKey = "debug_logging"
	// LogLevelCTXKey - context key for application logging level
	LogLevelCTXKey CTXKey = "log_level"
	// LogWriterCTXKey - context key for overriding the log writer
	LogWriterCTXKey CTXKey = "log_writer"
	// LoggerCTXKey - context key for the application logger
	LoggerCTXKey CTXKey = "logger"

	// VersionCTXKey - context key for version of code
	VersionCTXKey CTXKey = "version"
	// CommitCTXKey - context key for the commit of the code
	CommitCTXKey CTXKey = "commit"
	// BuildTimeCTXKey - context key for the build time of code
	BuildTimeCTXKey CTXKey = "build_time"

	// PayPalServerCTXKey - the context key for getting the gateway base url
	PayPalServerCTXKey CTXKey = "paypal_server"
	// ExternalBaseURLCTXKey - the context key for the externally reachable address of this server
	ExternalBaseURLCTXKey CTXKey = "external_base_url"
	// SettlementCurrencyCTXKey - the context key for the expected settlement currency
	SettlementCurrencyCTXKey CTXKey = "settlement_currency"
	// AllowGridEmailsCTXKey - the context key for the grid email lookup policy flag
	AllowGridEmailsCTXKey CTXKey = "allow_grid_emails"
	// AllowGroupPayoutsCTXKey - the context key for the group payout policy flag
	AllowGroupPayoutsCTXKey CTXKey = "allow_group_payouts"
	// PendingTTLCTXKey - the context key for the pending transaction lifetime
	PendingTTLCTXKey CTXKey = "pending_ttl"
)

var (
	// ErrNotInContext - error you get when you ask for something not in the context.
	ErrNotInContext = errors.New("failed to get value from context")
	// ErrValueWrongType - error you get when you ask for something, and it is not the type you expected
	ErrValueWrongType = errors.New("context value of wrong type")
)
