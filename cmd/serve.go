package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi"
	chiware "github.com/go-chi/chi/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gridwork/gridpay/middleware"
	"github.com/gridwork/gridpay/money"
	appctx "github.com/gridwork/gridpay/utils/context"
	"github.com/gridwork/gridpay/utils/handlers"
)

const timeout = 10 * time.Second

func init() {
	RootCmd.AddCommand(ServeCmd)

	// address - sets the address of the server to be started
	ServeCmd.PersistentFlags().String("address", ":9000",
		"the default address to bind to")
	Must(viper.BindPFlag("address", ServeCmd.PersistentFlags().Lookup("address")))
	Must(viper.BindEnv("address", "ADDR"))

	// paypal-server - the gateway requests are verified against
	ServeCmd.PersistentFlags().String("paypal-server", "https://www.paypal.com",
		"the payment gateway server base url")
	Must(viper.BindPFlag("paypal-server", ServeCmd.PersistentFlags().Lookup("paypal-server")))
	Must(viper.BindEnv("paypal-server", "PAYPAL_SERVER"))

	// external-base-url - where the gateway and viewers reach this server
	ServeCmd.PersistentFlags().String("external-base-url", "",
		"the externally reachable base url of this server")
	Must(viper.BindPFlag("external-base-url", ServeCmd.PersistentFlags().Lookup("external-base-url")))
	Must(viper.BindEnv("external-base-url", "EXTERNAL_BASE_URL"))

	// settlement-currency - the only currency payments may settle in
	ServeCmd.PersistentFlags().String("settlement-currency", "USD",
		"the currency payments must settle in")
	Must(viper.BindPFlag("settlement-currency", ServeCmd.PersistentFlags().Lookup("settlement-currency")))
	Must(viper.BindEnv("settlement-currency", "SETTLEMENT_CURRENCY"))

	// allow-grid-emails - consult the grid directory for payout addresses
	ServeCmd.PersistentFlags().Bool("allow-grid-emails", false,
		"allow payout email lookups against the grid directory")
	Must(viper.BindPFlag("allow-grid-emails", ServeCmd.PersistentFlags().Lookup("allow-grid-emails")))
	Must(viper.BindEnv("allow-grid-emails", "ALLOW_GRID_EMAILS"))

	// allow-groups - permit payments that settle to group owners
	ServeCmd.PersistentFlags().Bool("allow-groups", false,
		"allow payouts to group owned objects and parcels")
	Must(viper.BindPFlag("allow-groups", ServeCmd.PersistentFlags().Lookup("allow-groups")))
	Must(viper.BindEnv("allow-groups", "ALLOW_GROUPS"))

	// pending-ttl - zero keeps pending transactions forever
	ServeCmd.PersistentFlags().Duration("pending-ttl", 0,
		"how long an unconfirmed transaction stays pending, zero for forever")
	Must(viper.BindPFlag("pending-ttl", ServeCmd.PersistentFlags().Lookup("pending-ttl")))
	Must(viper.BindEnv("pending-ttl", "PENDING_TTL"))
}

// ServeCmd starts the payment engine's web front end
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "starts the payment web front end",
	Run:   ServeRun,
}

// ServeRun - Main entrypoint of the serve subcommand
// This function takes a cobra command and starts up the payment engine's
// confirmation page and gateway notification endpoints.
func ServeRun(command *cobra.Command, args []string) {
	ctx := command.Context()
	logger, err := appctx.GetLogger(ctx)
	Must(err)

	sentryDsn := os.Getenv("SENTRY_DSN")
	if sentryDsn != "" {
		buildTime := ctx.Value(appctx.BuildTimeCTXKey).(string)
		commit := ctx.Value(appctx.CommitCTXKey).(string)
		err := sentry.Init(sentry.ClientOptions{
			Dsn:     sentryDsn,
			Release: fmt.Sprintf("gridpay@%s-%s", commit, buildTime),
		})
		defer sentry.Flush(2 * time.Second)
		if err != nil {
			logger.Panic().Err(err).Msg("unable to setup reporting!")
		}
	}

	// add our command line params to context
	ctx = context.WithValue(ctx, appctx.PayPalServerCTXKey, viper.GetString("paypal-server"))
	ctx = context.WithValue(ctx, appctx.ExternalBaseURLCTXKey, viper.GetString("external-base-url"))
	ctx = context.WithValue(ctx, appctx.SettlementCurrencyCTXKey, viper.GetString("settlement-currency"))
	ctx = context.WithValue(ctx, appctx.AllowGridEmailsCTXKey, viper.GetBool("allow-grid-emails"))
	ctx = context.WithValue(ctx, appctx.AllowGroupPayoutsCTXKey, viper.GetBool("allow-groups"))
	ctx = context.WithValue(ctx, appctx.PendingTTLCTXKey, viper.GetDuration("pending-ttl"))

	// the payout email tables live in the config file
	var users, groups map[string]string
	if cfg := viper.GetString("config"); cfg != "" {
		viper.SetConfigFile(cfg)
		if err := viper.ReadInConfig(); err != nil {
			logger.Fatal().Err(err).Msg("failed to read configuration file")
		}
		if err := viper.UnmarshalKey("users", &users); err != nil {
			logger.Fatal().Err(err).Msg("failed to parse the user payout table")
		}
		if err := viper.UnmarshalKey("groups", &groups); err != nil {
			logger.Fatal().Err(err).Msg("failed to parse the group payout table")
		}
	}

	// standalone mode has no simulator attached; triggers arrive only through
	// the embedding API, the web endpoints stay fully functional
	s, err := money.InitService(ctx, money.UnconnectedGrid{}, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize payment service")
	}
	defer s.Close()

	s.LoadPayoutTables(ctx, users, groups)

	r := setupRouter(ctx)
	r.Method(http.MethodGet, "/pp/", middleware.InstrumentHandler("ConfirmHandler", money.ConfirmHandler(s)))
	r.Method(http.MethodPost, "/ppipn/", middleware.InstrumentHandler("IPNHandler", money.IPNHandler(s)))
	r.Get("/metrics", middleware.Metrics().ServeHTTP)

	srv := http.Server{
		Addr:         viper.GetString("address"),
		Handler:      chi.ServerBaseContext(ctx, r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	if err = srv.ListenAndServe(); err != nil {
		sentry.CaptureException(err)
		logger.Fatal().Err(err).Msg("HTTP server start failed!")
	}
}

func setupRouter(ctx context.Context) *chi.Mux {
	logger, err := appctx.GetLogger(ctx)
	Must(err)

	r := chi.NewRouter()
	r.Use(
		chiware.RequestID,
		chiware.RealIP,
		chiware.Heartbeat("/"),
		chiware.Timeout(timeout),
		middleware.RequestIDTransfer)

	if logger != nil {
		// Also handles panic recovery
		r.Use(
			hlog.NewHandler(*logger),
			hlog.UserAgentHandler("user_agent"),
			hlog.RequestIDHandler("req_id", "Request-Id"),
			middleware.RequestLogger(logger))

		logger.Info().
			Str("version", ctx.Value(appctx.VersionCTXKey).(string)).
			Str("commit", ctx.Value(appctx.CommitCTXKey).(string)).
			Str("build_time", ctx.Value(appctx.BuildTimeCTXKey).(string)).
			Str("paypal_server", viper.GetString("paypal-server")).
			Str("address", viper.GetString("address")).
			Str("environment", viper.GetString("environment")).
			Msg("server starting")
	}

	r.Get("/health-check", handlers.HealthCheckHandler(
		ctx.Value(appctx.VersionCTXKey).(string),
		ctx.Value(appctx.BuildTimeCTXKey).(string),
		ctx.Value(appctx.CommitCTXKey).(string), nil))
	return r
}
