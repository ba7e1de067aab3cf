package main

import (
	"context"
	"fmt"
	"net/http"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/oklog/run"
	"github.com/spf13/cobra"

	"github.com/cloudpillar/cloudpillar/api"
	"github.com/cloudpillar/cloudpillar/config"
	"github.com/cloudpillar/cloudpillar/creds"
	"github.com/cloudpillar/cloudpillar/orchestrator"
	"github.com/cloudpillar/cloudpillar/providers"
	awsprovider "github.com/cloudpillar/cloudpillar/providers/aws"
	"github.com/cloudpillar/cloudpillar/recommend"
	"github.com/cloudpillar/cloudpillar/storage"
	"github.com/cloudpillar/cloudpillar/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scan API server",
	Long: `Start the HTTP API that creates scans, reports their progress,
and serves finished results with recommendations.`,
	Example: `  cloudpillar serve
  cloudpillar serve --config /etc/cloudpillar/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	telemetry.SetLevel(cfg.Log.Level)
	logger := telemetry.NewLogger("serve")

	ctx := context.Background()
	otelShutdown, err := telemetry.InitOTEL(ctx, telemetry.Config{
		ServiceName:    "cloudpillar",
		ServiceVersion: version,
		OTELEndpoint:   cfg.OTEL.Endpoint,
		Insecure:       cfg.OTEL.Insecure,
	})
	if err != nil {
		return fmt.Errorf("failed to init telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(sctx)
	}()

	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	recommender, err := buildRecommender(ctx, cfg)
	if err != nil {
		return err
	}

	orch := orchestrator.New(orchestrator.Config{
		Store:       store,
		Resolver:    creds.DefaultChainResolver{},
		Factory:     awsFactory,
		Lister:      awsprovider.ListEnabledRegions,
		Recommender: recommender,

		RegionConcurrency: cfg.Scan.RegionConcurrency,
		ProbeTimeout:      cfg.Scan.ProbeTimeout,
		ProbeRetries:      cfg.Scan.ProbeRetries,
		RecommendTimeout:  cfg.Scan.RecommendTimeout,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           api.NewServer(orch).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var g run.Group
	g.Add(func() error {
		logger.Info().Str("addr", cfg.Server.ListenAddr).Msg("listening")
		return httpServer.ListenAndServe()
	}, func(error) {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = httpServer.Shutdown(sctx)
	})
	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	err = g.Run()
	if _, ok := err.(run.SignalError); ok {
		logger.Info().Msg("shutting down")
		err = nil
	}

	orch.Drain()
	return err
}

// awsFactory adapts the AWS provider constructor to the orchestrator's
// factory contract.
func awsFactory(ctx context.Context, region string, credentials aws.CredentialsProvider) (providers.RegionProvider, error) {
	return awsprovider.NewProvider(ctx, region, credentials)
}

// buildStore constructs the configured scan record store.
func buildStore(ctx context.Context, cfg *config.Config) (storage.ScanStore, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreBolt:
		store, err := storage.NewBoltStore(cfg.Store.BoltPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open bolt store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil

	case config.StoreDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		store := storage.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.Store.Table)
		return store, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// buildRecommender constructs the Bedrock recommendation provider.
func buildRecommender(ctx context.Context, cfg *config.Config) (recommend.Provider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for Bedrock: %w", err)
	}
	client := bedrockruntime.NewFromConfig(awsCfg)
	return recommend.NewBedrock(client, cfg.Bedrock.ModelID, cfg.Bedrock.MaxTokens), nil
}
