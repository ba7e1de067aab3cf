package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cloudpillar/cloudpillar/creds"
	"github.com/cloudpillar/cloudpillar/orchestrator"
	awsprovider "github.com/cloudpillar/cloudpillar/providers/aws"
	"github.com/cloudpillar/cloudpillar/recommend"
	"github.com/cloudpillar/cloudpillar/storage"
	"github.com/cloudpillar/cloudpillar/telemetry"
	"github.com/cloudpillar/cloudpillar/types"
)

var (
	scanRegions   []string
	scanName      string
	scanOutput    string
	scanRecommend bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan with ambient credentials and print the result",
	Long: `Scan the account visible to your local AWS credentials and print
the inventory when it finishes. Progress is written to stderr logs;
the result goes to stdout.`,
	Example: `  cloudpillar scan                                  # all enabled regions
  cloudpillar scan --region us-east-1 --region eu-west-1
  cloudpillar scan --recommend                      # include Bedrock review
  cloudpillar scan -o table`,
	RunE: runScanOnce,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringArrayVarP(&scanRegions, "region", "r", nil, "Region to scan (repeatable; default: all enabled regions)")
	scanCmd.Flags().StringVar(&scanName, "name", "local scan", "Scan name")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "json", "Output format: json, table")
	scanCmd.Flags().BoolVar(&scanRecommend, "recommend", false, "Ask Bedrock for a Well-Architected review")
}

func runScanOnce(cmd *cobra.Command, args []string) error {
	if scanOutput != "json" && scanOutput != "table" {
		return fmt.Errorf("invalid output format: %s (must be json or table)", scanOutput)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	telemetry.SetLevel(cfg.Log.Level)

	ctx := context.Background()

	dir, err := os.MkdirTemp("", "cloudpillar-scan-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	store, err := storage.NewBoltStore(filepath.Join(dir, "scan.db"))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var recommender recommend.Provider
	if scanRecommend {
		recommender, err = buildRecommender(ctx, cfg)
		if err != nil {
			return err
		}
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

	scan, err := orch.Start(ctx, "local", scanName, "default", scanRegions)
	if err != nil {
		return err
	}

	orch.Drain()

	result, err := orch.Get(ctx, "local", scan.ID)
	if err != nil {
		return err
	}

	if result.Status == types.StatusFailed {
		return fmt.Errorf("scan failed: %s", result.ErrorMessage)
	}

	if scanOutput == "table" {
		printScanTable(result)
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func printScanTable(scan *types.Scan) {
	regions := make([]string, 0, len(scan.Results))
	for region := range scan.Results {
		regions = append(regions, region)
	}
	sort.Strings(regions)

	for _, region := range regions {
		result := scan.Results[region]
		if result.Unreachable {
			fmt.Printf("%s\tUNREACHABLE\t%s\n", region, result.ErrorMessage)
			continue
		}

		services := make([]string, 0, len(result.Services))
		for service := range result.Services {
			services = append(services, service)
		}
		sort.Strings(services)

		for _, service := range services {
			fmt.Printf("%s\t%s\t%d\n", region, service, result.Services[service].Count)
		}
		for _, service := range result.FailedServices() {
			fmt.Printf("%s\t%s\tERROR: %s\n", region, service, result.Errors[service].Error())
		}
	}

	if scan.Recommendation != "" {
		fmt.Printf("\n%s\n", scan.Recommendation)
	}
	if scan.Warning != "" {
		fmt.Printf("\nwarning: %s\n", scan.Warning)
	}
}
