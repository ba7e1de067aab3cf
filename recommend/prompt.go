package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cloudpillar/cloudpillar/types"
)

// buildPrompt renders the scan results into the Well-Architected review
// request sent to the model. Regions and services are emitted in sorted
// order so identical scans produce identical prompts.
func buildPrompt(scan *types.Scan) string {
	var b strings.Builder

	b.WriteString("You are an AWS solutions architect reviewing an account inventory.\n")
	b.WriteString("Analyze the following scan results against the six pillars of the ")
	b.WriteString("AWS Well-Architected Framework: operational excellence, security, ")
	b.WriteString("reliability, performance efficiency, cost optimization, and sustainability.\n\n")
	b.WriteString("For each pillar, list concrete findings and prioritized recommendations ")
	b.WriteString("grounded in the inventory below. Cite the region and service a finding ")
	b.WriteString("comes from. If the inventory is too sparse to assess a pillar, say so briefly.\n\n")

	fmt.Fprintf(&b, "Scan %q covered %d region(s).\n\n", scan.Name, len(scan.Results))

	regions := make([]string, 0, len(scan.Results))
	for region := range scan.Results {
		regions = append(regions, region)
	}
	sort.Strings(regions)

	for _, region := range regions {
		result := scan.Results[region]
		fmt.Fprintf(&b, "Region %s:\n", region)

		if result.Unreachable {
			fmt.Fprintf(&b, "  unreachable: %s\n\n", result.ErrorMessage)
			continue
		}

		services := make([]string, 0, len(result.Services))
		for service := range result.Services {
			services = append(services, service)
		}
		sort.Strings(services)

		for _, service := range services {
			summary := result.Services[service]
			fmt.Fprintf(&b, "  %s: %d resource(s)", service, summary.Count)
			writeMetadata(&b, summary.Metadata)
			b.WriteString("\n")
		}

		for _, service := range result.FailedServices() {
			probeErr := result.Errors[service]
			fmt.Fprintf(&b, "  %s: probe failed (%s)\n", service, probeErr.Kind)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// writeMetadata appends scalar probe metadata inline. Nested values
// (per-resource listings) are skipped; counts are what the model needs.
func writeMetadata(b *strings.Builder, metadata map[string]any) {
	if len(metadata) == 0 {
		return
	}

	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		switch v := metadata[key].(type) {
		case int, int64, float64, bool, string:
			parts = append(parts, fmt.Sprintf("%s=%v", key, v))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(parts, ", "))
	}
}
