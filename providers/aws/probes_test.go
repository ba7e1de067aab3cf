package aws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbesRegional(t *testing.T) {
	p := &Provider{region: "eu-west-1"}

	services := make(map[string]bool)
	for _, probe := range p.Probes() {
		require.False(t, services[probe.Service()], "duplicate probe %s", probe.Service())
		services[probe.Service()] = true
	}

	assert.True(t, services["ec2"])
	assert.True(t, services["rds"])
	assert.True(t, services["cloudwatch"])

	// global services never run outside us-east-1
	assert.False(t, services["s3"])
	assert.False(t, services["iam"])
	assert.False(t, services["route53"])
}

func TestProbesGlobalRegion(t *testing.T) {
	p := &Provider{region: GlobalRegion}

	services := make(map[string]bool)
	for _, probe := range p.Probes() {
		services[probe.Service()] = true
	}

	assert.True(t, services["s3"])
	assert.True(t, services["iam"])
	assert.True(t, services["route53"])
	assert.True(t, services["ec2"])
}
