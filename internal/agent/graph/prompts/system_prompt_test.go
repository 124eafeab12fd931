package prompts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jyotish-ai/server/internal/agent/model"
)

func TestRenderSystem(t *testing.T) {
	out, err := RenderSystem(context.Background(),
		model.Profile{DOB: "1990-01-01", TOB: "06:00", City: "Kathmandu, Nepal"},
		[]string{"D1", "D9", "D10"},
	)
	require.NoError(t, err)
	require.Contains(t, out, "Date of birth: 1990-01-01")
	require.Contains(t, out, "Place of birth: Kathmandu, Nepal")
	require.Contains(t, out, "get_d10_chart")
	require.Contains(t, out, "search_bphs")
	require.Contains(t, out, "D1, D9, D10")
	require.NotContains(t, out, "{{")
}

func TestRenderSystemUnknownProfile(t *testing.T) {
	out, err := RenderSystem(context.Background(), model.Profile{}, nil)
	require.NoError(t, err)
	require.Contains(t, out, "Time of birth: unknown")
}
