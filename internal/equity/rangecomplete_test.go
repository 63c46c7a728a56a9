package equity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeRangeCompleteBasic(t *testing.T) {
	hero := mustRange(t, "AhAd:1,KhKd:1")
	villain := mustRange(t, "QhQd:1,2c3c:1")
	board := mustBoard(t, "7h8s9c")

	heroDecomp, villainDecomp, err := AnalyzeRangeComplete(hero, villain, board, nil)
	require.NoError(t, err)
	assert.Equal(t, 2.0, heroDecomp.TotalCombos)
	assert.NotEmpty(t, heroDecomp.Categories)
	assert.NotEmpty(t, villainDecomp.Categories)
}

func TestAnalyzeRangeCompleteAttachesComboData(t *testing.T) {
	hero := mustRange(t, "AhAd:1")
	villain := mustRange(t, "QhQd:1")
	board := mustBoard(t, "7h8s9c")

	comboData := ComboStrategyData{
		"AhAd": []StrategyAction{{Action: "bet 66", Frequency: 0.8}, {Action: "check", Frequency: 0.2}},
	}

	heroDecomp, _, err := AnalyzeRangeComplete(hero, villain, board, comboData)
	require.NoError(t, err)
	require.Len(t, heroDecomp.Categories, 1)
	require.NotEmpty(t, heroDecomp.Categories[0].StrategyActions)
	assert.Equal(t, "bet 66", heroDecomp.Categories[0].StrategyActions[0].Action)
}
