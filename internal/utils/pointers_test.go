package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-booklet-session/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestValue(t *testing.T) {
	require.Equal(t, "", utils.Value[string](nil))
	require.Equal(t, "RT2", utils.Value(utils.Ptr("RT2")))
	require.Equal(t, 0, utils.Value[int](nil))
}
