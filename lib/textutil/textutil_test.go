package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"和風らんち　1個", "和風らんち1個"},
		{"  Chicken  Nanban ", "chickennanban"},
		{"みそしる", "みそしる"},
		{"", ""},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, NormalizeText(c.input))
	}
}

func TestContainsAll(t *testing.T) {
	dishes := "カレーライス大盛り, サラダ　みそしる"
	require.True(t, ContainsAll(dishes, []string{"カレー", "サラダ"}))
	require.True(t, ContainsAll(dishes, nil))
	require.False(t, ContainsAll(dishes, []string{"カレー", "ぎょうざ"}))
}
