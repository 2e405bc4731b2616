package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreetPortion(t *testing.T) {
	testCases := []struct {
		address string
		expect  string
	}{
		{address: "42 Elm St, Springfield", expect: "42 Elm St"},
		{address: "3040 ALVINA, Warren, MI 48091-2498", expect: "3040 ALVINA"},
		{address: "  12 Main St  ", expect: "12 Main St"},
		{address: "", expect: ""},
	}

	for _, test := range testCases {
		require.Equal(t, test.expect, StreetPortion(test.address))
	}
}

func TestNormalizeAddress(t *testing.T) {
	require.Equal(t, "42 ELM ST WARREN", NormalizeAddress("42 Elm St., Warren"))
	require.Equal(t, NormalizeAddress("42  ELM ST, WARREN"), NormalizeAddress("42 elm st. warren"))
}

func TestAddressSimilarity(t *testing.T) {
	require.Equal(t, float64(1), AddressSimilarity("3040 Alvina, Warren", "3040 ALVINA WARREN"))
	require.Equal(t, float64(0), AddressSimilarity("", "3040 ALVINA"))

	close := AddressSimilarity("3040 ALVINA, Warren, MI", "3040 ALVINA AVE, Warren, MI")
	far := AddressSimilarity("3040 ALVINA, Warren, MI", "12 MOUND RD, Detroit, MI")
	require.Greater(t, close, far)
	require.Greater(t, close, 0.85)
}
