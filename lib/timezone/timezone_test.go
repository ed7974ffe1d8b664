package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromUnixMilli(t *testing.T) {
	cases := []struct {
		ms     int64
		expect string
	}{
		// 2024-01-02 03:00 UTC
		{ms: 1704164400000, expect: "2024.01.02 12:00"},
		// 2024-01-01 20:00 UTC is already the next day in Seoul
		{ms: 1704139200000, expect: "2024.01.02 05:00"},
		// summer time elsewhere doesn't apply
		{ms: 1720000000000, expect: "2024.07.03 18:46"},
	}

	for _, test := range cases {
		require.Equal(t, test.expect, FromUnixMilli(test.ms).Format("2006.01.02 15:04"))
	}
}

func TestNow(t *testing.T) {
	_, offset := Now().Zone()
	require.Equal(t, 9*60*60, offset)
	require.WithinDuration(t, time.Now(), Now(), time.Second)
}
