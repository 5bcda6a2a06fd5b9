package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUnix(t *testing.T) {
	cases := []struct {
		sec        int64
		expectDate string
	}{
		// midnight UTC is already the next morning in CST
		{sec: 1704067200, expectDate: "2024-01-01 08:00:00"},
		{sec: 1704038400, expectDate: "2024-01-01 00:00:00"},
		{sec: 0, expectDate: "1970-01-01 08:00:00"},
	}

	for _, test := range cases {
		got := Unix(test.sec)
		require.Equal(t, Location, got.Location())
		require.Equal(t, test.expectDate, got.Format("2006-01-02 15:04:05"))
	}
}

func TestNow(t *testing.T) {
	now := Now()
	require.Equal(t, Location, now.Location())
	require.WithinDuration(t, time.Now(), now, time.Second)
}
