package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNowIsCampusTime(t *testing.T) {
	now := Now()
	require.Equal(t, "America/Los_Angeles", now.Location().String())

	// the date boundary follows campus time, not the host clock
	utc := time.Date(2025, time.June, 13, 3, 0, 0, 0, time.UTC)
	require.Equal(t, "2025-06-12", utc.In(Location).Format("2006-01-02"))
}
