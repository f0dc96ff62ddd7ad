package seed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	activitydomain "github.com/gioariciaga/sql-analysis/internal/activity/domain"
	customerdomain "github.com/gioariciaga/sql-analysis/internal/customer/domain"
	"github.com/gioariciaga/sql-analysis/pkg/db"
)

func TestLoadDemoDataIsIdempotent(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&customerdomain.Customer{}, &activitydomain.ActivityRecord{}))

	now := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	require.NoError(t, LoadDemoData(conn, now))
	require.NoError(t, LoadDemoData(conn, now))

	var customers int64
	require.NoError(t, conn.Model(&customerdomain.Customer{}).Count(&customers).Error)
	assert.Equal(t, int64(len(demoAccounts)), customers)

	var records int64
	require.NoError(t, conn.Model(&activitydomain.ActivityRecord{}).Count(&records).Error)
	var want int64
	for _, a := range demoAccounts {
		want += int64(len(a.weeks))
	}
	assert.Equal(t, want, records)
}
