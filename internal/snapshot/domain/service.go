package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Capture upserts the status and headcount rows for one room.
	// Re-running within the same month updates in place.
	Capture(ctx context.Context, roomID snowflake.ID, year, month int) error
	// CaptureAll snapshots every non-deleted room for (year, month).
	CaptureAll(ctx context.Context, year, month int) error
}
