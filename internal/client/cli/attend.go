package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/attendkeeper/internal/client/client"
)

// readFile is a test seam for os.ReadFile.
var readFile = os.ReadFile

func (a *App) Attend(ctx context.Context, path string) error {
	if path == "" {
		printlnFn("Usage: attend <image-file>")
		return errors.New("missing image path")
	}

	img, err := readFile(path)
	if err != nil {
		printlnFn("Cannot read image:", err)
		return err
	}

	printlnFn("Running liveness check, look at the camera...")
	res, err := a.api.LogAttendance(ctx, img)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			printlnFn("Attendance rejected:", apiErr.Message)
		} else {
			printlnFn("Attendance failed:", err)
		}
		return err
	}

	printlnFn(res.Message)
	printlnFn(fmt.Sprintf("  at %s", res.Timestamp.Local().Format(time.RFC3339)))
	for _, m := range res.RecognitionDetails {
		printlnFn(fmt.Sprintf("  similarity %.2f%% (confidence %.2f%%)", m.Similarity, m.Confidence))
	}
	if res.Warning != "" {
		printlnFn("Warning:", res.Warning)
	}
	return nil
}

func (a *App) History(ctx context.Context, limitArg string) error {
	limit := 0
	if limitArg != "" {
		n, err := strconv.Atoi(limitArg)
		if err != nil || n < 1 {
			printlnFn("Usage: history [limit]")
			return errors.New("invalid limit")
		}
		limit = n
	}

	entries, err := a.api.History(ctx, limit)
	if err != nil {
		printlnFn("Cannot load history:", err)
		return err
	}
	if len(entries) == 0 {
		printlnFn("No attendance records")
		return nil
	}
	for _, e := range entries {
		best := 0.0
		for _, m := range e.RecognitionDetails {
			best = max(best, m.Similarity)
		}
		printlnFn(fmt.Sprintf("%s  %s  similarity %.2f%%", e.Timestamp.Local().Format(time.RFC3339), e.ID, best))
	}
	return nil
}
