package cli

import (
	"context"
	"fmt"
)

// List refreshes the collection through the read path and prints it.
// Placeholder ids mark records not yet confirmed by the server.
func (a *App) List(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Println("Please login first")
		return nil
	}

	if err := a.machine.Fetch(ctx); err != nil {
		a.logger.Warn(ctx, "fetch failed", "error", err)
	}

	state := a.machine.State()
	if state.FetchErr != nil {
		fmt.Println("Fetch error:", state.FetchErr.Error())
	}
	if len(state.Songs) == 0 {
		fmt.Println("No records")
		return nil
	}

	for _, s := range state.Songs {
		liked := " "
		if s.Liked {
			liked = "*"
		}
		local := ""
		if s.HasLocalID() {
			local = " (local)"
		}
		fmt.Printf("[%s] %s  %s (%ds) %s%s\n", liked, s.ID, s.Text, s.Length, s.Date, local)
	}
	return nil
}

// Sync forces a reconciliation pass against the server.
func (a *App) Sync(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Println("Please login first")
		return nil
	}
	if err := a.machine.Sync(ctx); err != nil {
		a.logger.Warn(ctx, "sync finished with errors", "error", err)
		fmt.Println("Sync finished with errors:", err.Error())
		return err
	}
	fmt.Println("Sync complete")
	return nil
}

// Status prints the connectivity mode and the sync state summary.
func (a *App) Status(ctx context.Context) error {
	fmt.Println("Mode:", a.Mode)
	if !a.isLoggedIn() {
		fmt.Println("Not logged in")
		return nil
	}
	state := a.machine.State()
	fmt.Println("Records:", len(state.Songs))
	fmt.Println("Pending local writes:", state.PendingLocal)
	return nil
}
