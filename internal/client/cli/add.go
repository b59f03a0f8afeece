package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dpavel/songsync/internal/client/models"
)

// Add prompts for a new record and saves it through the write path.
// Offline the record is stored locally under a placeholder id and
// uploaded on the next flush.
func (a *App) Add(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Println("Please login first")
		return nil
	}

	text, err := getSimpleText(a.reader, "Enter title", os.Stdout)
	if err != nil {
		return err
	}

	lengthStr, err := getSimpleText(a.reader, "Enter length in seconds", os.Stdout)
	if err != nil {
		return err
	}
	length, err := strconv.Atoi(lengthStr)
	if err != nil {
		fmt.Println("Length must be a number")
		return err
	}

	date, err := getSimpleText(a.reader, "Enter date (empty for now)", os.Stdout)
	if err != nil {
		return err
	}
	if date == "" {
		date = time.Now().Format(time.RFC3339)
	}

	song := models.Song{Text: text, Length: length, Date: date}

	saved, err := a.machine.Save(ctx, song)
	if err != nil {
		a.logger.Warn(ctx, "save failed", "error", err)
		fmt.Println("Save failed:", err.Error())
		return err
	}

	if saved.HasLocalID() {
		fmt.Printf("Saved locally as %s (will upload when online)\n", saved.ID)
	} else {
		fmt.Printf("Saved as %s\n", saved.ID)
	}
	return nil
}

// Like toggles the liked flag on a record and saves it.
func (a *App) Like(ctx context.Context, id string) error {
	if !a.isLoggedIn() {
		fmt.Println("Please login first")
		return nil
	}

	var song *models.Song
	state := a.machine.State()
	for i := range state.Songs {
		if state.Songs[i].ID == id {
			song = &state.Songs[i]
			break
		}
	}
	if song == nil {
		fmt.Println("No record with id", id)
		return nil
	}

	song.Liked = !song.Liked

	saved, err := a.machine.Save(ctx, *song)
	if err != nil {
		a.logger.Warn(ctx, "save failed", "error", err)
		fmt.Println("Save failed:", err.Error())
		return err
	}

	if saved.Liked {
		fmt.Println("Liked", saved.ID)
	} else {
		fmt.Println("Unliked", saved.ID)
	}
	return nil
}
