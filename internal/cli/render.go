package cli

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/marklet/marklet/internal/domain"
)

// renderRows prints the bookmark list newest first.
func renderRows(rows []domain.Bookmark) {
	if len(rows) == 0 {
		color.HiBlack("no bookmarks yet")
		return
	}
	for _, row := range rows {
		fmt.Printf("%s  %s\n    %s\n",
			color.CyanString(row.Title),
			color.HiBlackString(row.ID),
			row.URL)
	}
}
