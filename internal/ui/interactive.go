package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/fskit/internal/console"
	"github.com/fenilsonani/fskit/internal/ui/models"
)

// RunReview opens the duplicate review screen and returns the number of
// files removed
func RunReview(engine console.Engine) (int, error) {
	m := models.NewReviewModel(engine)

	p := tea.NewProgram(m, tea.WithAltScreen())

	final, err := p.Run()
	if err != nil {
		return 0, fmt.Errorf("error running interactive mode: %w", err)
	}

	return final.(*models.ReviewModel).Removed(), nil
}
