package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/jaxxstorm/loansync/internal/api/models"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F5F"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
)

func renderSyncResponse(resp models.TriggerSyncResponse) string {
	return fmt.Sprintf("%s %s\n%s %s",
		labelStyle.Render("Message:"), resp.Message,
		labelStyle.Render("Job ID:"), resp.JobID,
	)
}

func renderJobResponse(job models.SyncJobResponse) string {
	errLine := ""
	if job.ErrorMessage != nil {
		errLine = fmt.Sprintf("\n%s %s", labelStyle.Render("Error:"), *job.ErrorMessage)
	}
	return fmt.Sprintf("%s %s\n%s %s\n%s %s%s",
		labelStyle.Render("Job ID:"), job.ID,
		labelStyle.Render("Category:"), job.LoanCategory,
		labelStyle.Render("Status:"), job.Status,
		errLine,
	)
}
