package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"example.com/presencebot/internal/domain"
)

const embedColor = 0x5865F2

var periodLabels = map[domain.Period]string{
	domain.PeriodDay:   "last 24 hours",
	domain.PeriodWeek:  "last 7 days",
	domain.PeriodMonth: "last 30 days",
	domain.PeriodAll:   "all time",
}

var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// activitiesEmbed renders one page of the activity ranking.
func activitiesEmbed(groups []domain.ActivityGroup, period domain.Period, page, pageSize int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Activities — %s", periodLabels[period]),
		Color: embedColor,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Page %d/%d · %d activities", page+1, pageCount(len(groups), pageSize), len(groups)),
		},
	}
	if len(groups) == 0 {
		embed.Description = "No activity recorded in this period."
		return embed
	}

	start := page * pageSize
	if start > len(groups) {
		start = len(groups)
	}
	end := start + pageSize
	if end > len(groups) {
		end = len(groups)
	}

	var sb strings.Builder
	for i, g := range groups[start:end] {
		line := fmt.Sprintf("**%d. %s** — %s · %d sessions", start+i+1, g.ActivityName, formatDuration(g.TotalDuration), g.SessionCount)
		if g.ActiveUsers > 0 {
			line += fmt.Sprintf(" · %d playing now", g.ActiveUsers)
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	embed.Description = sb.String()
	return embed
}

// paginationComponents builds the prev/next button row and the period select.
func paginationComponents(id string, page, pages int, period domain.Period) []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, 3)
	for _, p := range []domain.Period{domain.PeriodDay, domain.PeriodWeek, domain.PeriodMonth} {
		options = append(options, discordgo.SelectMenuOption{
			Label:   periodLabels[p],
			Value:   string(p),
			Default: p == period,
		})
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Previous",
					Style:    discordgo.SecondaryButton,
					CustomID: fmt.Sprintf("%s:%s:prev", commandActivities, id),
					Disabled: page == 0,
				},
				discordgo.Button{
					Label:    "Next",
					Style:    discordgo.SecondaryButton,
					CustomID: fmt.Sprintf("%s:%s:next", commandActivities, id),
					Disabled: page >= pages-1,
				},
			},
		},
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID: fmt.Sprintf("%s:%s:period", commandActivities, id),
					Options:  options,
				},
			},
		},
	}
}

// retrospectiveEmbed renders the summary block of a retrospective.
func retrospectiveEmbed(retro *domain.Retrospective) *discordgo.MessageEmbed {
	summary := retro.Summary
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Retrospective — %s", periodLabels[retro.Period]),
		Color: embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Total hours", Value: fmt.Sprintf("%.1f", summary.TotalHours), Inline: true},
			{Name: "Sessions", Value: fmt.Sprintf("%d", summary.TotalSessions), Inline: true},
			{Name: "Most popular activity", Value: summary.MostPopularActivity, Inline: true},
			{Name: "Most active user", Value: summary.MostActiveUser, Inline: true},
			{Name: "Peak hour", Value: fmt.Sprintf("%02d:00", summary.PeakHour), Inline: true},
			{Name: "Peak day", Value: dayNames[summary.PeakDay], Inline: true},
		},
	}
}

// formatDuration renders a millisecond duration as hours and minutes.
func formatDuration(ms int64) string {
	minutes := ms / 60000
	hours := minutes / 60
	minutes %= 60
	if hours > 0 {
		return fmt.Sprintf("%dh %02dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
