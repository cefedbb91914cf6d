package bot

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"example.com/presencebot/internal/domain"
	"example.com/presencebot/internal/export"
	"example.com/presencebot/internal/observability"
)

const (
	commandActivities    = "activities"
	commandRetrospective = "retrospective"

	errGeneric   = "Something went wrong while fetching activity data. Please try again later."
	msgExpired   = "These controls have expired. Run the command again."
	msgWrongUser = "These controls belong to the user who ran the command."
)

// componentAction is the outcome of a pagination component press: either a
// rejection message for the invoker, or the page and period to render. The
// new state is only committed to the registry after the activity query
// succeeds, so a failed query leaves the paginator where it was.
type componentAction struct {
	page   int
	period domain.Period
	reject string
	ok     bool
}

// decideComponentAction resolves a component press against a paginator
// snapshot. Only the paginator's owner may drive its controls.
func decideComponentAction(p Paginator, invokerID, action string, values []string) componentAction {
	if invokerID != p.OwnerID {
		return componentAction{reject: msgWrongUser}
	}

	out := componentAction{page: p.Page, period: p.Period, ok: true}
	switch action {
	case "prev":
		if out.page > 0 {
			out.page--
		}
	case "next":
		out.page++
	case "period":
		if len(values) == 1 && domain.Period(values[0]).Valid() {
			out.period = domain.Period(values[0])
			out.page = 0
		}
	default:
		return componentAction{}
	}
	return out
}

// CommandHandler serves the slash commands and their component interactions.
type CommandHandler struct {
	query      *domain.Query
	stats      *domain.Stats
	exporter   *export.Exporter
	paginators *Registry
	pageSize   int
	logger     *zap.Logger
}

// NewCommandHandler constructs a CommandHandler.
func NewCommandHandler(query *domain.Query, stats *domain.Stats, exporter *export.Exporter, paginators *Registry, pageSize int, logger *zap.Logger) *CommandHandler {
	return &CommandHandler{
		query:      query,
		stats:      stats,
		exporter:   exporter,
		paginators: paginators,
		pageSize:   pageSize,
		logger:     logger,
	}
}

// Commands returns the application command definitions to register.
func Commands() []*discordgo.ApplicationCommand {
	periodChoices := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "Last 24 hours", Value: string(domain.PeriodDay)},
		{Name: "Last 7 days", Value: string(domain.PeriodWeek)},
		{Name: "Last 30 days", Value: string(domain.PeriodMonth)},
	}
	retroChoices := append(append([]*discordgo.ApplicationCommandOptionChoice{}, periodChoices...),
		&discordgo.ApplicationCommandOptionChoice{Name: "All time", Value: string(domain.PeriodAll)})

	return []*discordgo.ApplicationCommand{
		{
			Name:        commandActivities,
			Description: "List tracked activities for a period",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "period",
					Description: "Lookback window",
					Choices:     periodChoices,
				},
			},
		},
		{
			Name:        commandRetrospective,
			Description: "Generate a statistics retrospective with export files",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "period",
					Description: "Lookback window",
					Choices:     retroChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "format",
					Description: "Export file format",
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "JSON", Value: "json"},
						{Name: "CSV", Value: "csv"},
						{Name: "Both", Value: "both"},
					},
				},
			},
		},
	}
}

// Register overwrites the application commands, scoped to guildID when set.
func Register(s *discordgo.Session, appID, guildID string) error {
	_, err := s.ApplicationCommandBulkOverwrite(appID, guildID, Commands())
	return err
}

// HandleInteraction routes slash commands and component presses.
func (h *CommandHandler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch i.ApplicationCommandData().Name {
		case commandActivities:
			h.handleActivities(s, i)
		case commandRetrospective:
			h.handleRetrospective(s, i)
		}
	case discordgo.InteractionMessageComponent:
		h.handleComponent(s, i)
	}
}

func (h *CommandHandler) handleActivities(s *discordgo.Session, i *discordgo.InteractionCreate) {
	period := domain.PeriodDay
	if raw, ok := optionValue(i.ApplicationCommandData().Options, "period"); ok && domain.Period(raw).Valid() {
		period = domain.Period(raw)
	}

	groups, err := h.query.ActivitiesByPeriod(context.Background(), period)
	if err != nil {
		h.logger.Error("activities query failed", zap.String("period", string(period)), zap.Error(err))
		h.respondError(s, i)
		return
	}

	p := h.paginators.New(interactionUser(i).ID, period)
	embed := activitiesEmbed(groups, period, p.Page, h.pageSize)

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: paginationComponents(p.ID, p.Page, pageCount(len(groups), h.pageSize), period),
		},
	})
	if err != nil {
		h.logger.Error("activities response failed", zap.Error(err))
	}
}

func (h *CommandHandler) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	parts := strings.Split(data.CustomID, ":")
	if len(parts) != 3 || parts[0] != commandActivities {
		return
	}
	id, action := parts[1], parts[2]

	snap, ok := h.paginators.Get(id)
	if !ok {
		h.respondEphemeral(s, i, msgExpired)
		return
	}

	decision := decideComponentAction(snap, interactionUser(i).ID, action, data.Values)
	if decision.reject != "" {
		h.respondEphemeral(s, i, decision.reject)
		return
	}
	if !decision.ok {
		return
	}

	groups, err := h.query.ActivitiesByPeriod(context.Background(), decision.period)
	if err != nil {
		h.logger.Error("activities query failed", zap.String("period", string(decision.period)), zap.Error(err))
		h.respondEphemeral(s, i, errGeneric)
		return
	}

	pages := pageCount(len(groups), h.pageSize)
	page := decision.page
	if page >= pages {
		page = pages - 1
	}

	p, ok := h.paginators.Set(id, page, decision.period)
	if !ok {
		h.respondEphemeral(s, i, msgExpired)
		return
	}

	embed := activitiesEmbed(groups, p.Period, p.Page, h.pageSize)
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: paginationComponents(p.ID, p.Page, pages, p.Period),
		},
	})
	if err != nil {
		h.logger.Error("pagination update failed", zap.Error(err))
	}
}

func (h *CommandHandler) handleRetrospective(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	period := domain.PeriodAll
	if raw, ok := optionValue(options, "period"); ok && domain.Period(raw).Valid() {
		period = domain.Period(raw)
	}
	format := "json"
	if raw, ok := optionValue(options, "format"); ok {
		format = raw
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		h.logger.Error("retrospective defer failed", zap.Error(err))
		return
	}

	retro, err := h.stats.GenerateRetrospective(context.Background(), period)
	if err != nil {
		h.logger.Error("retrospective generation failed", zap.String("period", string(period)), zap.Error(err))
		h.followupError(s, i)
		return
	}
	observability.RecordRetrospective(string(period))

	paths, err := h.exportFiles(retro, format)
	if err != nil {
		h.logger.Error("retrospective export failed", zap.String("format", format), zap.Error(err))
		h.followupError(s, i)
		return
	}

	files := make([]*discordgo.File, 0, len(paths))
	var open []*os.File
	defer func() {
		for _, f := range open {
			_ = f.Close()
		}
	}()
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			h.logger.Error("opening export failed", zap.String("path", path), zap.Error(err))
			h.followupError(s, i)
			return
		}
		open = append(open, f)
		files = append(files, &discordgo.File{Name: filepath.Base(path), Reader: f})
	}

	_, err = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{retrospectiveEmbed(retro)},
		Files:  files,
	})
	if err != nil {
		h.logger.Error("retrospective followup failed", zap.Error(err))
	}
}

func (h *CommandHandler) exportFiles(retro *domain.Retrospective, format string) ([]string, error) {
	var paths []string
	if format == "json" || format == "both" {
		path, err := h.exporter.WriteJSON(retro)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	if format == "csv" || format == "both" {
		csvPaths, err := h.exporter.WriteCSV(retro)
		if err != nil {
			return nil, err
		}
		paths = append(paths, csvPaths...)
	}
	return paths, nil
}

func (h *CommandHandler) respondError(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.respondEphemeral(s, i, errGeneric)
}

func (h *CommandHandler) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		h.logger.Error("ephemeral response failed", zap.Error(err))
	}
}

func (h *CommandHandler) followupError(s *discordgo.Session, i *discordgo.InteractionCreate) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: errGeneric,
	})
	if err != nil {
		h.logger.Error("error followup failed", zap.Error(err))
	}
}

// interactionUser returns the invoking user for guild and DM interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func optionValue(options []*discordgo.ApplicationCommandInteractionDataOption, name string) (string, bool) {
	for _, opt := range options {
		if opt.Name == name {
			return opt.StringValue(), true
		}
	}
	return "", false
}

func pageCount(items, pageSize int) int {
	if items == 0 {
		return 1
	}
	pages := items / pageSize
	if items%pageSize != 0 {
		pages++
	}
	return pages
}
