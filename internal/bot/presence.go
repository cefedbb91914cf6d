// Package bot wires the Discord gateway to the session manager: it turns
// presence updates into session starts/ends and serves the slash commands.
package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"example.com/presencebot/internal/domain"
)

// PresenceHandler diffs presence updates against stored sessions.
type PresenceHandler struct {
	manager *domain.Manager
	logger  *zap.Logger
}

// NewPresenceHandler constructs a PresenceHandler.
func NewPresenceHandler(manager *domain.Manager, logger *zap.Logger) *PresenceHandler {
	return &PresenceHandler{manager: manager, logger: logger}
}

type activityKey struct {
	name         string
	activityType int
}

// HandlePresenceUpdate reconciles the member's stored sessions with the
// activities reported by the gateway: activities present in the update but
// not in the store are started, stored sessions absent from the update are
// ended. Custom statuses and bot accounts are ignored.
func (h *PresenceHandler) HandlePresenceUpdate(s *discordgo.Session, update *discordgo.PresenceUpdate) {
	if update.User == nil || update.User.Bot {
		return
	}
	ctx := context.Background()
	userID := update.User.ID

	reported := make(map[activityKey]*discordgo.Activity)
	for _, activity := range update.Presence.Activities {
		if activity == nil || activity.Name == "" || activity.Type == discordgo.ActivityTypeCustom {
			continue
		}
		key := activityKey{activity.Name, int(activity.Type)}
		if _, seen := reported[key]; !seen {
			reported[key] = activity
		}
	}

	current, err := h.manager.UserActiveSessions(ctx, userID)
	if err != nil {
		h.logger.Error("loading active sessions failed", zap.String("user_id", userID), zap.Error(err))
		return
	}

	for _, session := range current {
		key := activityKey{session.ActivityName, session.ActivityType}
		if _, still := reported[key]; still {
			continue
		}
		result, err := h.manager.EndActivity(ctx, userID, session.ActivityName, session.ActivityType)
		if err != nil {
			h.logger.Error("ending session failed",
				zap.String("user_id", userID),
				zap.String("activity", session.ActivityName),
				zap.Error(err))
			continue
		}
		if result != nil {
			h.logger.Info("session ended",
				zap.String("user_id", userID),
				zap.String("activity", session.ActivityName),
				zap.String("session_type", string(result.SessionType)),
				zap.Int64("duration_ms", result.Duration),
				zap.Int("remaining_users", len(result.RemainingUsers)))
		}
	}

	active := make(map[activityKey]struct{}, len(current))
	for _, session := range current {
		active[activityKey{session.ActivityName, session.ActivityType}] = struct{}{}
	}

	username, avatarURL := h.resolveIdentity(s, update)
	for key := range reported {
		if _, already := active[key]; already {
			continue
		}
		result, err := h.manager.StartActivity(ctx, domain.StartInput{
			UserID:       userID,
			Username:     username,
			AvatarURL:    avatarURL,
			ActivityName: key.name,
			ActivityType: key.activityType,
		})
		if err != nil {
			h.logger.Error("starting session failed",
				zap.String("user_id", userID),
				zap.String("activity", key.name),
				zap.Error(err))
			continue
		}
		h.logger.Info("session started",
			zap.String("user_id", userID),
			zap.String("activity", key.name),
			zap.String("session_type", string(result.SessionType)),
			zap.Bool("was_already_group", result.WasAlreadyGroup))
	}
}

// resolveIdentity pulls username/avatar from the presence payload, falling
// back to the member cache when the gateway sends a partial user.
func (h *PresenceHandler) resolveIdentity(s *discordgo.Session, update *discordgo.PresenceUpdate) (string, string) {
	username := update.User.Username
	avatarURL := ""
	if update.User.Avatar != "" {
		avatarURL = update.User.AvatarURL("")
	}
	if username != "" && avatarURL != "" {
		return username, avatarURL
	}

	if member, err := s.State.Member(update.GuildID, update.User.ID); err == nil && member.User != nil {
		if username == "" {
			username = member.User.Username
		}
		if avatarURL == "" {
			avatarURL = member.User.AvatarURL("")
		}
	}
	return username, avatarURL
}
