package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/human-tech/signatory/core"
	"github.com/human-tech/signatory/service"
)

const commandVerify = "verify"

// RegisterCommands registers the /verify slash command on the guild.
func RegisterCommands(session *discordgo.Session, applicationID, guildID string) error {
	_, err := session.ApplicationCommandCreate(applicationID, guildID, &discordgo.ApplicationCommand{
		Name:        commandVerify,
		Description: "Start wallet verification",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "wallet",
				Description: "Your wallet address",
				Required:    true,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	return nil
}

// CommandHandler handles /verify interactions. Replies are ephemeral: a
// deferred acknowledgement edited with the outcome once issuance finishes.
type CommandHandler struct {
	svc *service.VerificationService
	log *slog.Logger
}

// NewCommandHandler creates a new command handler.
func NewCommandHandler(svc *service.VerificationService, log *slog.Logger) *CommandHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CommandHandler{svc: svc, log: log}
}

// Handle is registered as a discordgo interaction handler.
func (h *CommandHandler) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != commandVerify || i.Member == nil || len(data.Options) == 0 {
		return
	}

	userID := i.Member.User.ID
	wallet := data.Options[0].StringValue()

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		h.log.Error("failed to defer interaction", "user_id", userID, "error", err)
		return
	}

	issuance, err := h.svc.IssueChallenge(context.Background(), userID, wallet)
	content := h.reply(issuance, err)
	if err != nil && !userFacing(err) {
		h.log.Error("challenge issuance failed", "user_id", userID, "error", err)
	}

	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
		h.log.Error("failed to edit interaction reply", "user_id", userID, "error", err)
	}
}

func (h *CommandHandler) reply(issuance *core.Issuance, err error) string {
	var cooldown *core.CooldownError
	switch {
	case errors.As(err, &cooldown):
		return fmt.Sprintf("⏳ You can verify again in %d seconds.", cooldown.RemainingSeconds())
	case errors.Is(err, core.ErrNotEligible):
		return "❌ Wallet not eligible: must be SIGNED + VERIFIED."
	case errors.Is(err, core.ErrChannelCreate):
		return "❌ Failed to create verification channel."
	case err != nil:
		return "❌ Verification failed, please try again later."
	default:
		return fmt.Sprintf("✅ Private verification channel created: <#%s>", issuance.ChannelID)
	}
}

func userFacing(err error) bool {
	return errors.Is(err, core.ErrCooldownActive) || errors.Is(err, core.ErrNotEligible)
}
